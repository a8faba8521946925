package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// AnalysisRecord is the archived copy of a completed session analysis.
type AnalysisRecord struct {
	ID               string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID        string         `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	TestMode         bool           `gorm:"column:test_mode" json:"test_mode"`
	Degraded         bool           `gorm:"column:degraded" json:"degraded"`
	ClinicalNotes    string         `gorm:"column:clinical_notes;type:text" json:"clinical_notes"`
	PriorityConcerns pq.StringArray `gorm:"column:priority_concerns;type:text[]" json:"priority_concerns"`
	CategoryIDs      pq.StringArray `gorm:"column:category_ids;type:text[]" json:"category_ids"`

	// JSONB: full analysis and the transcripts it was computed from
	Analysis    datatypes.JSON `gorm:"column:analysis;type:jsonb" json:"analysis"`
	Transcripts datatypes.JSON `gorm:"column:transcripts;type:jsonb" json:"transcripts"`

	AnalyzedAt time.Time `gorm:"column:analyzed_at;type:timestamptz;index" json:"analyzed_at"`
}

func (AnalysisRecord) TableName() string { return "intake_analyses" }
