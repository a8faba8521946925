package models

import "time"

const (
	// NoSpeechPlaceholder replaces an empty transcription in analyzer input.
	NoSpeechPlaceholder = "[No speech detected in recording]"

	degradedNote   = "Analysis parsing failed - manual review needed"
	rawSnippetSize = 500
)

type Analysis struct {
	MatchedCategories []MatchedCategory `bson:"matched_categories" json:"matched_categories"`
	PriorityConcerns  []string          `bson:"priority_concerns" json:"priority_concerns"`
	ClinicalNotes     string            `bson:"clinical_notes" json:"clinical_notes"`

	// set only on a degraded result
	Error       string `bson:"error,omitempty" json:"error,omitempty"`
	RawResponse string `bson:"raw_response,omitempty" json:"raw_response,omitempty"`

	AnalyzedAt time.Time `bson:"analyzed_at" json:"analyzed_at"`
}

type MatchedCategory struct {
	CategoryID         string   `bson:"category_id" json:"category_id"`
	CategoryName       string   `bson:"category_name" json:"category_name"`
	Confidence         string   `bson:"confidence" json:"confidence"` // high|medium|low
	PatientSymptoms    []string `bson:"patient_symptoms" json:"patient_symptoms"`
	SeverityIndicators []string `bson:"severity_indicators" json:"severity_indicators"`
}

// DegradedAnalysis is the placeholder result recorded when the analyzer fails
// or returns output that cannot be decoded.
func DegradedAnalysis(reason, raw string, at time.Time) *Analysis {
	if len(raw) > rawSnippetSize {
		raw = raw[:rawSnippetSize]
	}
	return &Analysis{
		MatchedCategories: []MatchedCategory{},
		PriorityConcerns:  []string{},
		ClinicalNotes:     degradedNote,
		Error:             reason,
		RawResponse:       raw,
		AnalyzedAt:        at.UTC(),
	}
}

func (a *Analysis) Degraded() bool { return a != nil && a.Error != "" }

func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	out := *a
	out.MatchedCategories = make([]MatchedCategory, len(a.MatchedCategories))
	for i, c := range a.MatchedCategories {
		c.PatientSymptoms = append([]string(nil), c.PatientSymptoms...)
		c.SeverityIndicators = append([]string(nil), c.SeverityIndicators...)
		out.MatchedCategories[i] = c
	}
	out.PriorityConcerns = append([]string{}, a.PriorityConcerns...)
	return &out
}
