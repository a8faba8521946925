package models

import "time"

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

type Session struct {
	SessionID string        `bson:"session_id" json:"session_id"` // uuid v4
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	Status    SessionStatus `bson:"status" json:"status"` // in_progress|completed
	TestMode  bool          `bson:"test_mode" json:"test_mode"`

	// One record per configured question, in catalog order.
	Questions []*QuestionRecord `bson:"questions" json:"questions"`

	Analysis *Analysis `bson:"analysis,omitempty" json:"analysis,omitempty"`
}

// NewSession builds a session with one empty record per question id.
func NewSession(id string, createdAt time.Time, testMode bool, questionIDs []int) *Session {
	s := &Session{
		SessionID: id,
		CreatedAt: createdAt,
		Status:    StatusInProgress,
		TestMode:  testMode,
		Questions: make([]*QuestionRecord, 0, len(questionIDs)),
	}
	for _, qid := range questionIDs {
		s.Questions = append(s.Questions, &QuestionRecord{QuestionID: qid})
	}
	return s
}

// Question returns the record for id, or nil when id is not part of the session.
func (s *Session) Question(id int) *QuestionRecord {
	for _, q := range s.Questions {
		if q.QuestionID == id {
			return q
		}
	}
	return nil
}

// Complete stores the analysis result and marks the session completed.
func (s *Session) Complete(a *Analysis) {
	s.Analysis = a
	s.Status = StatusCompleted
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = make([]*QuestionRecord, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q.Clone()
	}
	out.Analysis = s.Analysis.Clone()
	return &out
}
