package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("abc", now, true, []int{1, 2, 3})

	assert.Equal(t, StatusInProgress, s.Status)
	assert.True(t, s.TestMode)
	require.Len(t, s.Questions, 3)
	assert.NotNil(t, s.Question(2))
	assert.Nil(t, s.Question(4))
	for _, q := range s.Questions {
		assert.False(t, q.Recorded())
		assert.False(t, q.Transcribed())
	}
}

func TestRecordVideo(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q := &QuestionRecord{QuestionID: 1}

	assert.Empty(t, q.RecordVideo("s/q1_video.webm", first))
	assert.True(t, q.Recorded())
	assert.True(t, q.HasVideo())

	// same name: nothing to replace
	assert.Empty(t, q.RecordVideo("s/q1_video.webm", first.Add(time.Minute)))
	assert.Equal(t, "s/old.webm", (&QuestionRecord{VideoRef: "s/old.webm"}).RecordVideo("s/new.webm", first))
	assert.Equal(t, first, *q.RecordedAt)

	q.ReleaseArtifacts()
	assert.False(t, q.HasVideo())
	assert.True(t, q.Recorded(), "recorded survives artifact release")
}

func TestCompleteTranscriptionKeepsFirstTimestamp(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q := &QuestionRecord{QuestionID: 1}

	q.CompleteTranscription("", first)
	assert.True(t, q.Transcribed())
	assert.Equal(t, "", q.Text())

	q.CompleteTranscription("again", first.Add(time.Hour))
	assert.Equal(t, "again", q.Text())
	assert.Equal(t, first, *q.TranscribedAt)
}

func TestSessionCloneIsDeep(t *testing.T) {
	now := time.Now()
	s := NewSession("abc", now, false, []int{1})
	s.Question(1).CompleteTranscription("text", now)
	s.Complete(&Analysis{PriorityConcerns: []string{"a"}})

	c := s.Clone()
	*c.Question(1).Transcription = "changed"
	c.Question(1).VideoRef = "x/y"
	c.Analysis.PriorityConcerns[0] = "b"

	assert.Equal(t, "text", s.Question(1).Text())
	assert.Empty(t, s.Question(1).VideoRef)
	assert.Equal(t, "a", s.Analysis.PriorityConcerns[0])
	assert.Equal(t, StatusCompleted, c.Status)
}

func TestDegradedAnalysis(t *testing.T) {
	raw := strings.Repeat("r", 501)
	a := DegradedAnalysis("Failed to parse analysis", raw, time.Now())

	assert.True(t, a.Degraded())
	assert.Len(t, a.RawResponse, 500)
	assert.NotNil(t, a.MatchedCategories)
	assert.NotNil(t, a.PriorityConcerns)
	assert.Equal(t, "Analysis parsing failed - manual review needed", a.ClinicalNotes)

	var nilAnalysis *Analysis
	assert.False(t, nilAnalysis.Degraded())
	assert.False(t, (&Analysis{}).Degraded())
}

func TestCatalogLookup(t *testing.T) {
	c := &Catalog{Questions: []Question{{ID: 3}, {ID: 7}}}
	assert.Equal(t, []int{3, 7}, c.QuestionIDs())
	assert.True(t, c.HasQuestion(7))
	assert.False(t, c.HasQuestion(1))
}
