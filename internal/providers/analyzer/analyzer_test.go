package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intake/internal/logger"
	"github.com/yoockh/intake/internal/models"
)

// queuedLLM answers each call with the next scripted reply.
type queuedLLM struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (q *queuedLLM) Name() string { return "queued" }
func (q *queuedLLM) Close() error { return nil }

func (q *queuedLLM) StreamAnswer(_ context.Context, prompt string) (<-chan string, <-chan error) {
	q.mu.Lock()
	q.prompts = append(q.prompts, prompt)
	r := q.replies[0]
	if len(q.replies) > 1 {
		q.replies = q.replies[1:]
	}
	q.mu.Unlock()

	out := make(chan string, 1)
	errs := make(chan error, 1)
	if r.text != "" {
		out <- r.text
	}
	if r.err != nil {
		errs <- r.err
	}
	close(out)
	close(errs)
	return out, errs
}

func newTestAnalyzer(p *queuedLLM) *LLMAnalyzer {
	a := NewLLMAnalyzer(p, logger.NewNop())
	a.RetryInterval = time.Millisecond
	a.Now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a
}

func catalog() *models.Catalog {
	return &models.Catalog{
		ClinicName: "Cascadia Clinic",
		Questions: []models.Question{
			{ID: 1, Title: "Your Main Concerns", Text: "What matters most?"},
			{ID: 2, Title: "Timeline", Text: "How long?"},
		},
		Categories: []models.SymptomCategory{
			{ID: "brain_fog", Name: "Brain Fog", Description: "Difficulty thinking."},
		},
	}
}

func TestAnalyzeDecodesAnswer(t *testing.T) {
	p := &queuedLLM{replies: []reply{{text: wellFormed}}}
	a, err := newTestAnalyzer(p).Analyze(context.Background(), map[int]string{1: "I can't think"}, catalog())
	require.NoError(t, err)
	assert.Equal(t, "brain_fog", a.MatchedCategories[0].CategoryID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), a.AnalyzedAt)

	require.Len(t, p.prompts, 1)
	prompt := p.prompts[0]
	assert.Contains(t, prompt, "Cascadia Clinic")
	assert.Contains(t, prompt, "**Brain Fog** (ID: brain_fog)")
	assert.Contains(t, prompt, "### Question 1: Your Main Concerns")
	assert.Contains(t, prompt, "I can't think")
	assert.Contains(t, prompt, "### Question 2: Timeline")
	assert.Contains(t, prompt, "[No response recorded]")
}

func TestAnalyzeRetriesFailedCalls(t *testing.T) {
	p := &queuedLLM{replies: []reply{{err: errors.New("503")}, {text: wellFormed}}}
	an := newTestAnalyzer(p)

	_, err := an.Analyze(context.Background(), map[int]string{1: "x"}, catalog())
	require.NoError(t, err)
	assert.Len(t, p.prompts, 2)
}

func TestAnalyzeGivesUpAfterRetries(t *testing.T) {
	p := &queuedLLM{replies: []reply{{err: errors.New("503")}}}
	an := newTestAnalyzer(p)
	an.MaxRetries = 1

	_, err := an.Analyze(context.Background(), map[int]string{1: "x"}, catalog())
	require.Error(t, err)
	assert.Len(t, p.prompts, 2)
	assert.Empty(t, RawResponse(err))
}

func TestAnalyzeKeepsRawOnDecodeFailure(t *testing.T) {
	p := &queuedLLM{replies: []reply{{text: "Sorry, I can only answer in prose."}}}

	_, err := newTestAnalyzer(p).Analyze(context.Background(), map[int]string{1: "x"}, catalog())
	require.Error(t, err)
	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Sorry, I can only answer in prose.", RawResponse(err))
	assert.True(t, strings.HasPrefix(err.Error(), "decode analysis:"))
	assert.Len(t, p.prompts, 1, "decode failures are not retried")
}
