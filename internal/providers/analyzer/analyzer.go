package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/providers/llm"
)

// Analyzer clusters patient transcripts into the configured symptom
// categories.
type Analyzer interface {
	Analyze(ctx context.Context, transcripts map[int]string, catalog *models.Catalog) (*models.Analysis, error)
}

// ResponseError is returned when the model answered but the answer could not
// be decoded. Raw holds the model output for diagnostics.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string { return "decode analysis: " + e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

// RawResponse returns the model output carried by err, if any.
func RawResponse(err error) string {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Raw
	}
	return ""
}

type LLMAnalyzer struct {
	LLM    llm.Provider
	Logger *logrus.Logger

	// MaxRetries bounds retries of failed model calls. Decode failures are
	// not retried.
	MaxRetries    uint64
	RetryInterval time.Duration
	Timeout       time.Duration
	Now           func() time.Time
}

func NewLLMAnalyzer(p llm.Provider, l *logrus.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		LLM:           p,
		Logger:        l,
		MaxRetries:    2,
		RetryInterval: time.Second,
		Timeout:       2 * time.Minute,
		Now:           time.Now,
	}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, transcripts map[int]string, catalog *models.Catalog) (*models.Analysis, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	prompt := BuildPrompt(catalog, transcripts)

	var raw string
	attempt := 0
	call := func() error {
		attempt++
		out, err := llm.Collect(ctx, a.LLM, prompt)
		if err != nil {
			if a.Logger != nil {
				a.Logger.WithError(err).WithFields(logrus.Fields{
					"provider": a.LLM.Name(),
					"attempt":  attempt,
				}).Warn("analysis model call failed")
			}
			return err
		}
		raw = out
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(a.RetryInterval), a.MaxRetries), ctx)
	if err := backoff.Retry(call, policy); err != nil {
		return nil, fmt.Errorf("%s analysis: %w", a.LLM.Name(), err)
	}

	result, err := Decode(raw)
	if err != nil {
		return nil, &ResponseError{Raw: raw, Err: err}
	}
	result.AnalyzedAt = a.now().UTC()
	return result, nil
}

func (a *LLMAnalyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func newBackOff(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if initial > 0 {
		b.InitialInterval = initial
	}
	b.MaxInterval = 10 * time.Second
	return b
}
