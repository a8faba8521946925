package llm

import (
	"context"
	"strings"
)

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental).
	// chunks is closed when the answer ends; errs receives at most one error.
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Name() string
	Close() error
}

// Collect drains a streamed answer into a single string.
func Collect(ctx context.Context, p Provider, prompt string) (string, error) {
	chunks, errs := p.StreamAnswer(ctx, prompt)

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}

	select {
	case err := <-errs:
		if err != nil {
			return full.String(), err
		}
	default:
	}
	if err := ctx.Err(); err != nil {
		return full.String(), err
	}
	return full.String(), nil
}
