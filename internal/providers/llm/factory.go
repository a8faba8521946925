package llm

import (
	"context"
	"fmt"
	"strings"
)

type Settings struct {
	Provider     string // vertex|openai
	GCPProjectID string
	GCPLocation  string
	VertexModel  string
	OpenAIKey    string
	OpenAIModel  string
}

func NewProvider(ctx context.Context, s Settings) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "vertex":
		return NewVertexGemini(ctx, s.GCPProjectID, s.GCPLocation, s.VertexModel)
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai llm: api key is required")
		}
		return NewOpenAIChat(s.OpenAIKey, s.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s. Supported: vertex, openai", s.Provider)
	}
}
