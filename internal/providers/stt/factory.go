package stt

import (
	"context"
	"fmt"
	"strings"
)

// Settings selects and configures the single active provider.
type Settings struct {
	Provider    string // google|openai
	OpenAIKey   string
	OpenAIModel string
}

func NewProvider(ctx context.Context, s Settings) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "google":
		return NewGoogleSpeech(ctx)
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai stt: api key is required")
		}
		return NewOpenAIWhisper(s.OpenAIKey, s.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s. Supported: google, openai", s.Provider)
	}
}
