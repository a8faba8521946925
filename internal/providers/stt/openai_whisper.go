package stt

import (
	"bytes"
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIWhisper struct {
	client *openai.Client
	model  string
}

func NewOpenAIWhisper(apiKey, model string) *OpenAIWhisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIWhisper{client: openai.NewClient(apiKey), model: model}
}

func (w *OpenAIWhisper) Name() string { return "openai" }

func (w *OpenAIWhisper) Close() error { return nil }

func (w *OpenAIWhisper) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "answer.wav", // only the extension is used, to pick the decoder
		Reader:   bytes.NewReader(audio),
		Language: isoLanguage(language),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", 0, err
	}
	// whisper has no confidence score
	return strings.TrimSpace(resp.Text), 0, nil
}

// isoLanguage reduces a BCP-47 tag ("en-US") to the ISO-639-1 code whisper
// expects ("en").
func isoLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
