package stt

import (
	"context"
	"fmt"
	"io"

	"github.com/yoockh/intake/internal/storage"
)

// Provider turns raw audio into text. Silent audio yields "" and no error.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Name() string
	Close() error
}

// Transcriber transcribes a stored audio artifact.
type Transcriber interface {
	Transcribe(ctx context.Context, audioRef string) (string, error)
}

// maxAudioBytes bounds how much of an artifact is read into memory.
const maxAudioBytes = 25 << 20

// ArtifactTranscriber reads audio artifacts from a store and hands them to
// the configured provider.
type ArtifactTranscriber struct {
	Store    storage.ArtifactStore
	Provider Provider
	Language string
}

func (t *ArtifactTranscriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	rc, err := t.Store.Open(ctx, audioRef)
	if err != nil {
		return "", fmt.Errorf("open audio artifact: %w", err)
	}
	defer rc.Close()

	audio, err := io.ReadAll(io.LimitReader(rc, maxAudioBytes+1))
	if err != nil {
		return "", fmt.Errorf("read audio artifact: %w", err)
	}
	if len(audio) > maxAudioBytes {
		return "", fmt.Errorf("audio artifact exceeds %d bytes", maxAudioBytes)
	}

	text, _, err := t.Provider.Transcribe(ctx, audio, t.Language)
	if err != nil {
		return "", fmt.Errorf("%s stt: %w", t.Provider.Name(), err)
	}
	return text, nil
}
