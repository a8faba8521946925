package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/yoockh/intake/internal/storage"
)

// Extractor turns a stored video artifact into a stored audio artifact.
type Extractor interface {
	Extract(ctx context.Context, videoRef string) (audioRef string, err error)
}

// FFmpegExtractor runs ffmpeg on a local copy of the video and stores the
// resulting 16 kHz mono WAV next to it as "<base>_audio.wav".
type FFmpegExtractor struct {
	Binary string
	Store  storage.ArtifactStore
	// TempDir defaults to os.TempDir().
	TempDir string
}

func NewFFmpegExtractor(binary string, store storage.ArtifactStore) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{Binary: binary, Store: store}
}

func (e *FFmpegExtractor) Extract(ctx context.Context, videoRef string) (string, error) {
	sessionID, name, ok := storage.SplitRef(videoRef)
	if !ok {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidRef, videoRef)
	}

	work, err := os.MkdirTemp(e.TempDir, "extract-*")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	src := filepath.Join(work, name)
	if err := e.download(ctx, videoRef, src); err != nil {
		return "", err
	}

	audioName := AudioName(name)
	dest := filepath.Join(work, audioName)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := exec.CommandContext(ctx, e.Binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return "", fmt.Errorf("ffmpeg extract: %w", err)
		}
		return "", fmt.Errorf("ffmpeg extract: %w: %s", err, msg)
	}

	f, err := os.Open(dest)
	if err != nil {
		return "", fmt.Errorf("ffmpeg produced no audio: %w", err)
	}
	defer f.Close()

	audioRef, err := e.Store.Save(ctx, sessionID, audioName, "audio/wav", f)
	if err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}
	return audioRef, nil
}

func (e *FFmpegExtractor) download(ctx context.Context, ref, dest string) error {
	rc, err := e.Store.Open(ctx, ref)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create temp video: %w", err)
	}
	_, copyErr := io.Copy(f, rc)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return fmt.Errorf("copy video: %w", err)
	}
	return nil
}

// AudioName derives the audio artifact name from a video name:
// "q1_video.webm" -> "q1_video_audio.wav".
func AudioName(videoName string) string {
	base := strings.TrimSuffix(videoName, filepath.Ext(videoName))
	return base + "_audio.wav"
}
