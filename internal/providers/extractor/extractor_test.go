package extractor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intake/internal/storage"
)

func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newStoreWithVideo(t *testing.T) (*storage.LocalStore, string) {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ref, err := s.Save(context.Background(), "sess", "q1_video.webm", "video/webm", strings.NewReader("webm"))
	require.NoError(t, err)
	return s, ref
}

func TestExtractStoresAudioNextToVideo(t *testing.T) {
	// copy the input to the last argument, tagging it
	bin := fakeFFmpeg(t, `for last; do :; done
while [ "$1" != "-i" ]; do shift; done
{ printf 'wav:'; cat "$2"; } > "$last"`)
	store, ref := newStoreWithVideo(t)

	ex := NewFFmpegExtractor(bin, store)
	ex.TempDir = t.TempDir()

	audioRef, err := ex.Extract(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "sess/q1_video_audio.wav", audioRef)

	rc, err := store.Open(context.Background(), audioRef)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "wav:webm", string(b))

	entries, err := os.ReadDir(ex.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work dir is removed")
}

func TestExtractReportsToolOutput(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "Invalid data found when processing input" >&2
exit 1`)
	store, ref := newStoreWithVideo(t)

	_, err := NewFFmpegExtractor(bin, store).Extract(context.Background(), ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found when processing input")

	_, err = store.Open(context.Background(), "sess/q1_video_audio.wav")
	assert.Error(t, err)
}

func TestExtractMissingVideo(t *testing.T) {
	bin := fakeFFmpeg(t, "exit 0")
	store, _ := newStoreWithVideo(t)

	_, err := NewFFmpegExtractor(bin, store).Extract(context.Background(), "sess/q2_video.webm")
	assert.Error(t, err)

	_, err = NewFFmpegExtractor(bin, store).Extract(context.Background(), "not-a-ref")
	assert.ErrorIs(t, err, storage.ErrInvalidRef)
}

func TestExtractNoOutputFile(t *testing.T) {
	bin := fakeFFmpeg(t, "exit 0")
	store, ref := newStoreWithVideo(t)

	_, err := NewFFmpegExtractor(bin, store).Extract(context.Background(), ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg produced no audio")
}

func TestAudioName(t *testing.T) {
	assert.Equal(t, "q1_video_audio.wav", AudioName("q1_video.webm"))
	assert.Equal(t, "clip_audio.wav", AudioName("clip"))
}
