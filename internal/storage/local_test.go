package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	ref, err := s.Save(ctx, "sess", "q1_video.webm", "video/webm", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "sess/q1_video.webm", ref)

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "data", string(b))

	require.NoError(t, s.Delete(ctx, ref))
	require.NoError(t, s.Delete(ctx, ref), "deleting a missing artifact is fine")

	_, err = s.Open(ctx, ref)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalStorePurge(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	_, err = s.Save(ctx, "a", "one.wav", "", strings.NewReader("1"))
	require.NoError(t, err)
	_, err = s.Save(ctx, "b", "two.wav", "", strings.NewReader("2"))
	require.NoError(t, err)

	require.NoError(t, s.Purge(ctx, "a"))
	require.NoError(t, s.Purge(ctx, "a"))

	_, err = os.Stat(filepath.Join(root, "a"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "b", "two.wav"))
	assert.NoError(t, err)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, "..", "x", "", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidRef)
	_, err = s.Open(ctx, "a/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidRef)
	assert.ErrorIs(t, s.Delete(ctx, "noslash"), ErrInvalidRef)
	assert.ErrorIs(t, s.Purge(ctx, ""), ErrInvalidRef)
}

func TestSplitRef(t *testing.T) {
	sid, name, ok := SplitRef("sess/q2_video.webm")
	assert.True(t, ok)
	assert.Equal(t, "sess", sid)
	assert.Equal(t, "q2_video.webm", name)

	for _, bad := range []string{"", "a", "a/b/c", "../x", "a/.."} {
		_, _, ok := SplitRef(bad)
		assert.False(t, ok, bad)
	}
}
