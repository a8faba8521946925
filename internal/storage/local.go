package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps artifacts under root/<session_id>/.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(ctx context.Context, sessionID, name, _ string, r io.Reader) (string, error) {
	ref, err := objectKey(sessionID, name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := s.path(ref)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	// write to a temp file first so a failed upload never leaves a partial artifact
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+name+".*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return ref, nil
}

func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return os.Open(s.path(ref))
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if !validRef(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if err := os.Remove(s.path(ref)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Purge(_ context.Context, sessionID string) error {
	if !validSegment(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, sessionID)
	}
	return os.RemoveAll(filepath.Join(s.root, sessionID))
}

func (s *LocalStore) path(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(ref))
}
