package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ArtifactStore holds the ephemeral per-session files (recorded video,
// extracted audio). A ref is the opaque key returned by Save.
type ArtifactStore interface {
	Save(ctx context.Context, sessionID, name, contentType string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete removes one artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, ref string) error
	// Purge removes everything stored for the session.
	Purge(ctx context.Context, sessionID string) error
}

var ErrInvalidRef = errors.New("invalid artifact reference")

func objectKey(sessionID, name string) (string, error) {
	if !validSegment(sessionID) || !validSegment(name) {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidRef, sessionID, name)
	}
	return sessionID + "/" + name, nil
}

func validRef(ref string) bool {
	parts := strings.Split(ref, "/")
	if len(parts) != 2 {
		return false
	}
	return validSegment(parts[0]) && validSegment(parts[1])
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// SplitRef returns the session id and artifact name encoded in ref.
func SplitRef(ref string) (sessionID, name string, ok bool) {
	if !validRef(ref) {
		return "", "", false
	}
	sessionID, name, _ = strings.Cut(ref, "/")
	return sessionID, name, true
}
