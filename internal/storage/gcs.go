package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore keeps artifacts as private objects <prefix><session_id>/<name>.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Save(ctx context.Context, sessionID, name, contentType string, r io.Reader) (string, error) {
	ref, err := objectKey(sessionID, name)
	if err != nil {
		return "", err
	}

	w := s.object(ref).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *GCSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return s.object(ref).NewReader(ctx)
}

func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	err := s.object(ref).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) Purge(ctx context.Context, sessionID string) error {
	if !validSegment(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, sessionID)
	}

	bkt := s.client.Bucket(s.bucket)
	it := bkt.Objects(ctx, &gcs.Query{Prefix: s.prefix + sessionID + "/"})

	var errs []error
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if err := bkt.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *GCSStore) object(ref string) *gcs.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + ref)
}
