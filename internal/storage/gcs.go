package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSStore is a Google Cloud Storage implementation of ObjectStore.
type GCSStore struct {
	bucket *gcs.BucketHandle
}

// NewGCSStore creates a new GCSStore for the named bucket.
func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{
		bucket: client.Bucket(bucket),
	}
}

// Upload writes the object under a generated key and returns that key.
func (s *GCSStore) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	key := objectKey(filename)

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	return key, nil
}

// SignedURL issues a V4 signed GET URL for the object. Buckets with uniform
// bucket-level access cannot serve public objects, so signed URLs are the
// only retrieval path.
func (s *GCSStore) SignedURL(key string, validity time.Duration) (string, error) {
	url, err := s.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(validity),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for object %s: %w", key, err)
	}
	return url, nil
}

// Delete removes the object. A missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
