package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore defines the interface for the image object store.
//
// Upload stores the object and returns its key. SignedURL issues a
// time-limited, credential-less retrieval URL for a stored object; the URL
// may expire before the record referencing it is deleted, so consumers must
// tolerate fetch failures. Delete removes a stored object; callers treat it
// as best-effort and swallow errors.
type ObjectStore interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	SignedURL(key string, validity time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// objectKey builds a collision-free object key for an uploaded image,
// keeping the original filename for readability.
func objectKey(filename string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "products/" + id + "_" + filepath.Base(filename)
}
