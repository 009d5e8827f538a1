package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of ObjectStore. It backs the
// integration tests and local runs without Google credentials. Signed URLs
// point at a reserved domain and are not fetchable; consumers already
// tolerate that (report cards fall back to a placeholder).
type MemoryStore struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

// Upload stores the object bytes under a generated key.
func (s *MemoryStore) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object data: %w", err)
	}

	key := objectKey(filename)
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return key, nil
}

// SignedURL returns a synthetic URL carrying the key and expiry.
func (s *MemoryStore) SignedURL(key string, validity time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %s does not exist", key)
	}
	return fmt.Sprintf("https://storage.invalid/%s?expires=%d", key, time.Now().Add(validity).Unix()), nil
}

// Delete removes the object, failing when it was never stored. The error
// mirrors a remote store so callers exercise their best-effort handling.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("object %s does not exist", key)
	}
	delete(s.objects, key)
	return nil
}

// Get returns the stored bytes for a key; used by tests.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	return data, ok
}

// Remove drops an object without error checking; used by tests to simulate
// objects removed out-of-band.
func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
}
