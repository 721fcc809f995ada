package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStorage is an in-memory ObjectStorage implementation for tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		buckets: make(map[string]map[string][]byte),
	}
}

// Put places a blob under bucket/key, creating the bucket if needed.
func (s *MemoryStorage) Put(bucket, key string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string][]byte)
	}
	s.buckets[bucket][key] = content
}

// Remove deletes a blob if present.
func (s *MemoryStorage) Remove(bucket, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if objects := s.buckets[bucket]; objects != nil {
		delete(objects, key)
	}
}

// Exists reports whether the key exists in the bucket.
func (s *MemoryStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return false, nil
	}
	_, ok = objects[key]
	return ok, nil
}

// PresignedDownloadURL returns a deterministic fake URL for an existing key.
func (s *MemoryStorage) PresignedDownloadURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	return fmt.Sprintf("https://storage.test/%s/%s?expires=%d", bucket, key, int64(ttl.Seconds())), nil
}

// BucketExists reports whether the bucket exists.
func (s *MemoryStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.buckets[bucket]
	return ok, nil
}

// CreateBucket creates the bucket if absent.
func (s *MemoryStorage) CreateBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}
