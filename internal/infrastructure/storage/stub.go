package storage

import (
	"context"
	"strings"
	"sync"

	photoapp "github.com/ordertrack/backend/internal/application/photo"
)

// StaticObjectStorage serves a fixed in-memory listing.
// Use it in development when no bucket is configured, and in tests.
type StaticObjectStorage struct {
	// BaseURL prefixes public object URLs
	// Defaults to "https://storage.example.com" if not set
	BaseURL string

	mu    sync.RWMutex
	names []string
	err   error
	calls int
}

// NewStaticObjectStorage creates a StaticObjectStorage holding names
func NewStaticObjectStorage(baseURL string, names ...string) *StaticObjectStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &StaticObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		names:   append([]string(nil), names...),
	}
}

// Ensure StaticObjectStorage implements ObjectLister
var _ photoapp.ObjectLister = (*StaticObjectStorage)(nil)

// ListObjectNames returns up to limit stored names
func (s *StaticObjectStorage) ListObjectNames(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	names := s.names
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return append([]string(nil), names...), nil
}

// PublicURL returns BaseURL/name
func (s *StaticObjectStorage) PublicURL(name string) string {
	return publicObjectURL(s.BaseURL, name)
}

// SetNames replaces the listing
func (s *StaticObjectStorage) SetNames(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append([]string(nil), names...)
}

// SetError makes every listing fail with err; nil clears it
func (s *StaticObjectStorage) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ListCalls returns how many listings were served
func (s *StaticObjectStorage) ListCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}
