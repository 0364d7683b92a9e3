// Package memory implements an in-memory blob Store for tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"m3c/internal/blob/core"
)

// Store implements core.Store backed by process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string]core.Info
}

// New returns an in-memory blob store.
func New() *Store { return &Store{objs: make(map[string]core.Info)} }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put records a new blob; errors if key exists. Only the size of the
// content is kept.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return core.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	info := core.Info{Key: key, Size: n, ContentType: opts.ContentType, LastModified: time.Now().UTC()}
	s.objs[key] = info
	return info, nil
}

// Head returns blob metadata.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	s.mu.RLock()
	info, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return info, nil
}
