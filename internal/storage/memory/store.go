package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/pkg/cmap"
)

// DefaultMaxBytes matches the common 5MB per-origin browser storage limit.
const DefaultMaxBytes = 5 << 20

// Store is an in-memory storage.Backend.
type Store struct {
	items *cmap.Map[[]byte]

	maxBytes int64
	scope    storage.Scope

	// mu guards usage for quota accounting across shards.
	mu    sync.Mutex
	usage int64

	closed atomic.Bool
}

var _ storage.Backend = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithMaxBytes sets the byte quota (keys plus values). Zero disables it.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		s.maxBytes = n
	}
}

// WithScope overrides the reported scope. Tests use a memory store as a
// stand-in persistent backend.
func WithScope(scope storage.Scope) Option {
	return func(s *Store) {
		s.scope = scope
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		items:    cmap.New[[]byte](),
		maxBytes: DefaultMaxBytes,
		scope:    storage.ScopeSession,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scope implements storage.Backend.
func (s *Store) Scope() storage.Scope { return s.scope }

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	v, ok := s.items.Get(key)
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delta := int64(len(key) + len(value))
	if old, ok := s.items.Get(key); ok {
		delta -= int64(len(key) + len(old))
	}
	if s.maxBytes > 0 && s.usage+delta > s.maxBytes {
		return storage.ErrQuotaExceeded
	}

	s.items.Set(key, append([]byte(nil), value...))
	s.usage += delta
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items.Pop(key); ok {
		s.usage -= int64(len(key) + len(old))
	}
	return nil
}

// Keys returns every key starting with prefix.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	return s.items.KeysWithPrefix(prefix), nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// Usage returns the bytes counted against the quota.
func (s *Store) Usage() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Close drops all data. The session ends with the store.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return storage.ErrClosed
	}
	s.mu.Lock()
	s.items.Clear()
	s.usage = 0
	s.mu.Unlock()
	return nil
}
