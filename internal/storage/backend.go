package storage

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("backend closed")

	// ErrQuotaExceeded is returned by Set when the write would grow the
	// backend past its configured capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Scope identifies the lifetime of a backend's data.
type Scope int

const (
	// ScopeSession data is discarded when the client session ends.
	ScopeSession Scope = iota
	// ScopePersistent data survives client restarts.
	ScopePersistent
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopePersistent:
		return "persistent"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Backend is a string-keyed byte store.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Scope reports the lifetime of stored data.
	Scope() Scope

	// Close releases backend resources.
	Close() error
}

// WithScope reports b's data under a different scope. The CLI uses it to
// run a disk backend in a per-login runtime directory as its session store.
func WithScope(b Backend, scope Scope) Backend {
	return &scopedBackend{Backend: b, scope: scope}
}

type scopedBackend struct {
	Backend
	scope Scope
}

func (s *scopedBackend) Scope() Scope { return s.scope }
