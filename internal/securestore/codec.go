package securestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yndnr/dinekit-go/internal/telemetry/metric"
)

// Codec converts values of T to and from the plaintext that gets encrypted.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSONCodec encodes values with encoding/json.
type JSONCodec[T any] struct{}

// Marshal implements Codec.
func (JSONCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Codec.
func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// Typed is a view of a Store holding values of a single type.
type Typed[T any] struct {
	store *Store
	codec Codec[T]
}

// NewTyped returns a typed view of s using codec.
func NewTyped[T any](s *Store, codec Codec[T]) Typed[T] {
	return Typed[T]{store: s, codec: codec}
}

// Set encodes v and stores it under key.
func (t Typed[T]) Set(ctx context.Context, key string, v T, policy Policy, ttl time.Duration) {
	plaintext, err := t.codec.Marshal(v)
	if err != nil {
		t.store.fail(metric.OpSet, key, ErrSerialization.WithCause(err), time.Now())
		return
	}
	t.store.setRaw(ctx, key, plaintext, policy, ttl)
}

// Get returns the value stored under key and whether it was present and
// valid. A value the codec cannot decode is deleted.
func (t Typed[T]) Get(ctx context.Context, key string, policy Policy) (T, bool) {
	var zero T
	plaintext, ok := t.store.getRaw(ctx, key, policy)
	if !ok {
		return zero, false
	}
	v, err := t.codec.Unmarshal(plaintext)
	if err != nil {
		t.store.invalidate(ctx, t.store.backendFor(policy, key), t.store.namespaced(key), reasonDecode)
		t.store.logger.Warn("stored item undecodable", "key", key, "error", ErrSerialization.WithCause(err))
		return zero, false
	}
	return v, true
}

// Set stores v under key using the JSON codec.
func Set[T any](ctx context.Context, s *Store, key string, v T, policy Policy, ttl time.Duration) {
	NewTyped[T](s, JSONCodec[T]{}).Set(ctx, key, v, policy, ttl)
}

// Get reads the value under key using the JSON codec.
func Get[T any](ctx context.Context, s *Store, key string, policy Policy) (T, bool) {
	return NewTyped[T](s, JSONCodec[T]{}).Get(ctx, key, policy)
}
