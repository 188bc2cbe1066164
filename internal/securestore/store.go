package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/internal/storage/memory"
	"github.com/yndnr/dinekit-go/internal/telemetry/metric"
	"github.com/yndnr/dinekit-go/pkg/crypto/adaptive"
	"github.com/yndnr/dinekit-go/pkg/fingerprint"
)

// keyInfo is the HKDF info string; changing it invalidates every item.
const keyInfo = "dinekit securestore v1"

// Config configures a Store.
type Config struct {
	// Prefix namespaces every key written to a backend.
	// Default: "dinekit_secure_"
	Prefix string `koanf:"prefix"`

	// Salt is the HKDF salt mixed into the key derivation.
	Salt string `koanf:"salt"`

	// Cipher selects the AEAD ("aes-gcm" or "chacha20-poly1305").
	// Default: "aes-gcm"
	Cipher string `koanf:"cipher"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Prefix: "dinekit_secure_",
		Salt:   "dinekit-device-binding",
		Cipher: string(adaptive.CipherAESGCM),
	}
}

// Store is a fingerprint-bound encrypted key/value store.
type Store struct {
	prefix     string
	session    storage.Backend
	persistent storage.Backend

	cipher adaptive.Cipher
	fp     string

	logger  *slog.Logger
	now     func() time.Time
	metrics *metric.Registry
}

// Option configures a Store.
type Option func(*Store)

// WithSessionBackend sets the session-scoped backend.
// Default: an in-memory store.
func WithSessionBackend(b storage.Backend) Option {
	return func(s *Store) { s.session = b }
}

// WithPersistentBackend sets the persistent backend.
// Default: an in-memory store, which does not survive restarts.
func WithPersistentBackend(b storage.Backend) Option {
	return func(s *Store) { s.persistent = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics records operation outcomes in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Store) { s.metrics = r }
}

// New probes the device, derives the encryption key and returns a Store.
//
// It fails only when the fingerprint cannot be probed or the key cannot be
// derived.
func New(ctx context.Context, cfg Config, probe fingerprint.Probe, opts ...Option) (*Store, error) {
	def := DefaultConfig()
	if cfg.Prefix == "" {
		cfg.Prefix = def.Prefix
	}
	if cfg.Cipher == "" {
		cfg.Cipher = def.Cipher
	}

	s := &Store{
		prefix: cfg.Prefix,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.session == nil {
		s.session = memory.New()
	}
	if s.persistent == nil {
		s.persistent = memory.New(memory.WithScope(storage.ScopePersistent))
	}

	fp, err := fingerprint.Compute(ctx, probe)
	if err != nil {
		return nil, ErrFingerprint.WithCause(err)
	}
	s.fp = fp

	key, err := adaptive.DeriveKey([]byte(fp), []byte(cfg.Salt), []byte(keyInfo))
	if err != nil {
		return nil, ErrEncryption.WithCause(err)
	}
	c, err := adaptive.NewWithType(key, adaptive.CipherType(cfg.Cipher))
	if err != nil {
		return nil, ErrEncryption.WithCause(err)
	}
	s.cipher = c

	s.logger = s.logger.With("component", "securestore")
	s.logger.Debug("secure store ready",
		"cipher", c.Type(),
		"session_backend", s.session.Scope(),
		"persistent_backend", s.persistent.Scope())

	return s, nil
}

// Fingerprint returns the device digest the store is bound to.
func (s *Store) Fingerprint() string {
	return s.fp
}

// Prefix returns the key namespace.
func (s *Store) Prefix() string {
	return s.prefix
}

// SetItem serializes value as JSON and stores it encrypted under key.
// A positive ttl sets an absolute expiry. Any copy of key in the other
// backend is removed.
func (s *Store) SetItem(ctx context.Context, key string, value any, policy Policy, ttl time.Duration) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		s.fail(metric.OpSet, key, ErrSerialization.WithCause(err), time.Now())
		return
	}
	s.setRaw(ctx, key, plaintext, policy, ttl)
}

// GetItem decodes the item stored under key into out and reports whether
// it was present and valid. Invalid items are deleted. An out that cannot
// hold the value yields false and leaves the item in place.
func (s *Store) GetItem(ctx context.Context, key string, policy Policy, out any) bool {
	plaintext, ok := s.getRaw(ctx, key, policy)
	if !ok {
		return false
	}
	if !json.Valid(plaintext) {
		s.invalidate(ctx, s.backendFor(policy, key), s.namespaced(key), reasonDecode)
		s.logger.Warn("stored item undecodable", "key", key, "error", ErrSerialization)
		return false
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		s.logger.Warn("stored item does not fit destination", "key", key, "error", ErrSerialization.WithCause(err))
		return false
	}
	return true
}

// RemoveItem deletes key from both backends.
func (s *Store) RemoveItem(ctx context.Context, key string) {
	start := time.Now()
	nk := s.namespaced(key)
	result := metric.ResultOK
	for _, b := range s.backends() {
		if err := b.Delete(ctx, nk); err != nil {
			result = metric.ResultError
			s.logger.Warn("remove failed", "key", key, "backend", b.Scope(), "error", ErrBackendUnavailable.WithCause(err))
		}
	}
	s.metrics.RecordStoreOp(metric.OpRemove, result, time.Since(start).Seconds())
}

// Clear deletes every prefixed key from both backends. Keys outside the
// prefix are left alone.
func (s *Store) Clear(ctx context.Context) {
	start := time.Now()
	result := metric.ResultOK
	removed := 0
	for _, b := range s.backends() {
		keys, err := b.Keys(ctx, s.prefix)
		if err != nil {
			result = metric.ResultError
			s.logger.Warn("clear: list failed", "backend", b.Scope(), "error", ErrBackendUnavailable.WithCause(err))
			continue
		}
		for _, k := range keys {
			if err := b.Delete(ctx, k); err != nil {
				result = metric.ResultError
				s.logger.Warn("clear: delete failed", "key", k, "error", ErrBackendUnavailable.WithCause(err))
				continue
			}
			removed++
		}
	}
	s.logger.Debug("store cleared", "removed", removed)
	s.metrics.RecordStoreOp(metric.OpClear, result, time.Since(start).Seconds())
}

// Keys returns the logical keys present in either backend, sorted.
// Presence is not validity: an expired item is listed until it is read or
// purged.
func (s *Store) Keys(ctx context.Context) []string {
	seen := make(map[string]struct{})
	for _, b := range s.backends() {
		keys, err := b.Keys(ctx, s.prefix)
		if err != nil {
			s.logger.Warn("list failed", "backend", b.Scope(), "error", ErrBackendUnavailable.WithCause(err))
			continue
		}
		for _, k := range keys {
			seen[strings.TrimPrefix(k, s.prefix)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Purge deletes every prefixed item that is expired, bound to another
// device, or cannot be decrypted. It returns the number removed.
func (s *Store) Purge(ctx context.Context) int {
	start := time.Now()
	now := s.now()
	removed := 0
	for _, b := range s.backends() {
		keys, err := b.Keys(ctx, s.prefix)
		if err != nil {
			s.logger.Warn("purge: list failed", "backend", b.Scope(), "error", ErrBackendUnavailable.WithCause(err))
			continue
		}
		for _, k := range keys {
			raw, err := b.Get(ctx, k)
			if err != nil {
				continue
			}
			reason := s.check(raw, k, now)
			if reason == "" {
				continue
			}
			s.invalidate(ctx, b, k, reason)
			removed++
		}
	}
	s.logger.Info("purge completed", "removed", removed)
	s.metrics.RecordStoreOp(metric.OpPurge, metric.ResultOK, time.Since(start).Seconds())
	return removed
}

// setRaw encrypts plaintext and writes the envelope. It reports whether
// the write reached the backend.
func (s *Store) setRaw(ctx context.Context, key string, plaintext []byte, policy Policy, ttl time.Duration) bool {
	start := time.Now()
	nk := s.namespaced(key)

	sealed, err := adaptive.Seal(s.cipher, plaintext, []byte(nk))
	if err != nil {
		s.fail(metric.OpSet, key, ErrEncryption.WithCause(err), start)
		return false
	}

	env := envelope{
		Version:     envelopeVersion,
		Ciphertext:  sealed,
		Fingerprint: s.fp,
	}
	if ttl > 0 {
		env.Expiry = s.now().Add(ttl).UnixMilli()
	}
	raw, err := json.Marshal(env)
	if err != nil {
		s.fail(metric.OpSet, key, ErrSerialization.WithCause(err), start)
		return false
	}

	target := s.backendFor(policy, key)
	if err := target.Set(ctx, nk, raw); err != nil {
		s.fail(metric.OpSet, key, ErrBackendUnavailable.WithCause(err), start)
		return false
	}

	other := s.persistent
	if target == s.persistent {
		other = s.session
	}
	if err := other.Delete(ctx, nk); err != nil {
		s.logger.Debug("stale copy not removed", "key", key, "backend", other.Scope(), "error", err)
	}

	s.metrics.RecordStoreOp(metric.OpSet, metric.ResultOK, time.Since(start).Seconds())
	return true
}

// getRaw returns the decrypted plaintext of a valid item.
func (s *Store) getRaw(ctx context.Context, key string, policy Policy) ([]byte, bool) {
	start := time.Now()
	nk := s.namespaced(key)
	b := s.backendFor(policy, key)

	raw, err := b.Get(ctx, nk)
	if errors.Is(err, storage.ErrKeyNotFound) {
		s.metrics.RecordStoreOp(metric.OpGet, metric.ResultMiss, time.Since(start).Seconds())
		return nil, false
	}
	if err != nil {
		s.fail(metric.OpGet, key, ErrBackendUnavailable.WithCause(err), start)
		return nil, false
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		s.invalidate(ctx, b, nk, reasonCorrupt)
		s.metrics.RecordStoreOp(metric.OpGet, metric.ResultInvalid, time.Since(start).Seconds())
		return nil, false
	}
	if reason := env.invalidReason(s.now(), s.fp); reason != "" {
		s.invalidate(ctx, b, nk, reason)
		s.metrics.RecordStoreOp(metric.OpGet, metric.ResultInvalid, time.Since(start).Seconds())
		return nil, false
	}

	plaintext, err := adaptive.Open(s.cipher, env.Ciphertext, []byte(nk))
	if err != nil || len(plaintext) == 0 {
		if err == nil {
			err = errors.New("empty plaintext")
		}
		s.logger.Warn("stored item unreadable", "key", key, "error", ErrDecryption.WithCause(err))
		s.invalidate(ctx, b, nk, reasonDecryption)
		s.metrics.RecordStoreOp(metric.OpGet, metric.ResultInvalid, time.Since(start).Seconds())
		return nil, false
	}

	s.metrics.RecordStoreOp(metric.OpGet, metric.ResultOK, time.Since(start).Seconds())
	return plaintext, true
}

// check returns the invalidation reason for a raw envelope stored at the
// namespaced key nk, or "" when it would be served.
func (s *Store) check(raw []byte, nk string, now time.Time) string {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return reasonCorrupt
	}
	if reason := env.invalidReason(now, s.fp); reason != "" {
		return reason
	}
	if pt, err := adaptive.Open(s.cipher, env.Ciphertext, []byte(nk)); err != nil || len(pt) == 0 {
		return reasonDecryption
	}
	return ""
}

func (s *Store) invalidate(ctx context.Context, b storage.Backend, nk, reason string) {
	if err := b.Delete(ctx, nk); err != nil {
		s.logger.Warn("invalid item not removed", "key", nk, "reason", reason, "error", err)
	}
	s.logger.Debug("stored item invalidated", "key", nk, "reason", reason)
	s.metrics.RecordInvalidation(reason)
}

func (s *Store) fail(op, key string, err error, start time.Time) {
	s.logger.Warn("store operation failed", "op", op, "key", key, "error", err)
	s.metrics.RecordStoreOp(op, metric.ResultError, time.Since(start).Seconds())
}

func (s *Store) namespaced(key string) string {
	return s.prefix + key
}

func (s *Store) backendFor(policy Policy, key string) storage.Backend {
	if policy.Scope(key) == storage.ScopeSession {
		return s.session
	}
	return s.persistent
}

func (s *Store) backends() []storage.Backend {
	return []storage.Backend{s.session, s.persistent}
}
