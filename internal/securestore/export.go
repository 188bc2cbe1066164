package securestore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/pkg/crypto/adaptive"
)

// Item is a decrypted entry, detached from the device it was stored on.
type Item struct {
	Key       string          `json:"key"`
	Scope     string          `json:"scope"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at,omitzero"`
}

// Export returns every valid item in both backends, decrypted. Invalid
// items are skipped and left for GetItem or Purge to remove.
func (s *Store) Export(ctx context.Context) ([]Item, error) {
	now := s.now()
	var items []Item
	for _, b := range s.backends() {
		keys, err := b.Keys(ctx, s.prefix)
		if err != nil {
			return nil, ErrBackendUnavailable.WithCause(err)
		}
		for _, nk := range keys {
			raw, err := b.Get(ctx, nk)
			if err != nil {
				continue
			}
			env, err := decodeEnvelope(raw)
			if err != nil || env.invalidReason(now, s.fp) != "" {
				continue
			}
			pt, err := adaptive.Open(s.cipher, env.Ciphertext, []byte(nk))
			if err != nil || !json.Valid(pt) {
				continue
			}
			it := Item{
				Key:   strings.TrimPrefix(nk, s.prefix),
				Scope: b.Scope().String(),
				Value: pt,
			}
			if env.Expiry != 0 {
				it.ExpiresAt = time.UnixMilli(env.Expiry)
			}
			items = append(items, it)
		}
	}
	return items, nil
}

// Import seals items for this device, keeping their scope and remaining
// lifetime. Items already expired, empty or not JSON are skipped. It
// returns the number the backends accepted.
func (s *Store) Import(ctx context.Context, items []Item) int {
	now := s.now()
	n := 0
	for _, it := range items {
		if it.Key == "" || len(it.Value) == 0 || !json.Valid(it.Value) {
			continue
		}
		var ttl time.Duration
		if !it.ExpiresAt.IsZero() {
			ttl = it.ExpiresAt.Sub(now)
			if ttl <= 0 {
				continue
			}
		}
		policy := PolicyPersistent
		if it.Scope == storage.ScopeSession.String() {
			policy = PolicySession
		}
		if s.setRaw(ctx, it.Key, it.Value, policy, ttl) {
			n++
		}
	}
	s.logger.Info("items imported", "count", n, "skipped", len(items)-n)
	return n
}
