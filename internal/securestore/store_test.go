package securestore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/internal/storage/memory"
	"github.com/yndnr/dinekit-go/internal/telemetry/metric"
	"github.com/yndnr/dinekit-go/pkg/fingerprint"
)

var deviceA = fingerprint.StaticProbe{
	Render:    "canvas-a",
	UserAgent: "dinekit/test (linux; amd64)",
	Locale:    "en_US.UTF-8",
	Screen:    "120x40",
	Timezone:  "UTC+0",
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store      *Store
	session    *memory.Store
	persistent *memory.Store
	clock      *fakeClock
}

func newFixture(t *testing.T, probe fingerprint.Probe, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		session:    memory.New(),
		persistent: memory.New(memory.WithScope(storage.ScopePersistent)),
		clock:      newFakeClock(),
	}
	f.store = f.reopen(t, probe, opts...)
	return f
}

// reopen builds a new Store over the same backends and clock.
func (f *fixture) reopen(t *testing.T, probe fingerprint.Probe, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithSessionBackend(f.session),
		WithPersistentBackend(f.persistent),
		WithClock(f.clock.Now),
	}
	s, err := New(context.Background(), DefaultConfig(), probe, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func has(t *testing.T, b storage.Backend, key string) bool {
	t.Helper()
	_, err := b.Get(context.Background(), key)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("backend Get(%s) error = %v", key, err)
	}
	return err == nil
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	type cart struct {
		Items []string `json:"items"`
		Total float64  `json:"total"`
	}

	tests := []struct {
		name   string
		policy Policy
		value  any
		out    func() any
	}{
		{"string session", PolicySession, "hello", func() any { return new(string) }},
		{"number persistent", PolicyPersistent, 42.5, func() any { return new(float64) }},
		{"struct persistent", PolicyPersistent, cart{Items: []string{"soup"}, Total: 7}, func() any { return new(cart) }},
		{"map auto", PolicyAuto, map[string]int{"a": 1}, func() any { return new(map[string]int) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.store.SetItem(ctx, "item", tt.value, tt.policy, 0)

			out := tt.out()
			if !f.store.GetItem(ctx, "item", tt.policy, out) {
				t.Fatal("GetItem() = false, want true")
			}
			switch got := out.(type) {
			case *string:
				if *got != tt.value {
					t.Errorf("got %v, want %v", *got, tt.value)
				}
			case *float64:
				if *got != tt.value {
					t.Errorf("got %v, want %v", *got, tt.value)
				}
			case *cart:
				want := tt.value.(cart)
				if len(got.Items) != 1 || got.Items[0] != want.Items[0] || got.Total != want.Total {
					t.Errorf("got %+v, want %+v", *got, want)
				}
			case *map[string]int:
				if (*got)["a"] != 1 {
					t.Errorf("got %v", *got)
				}
			}
		})
	}
}

func TestStore_GetItemWrongDestinationKeepsItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	f.store.SetItem(ctx, "cart", map[string]int{"m1": 2}, PolicyPersistent, 0)

	var n int
	tests := []struct {
		name string
		out  any
	}{
		{"nil", nil},
		{"non-pointer", n},
		{"mismatched type", &n},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f.store.GetItem(ctx, "cart", PolicyPersistent, tt.out) {
				t.Fatal("GetItem() = true")
			}
			if !has(t, f.persistent, "dinekit_secure_cart") {
				t.Fatal("valid item deleted")
			}
		})
	}

	var cart map[string]int
	if !f.store.GetItem(ctx, "cart", PolicyPersistent, &cart) || cart["m1"] != 2 {
		t.Errorf("cart = %v after failed reads", cart)
	}
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"before expiry", 59 * time.Minute, true},
		{"at expiry", 60 * time.Minute, false},
		{"after expiry", 61 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, deviceA)
			f.store.SetItem(ctx, "auth_token", "tok", PolicyAuto, 60*time.Minute)

			f.clock.Advance(tt.elapsed)

			var got string
			if ok := f.store.GetItem(ctx, "auth_token", PolicyAuto, &got); ok != tt.want {
				t.Fatalf("GetItem() = %v, want %v", ok, tt.want)
			}
			if stored := has(t, f.session, "dinekit_secure_auth_token"); stored != tt.want {
				t.Errorf("entry present = %v, want %v", stored, tt.want)
			}
		})
	}
}

func TestStore_NoExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "prefs", "dark", PolicyPersistent, 0)
	f.clock.Advance(365 * 24 * time.Hour)

	var got string
	if !f.store.GetItem(ctx, "prefs", PolicyPersistent, &got) || got != "dark" {
		t.Errorf("GetItem() = %q, want dark", got)
	}
}

func TestStore_FingerprintChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	f.store.SetItem(ctx, "user_data", map[string]string{"id": "u1"}, PolicyPersistent, time.Hour)

	deviceB := deviceA
	deviceB.Screen = "80x24"
	other := f.reopen(t, deviceB)

	if other.Fingerprint() == f.store.Fingerprint() {
		t.Fatal("fingerprints should differ")
	}

	var got map[string]string
	if other.GetItem(ctx, "user_data", PolicyPersistent, &got) {
		t.Fatal("GetItem() on another device = true, want false")
	}
	if has(t, f.persistent, "dinekit_secure_user_data") {
		t.Error("foreign-device entry was not removed")
	}

	// The original device also finds nothing now.
	if f.store.GetItem(ctx, "user_data", PolicyPersistent, &got) {
		t.Error("entry should stay deleted")
	}
}

func TestStore_SameDeviceNewStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	f.store.SetItem(ctx, "k", "v", PolicyPersistent, 0)

	again := f.reopen(t, deviceA)
	var got string
	if !again.GetItem(ctx, "k", PolicyPersistent, &got) || got != "v" {
		t.Errorf("GetItem() after reopen = %q", got)
	}
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "k", "v", PolicySession, 0)
	f.store.RemoveItem(ctx, "k")
	f.store.RemoveItem(ctx, "k") // idempotent

	var got string
	if f.store.GetItem(ctx, "k", PolicySession, &got) {
		t.Error("GetItem() after RemoveItem = true")
	}
}

func TestStore_ClearOnlyPrefixed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "a", 1, PolicySession, 0)
	f.store.SetItem(ctx, "b", 2, PolicyPersistent, 0)
	if err := f.persistent.Set(ctx, "theme", []byte("dark")); err != nil {
		t.Fatal(err)
	}
	if err := f.session.Set(ctx, "other_app_token", []byte("x")); err != nil {
		t.Fatal(err)
	}

	f.store.Clear(ctx)

	if keys := f.store.Keys(ctx); len(keys) != 0 {
		t.Errorf("Keys() after Clear = %v", keys)
	}
	if !has(t, f.persistent, "theme") || !has(t, f.session, "other_app_token") {
		t.Error("Clear removed unprefixed keys")
	}
}

func TestStore_SetItemMovesBetweenBackends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "k", "one", PolicySession, 0)
	f.store.SetItem(ctx, "k", "two", PolicyPersistent, 0)

	if has(t, f.session, "dinekit_secure_k") {
		t.Error("session copy should be removed")
	}
	if !has(t, f.persistent, "dinekit_secure_k") {
		t.Error("persistent copy missing")
	}
}

func TestStore_EnvelopeBoundToKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "role", "waiter", PolicyPersistent, 0)
	raw, err := f.persistent.Get(ctx, "dinekit_secure_role")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.persistent.Set(ctx, "dinekit_secure_admin", raw); err != nil {
		t.Fatal(err)
	}

	var got string
	if f.store.GetItem(ctx, "admin", PolicyPersistent, &got) {
		t.Fatal("envelope copied to another key should not open")
	}
	if has(t, f.persistent, "dinekit_secure_admin") {
		t.Error("transplanted envelope was not removed")
	}
}

func TestStore_InvalidEnvelopes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "garbage"},
		{"future version", `{"v":2,"c":"AAAA"}`},
		{"missing ciphertext", `{"v":1}`},
		{"bad base64", `{"v":1,"c":"!!!"}`},
		{"wrong key", `{"v":1,"c":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, deviceA)
			if err := f.persistent.Set(ctx, "dinekit_secure_x", []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}

			var got any
			if f.store.GetItem(ctx, "x", PolicyPersistent, &got) {
				t.Fatal("GetItem() = true for invalid envelope")
			}
			if has(t, f.persistent, "dinekit_secure_x") {
				t.Error("invalid envelope was not removed")
			}
		})
	}
}

func TestStore_Unserializable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "ch", make(chan int), PolicyPersistent, 0)

	if keys := f.store.Keys(ctx); len(keys) != 0 {
		t.Errorf("Keys() = %v, want none", keys)
	}
}

func TestStore_BackendUnavailable(t *testing.T) {
	ctx := context.Background()
	f := &fixture{
		session:    memory.New(memory.WithMaxBytes(16)),
		persistent: memory.New(memory.WithScope(storage.ScopePersistent)),
		clock:      newFakeClock(),
	}
	f.store = f.reopen(t, deviceA)

	f.store.SetItem(ctx, "auth_token", strings.Repeat("x", 64), PolicySession, 0)

	var got string
	if f.store.GetItem(ctx, "auth_token", PolicySession, &got) {
		t.Error("GetItem() = true after rejected write")
	}

	f.session.Close()
	if f.store.GetItem(ctx, "auth_token", PolicySession, &got) {
		t.Error("GetItem() = true on closed backend")
	}
}

func TestStore_KeysAndPurge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)

	f.store.SetItem(ctx, "fresh", 1, PolicyPersistent, 2*time.Hour)
	f.store.SetItem(ctx, "stale", 2, PolicySession, time.Minute)
	f.store.SetItem(ctx, "forever", 3, PolicyPersistent, 0)
	if err := f.persistent.Set(ctx, "dinekit_secure_broken", []byte("{")); err != nil {
		t.Fatal(err)
	}

	want := []string{"broken", "forever", "fresh", "stale"}
	got := f.store.Keys(ctx)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	f.clock.Advance(time.Hour)

	if n := f.store.Purge(ctx); n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	want = []string{"forever", "fresh"}
	if got := f.store.Keys(ctx); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Keys() after purge = %v, want %v", got, want)
	}
}

func TestStore_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := metric.NewRegistry()
	f := newFixture(t, deviceA, WithMetrics(reg))

	f.store.SetItem(ctx, "k", "v", PolicySession, time.Minute)
	var got string
	f.store.GetItem(ctx, "missing", PolicySession, &got)
	f.clock.Advance(2 * time.Minute)
	f.store.GetItem(ctx, "k", PolicySession, &got)

	if v := testutil.ToFloat64(reg.StoreOps.WithLabelValues(metric.OpSet, metric.ResultOK)); v != 1 {
		t.Errorf("set/ok = %v, want 1", v)
	}
	if v := testutil.ToFloat64(reg.StoreOps.WithLabelValues(metric.OpGet, metric.ResultMiss)); v != 1 {
		t.Errorf("get/miss = %v, want 1", v)
	}
	if v := testutil.ToFloat64(reg.StoreInvalidations.WithLabelValues(reasonExpired)); v != 1 {
		t.Errorf("invalidations{expired} = %v, want 1", v)
	}
}

func TestNew_ProbeFailure(t *testing.T) {
	probe := fingerprint.ProbeFunc(func(context.Context) (fingerprint.Traits, error) {
		return fingerprint.Traits{}, errors.New("no machine id")
	})

	_, err := New(context.Background(), DefaultConfig(), probe)
	if !errors.Is(err, ErrFingerprint) {
		t.Errorf("New() error = %v, want ErrFingerprint", err)
	}
}

func TestNew_NilProbe(t *testing.T) {
	_, err := New(context.Background(), DefaultConfig(), nil)
	if !errors.Is(err, ErrFingerprint) {
		t.Errorf("New() error = %v, want ErrFingerprint", err)
	}
}

func TestNew_UnknownCipher(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cipher = "rot13"

	_, err := New(context.Background(), cfg, deviceA)
	if !errors.Is(err, ErrEncryption) {
		t.Errorf("New() error = %v, want ErrEncryption", err)
	}
}

func TestNew_CipherMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	f.store.SetItem(ctx, "k", "v", PolicyPersistent, 0)

	cfg := DefaultConfig()
	cfg.Cipher = "chacha20-poly1305"
	other, err := New(ctx, cfg, deviceA,
		WithSessionBackend(f.session), WithPersistentBackend(f.persistent), WithClock(f.clock.Now))
	if err != nil {
		t.Fatal(err)
	}

	var got string
	if other.GetItem(ctx, "k", PolicyPersistent, &got) {
		t.Error("item sealed with another cipher should not open")
	}
}
