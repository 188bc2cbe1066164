package memory

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/yndnr/dinekit-go/internal/storage"
)

func TestStore_BasicOperations(t *testing.T) {
	s := New()
	ctx := context.Background()

	if s.Scope() != storage.ScopeSession {
		t.Errorf("Scope() = %v, want session", s.Scope())
	}

	t.Run("Set and Get", func(t *testing.T) {
		if err := s.Set(ctx, "k", []byte("v")); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v" {
			t.Errorf("Get = %q, want v", got)
		}
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		got, _ := s.Get(ctx, "k")
		got[0] = 'x'
		again, _ := s.Get(ctx, "k")
		if string(again) != "v" {
			t.Errorf("stored value mutated through Get result: %q", again)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("err = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("err = %v, want ErrKeyNotFound", err)
		}
	})
}

func TestStore_Keys(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, k := range []string{"p_a", "p_b", "other"} {
		if err := s.Set(ctx, k, []byte("1")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.Keys(ctx, "p_")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "p_a" || keys[1] != "p_b" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestStore_Quota(t *testing.T) {
	s := New(WithMaxBytes(10))
	ctx := context.Background()

	if err := s.Set(ctx, "ab", []byte("12345678")); err != nil {
		t.Fatalf("Set within quota: %v", err)
	}
	if err := s.Set(ctx, "c", []byte("1")); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}

	// Overwriting with a same-sized value fits.
	if err := s.Set(ctx, "ab", []byte("87654321")); err != nil {
		t.Errorf("overwrite: %v", err)
	}
	if s.Usage() != 10 {
		t.Errorf("Usage = %d, want 10", s.Usage())
	}

	if err := s.Delete(ctx, "ab"); err != nil {
		t.Fatal(err)
	}
	if s.Usage() != 0 {
		t.Errorf("Usage after delete = %d", s.Usage())
	}
	if err := s.Set(ctx, "c", []byte("1")); err != nil {
		t.Errorf("Set after freeing space: %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	s := New(WithScope(storage.ScopePersistent))
	ctx := context.Background()

	if s.Scope() != storage.ScopePersistent {
		t.Errorf("Scope() = %v", s.Scope())
	}

	s.Set(ctx, "k", []byte("v"))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Get after close = %v, want ErrClosed", err)
	}
	if err := s.Set(ctx, "k", nil); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Set after close = %v, want ErrClosed", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len after close = %d", s.Len())
	}
}
