package redis

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yndnr/dinekit-go/internal/storage"
)

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dinekit_secure_", "dinekit_secure_"},
		{"a*b", `a\*b`},
		{"q?[x]", `q\?\[x\]`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeGlob(tt.in); got != tt.want {
			t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// getRedis connects to DINEKIT_TEST_REDIS_ADDR when set, otherwise to a
// throwaway redis container. Without either the test is skipped.
func getRedis(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	addr := os.Getenv("DINEKIT_TEST_REDIS_ADDR")
	if addr == "" {
		addr = startRedis(t)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr: addr,
		DB:   15,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatal(err)
	}
	s := New(rdb, nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	server, err := testcontainers.Run(
		ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	testcontainers.CleanupContainer(t, server)
	if err != nil {
		t.Fatal(err)
	}
	endpoint, err := server.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	return endpoint
}

func TestStore_SetGetDelete(t *testing.T) {
	s := getRedis(t)
	ctx := context.Background()

	if err := s.Set(ctx, "abc123", []byte("hello world")); err != nil {
		t.Fatal(err)
	}
	data, err := s.Get(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Fatalf("expected 'hello world' got '%s'", data)
	}

	if err := s.Delete(ctx, "abc123"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "abc123"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound got %v", err)
	}
}

func TestStore_Keys(t *testing.T) {
	s := getRedis(t)
	ctx := context.Background()

	for _, k := range []string{"pre*_1", "pre*_2", "pre_3"} {
		if err := s.Set(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.Keys(ctx, "pre*_")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "pre*_1" {
		t.Fatalf("Keys = %v", keys)
	}
}
