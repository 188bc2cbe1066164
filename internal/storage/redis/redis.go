// Package redis provides a Redis-backed persistent storage.Backend.
//
// It lets several client processes on one device share persistent state
// through a local Redis. Importing the package registers the "redis"
// engine with storage.OpenPersistent.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"

	"github.com/yndnr/dinekit-go/internal/storage"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

func init() {
	storage.Register("redis", func(cfg storage.Config, logger *slog.Logger) (storage.Backend, error) {
		return Open(cfg.Redis, logger)
	})
}

// Store is a Redis backed storage.Backend.
type Store struct {
	rdb    goredis.UniversalClient
	logger *slog.Logger
}

var _ storage.Backend = (*Store)(nil)

// New wraps an existing client.
func New(rdb goredis.UniversalClient, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{rdb: rdb, logger: logger}
}

// Open connects to Redis and verifies the connection.
func Open(cfg storage.RedisConfig, logger *slog.Logger) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	s := New(rdb, logger)
	s.logger.Info("redis backend connected", "addr", cfg.Addr, "db", cfg.DB)
	return s, nil
}

// Scope implements storage.Backend.
func (s *Store) Scope() storage.Scope { return storage.ScopePersistent }

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, s.translate(err)
	}
	return data, nil
}

// Set stores value without a Redis-side TTL; expiry is enforced by the
// envelope layer.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.translate(s.rdb.Set(ctx, key, value, 0).Err())
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.translate(s.rdb.Del(ctx, key).Err())
}

// Keys returns every key starting with prefix using SCAN.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, s.translate(err)
	}
	return keys, nil
}

// Close closes the client.
func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		if errors.Is(err, goredis.ErrClosed) {
			return storage.ErrClosed
		}
		return err
	}
	return nil
}

func (s *Store) translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, goredis.ErrClosed) {
		return storage.ErrClosed
	}
	// maxmemory with noeviction policy
	if strings.HasPrefix(err.Error(), "OOM ") {
		return fmt.Errorf("%w: %v", storage.ErrQuotaExceeded, err)
	}
	return err
}

// escapeGlob escapes Redis MATCH metacharacters.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
