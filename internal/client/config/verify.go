package config

import (
	"fmt"
	"net/url"

	"github.com/yndnr/dinekit-go/internal/core/domain"
	"github.com/yndnr/dinekit-go/internal/realtime/transport"
	"github.com/yndnr/dinekit-go/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *ClientConfig) error {
	checks := []func(*ClientConfig) error{
		verifyOutput,
		verifyStore,
		verifyRealtime,
		verifyLog,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf(format, args...))
}

func verifyOutput(cfg *ClientConfig) error {
	switch cfg.Output {
	case "table", "json", "yaml":
		return nil
	}
	return invalid("output must be table, json or yaml, got %q", cfg.Output)
}

func verifyStore(cfg *ClientConfig) error {
	s := cfg.Store
	if s.Secure.Prefix == "" {
		return invalid("store.secure.prefix is required")
	}
	switch adaptive.CipherType(s.Secure.Cipher) {
	case adaptive.CipherAESGCM, adaptive.CipherChaCha20:
	default:
		return invalid("store.secure.cipher %q is not supported", s.Secure.Cipher)
	}

	switch s.Session.Engine {
	case "memory", "badger":
	default:
		return invalid("store.session.engine must be memory or badger, got %q", s.Session.Engine)
	}

	switch s.Persistent.Engine {
	case "", "badger":
	case "redis":
		if s.Persistent.Redis.Addr == "" {
			return invalid("store.persistent.redis.addr is required for the redis engine")
		}
	default:
		return invalid("store.persistent.engine must be badger or redis, got %q", s.Persistent.Engine)
	}
	if s.Persistent.Badger.GCThreshold < 0 || s.Persistent.Badger.GCThreshold > 1 {
		return invalid("store.persistent.badger.gc_threshold must be within [0, 1]")
	}
	return nil
}

func verifyRealtime(cfg *ClientConfig) error {
	r := cfg.Realtime
	if r.Endpoint != "" {
		u, err := url.Parse(r.Endpoint)
		if err != nil || u.Host == "" {
			return invalid("realtime.endpoint %q is not an absolute URL", r.Endpoint)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return invalid("realtime.endpoint scheme %q is not supported", u.Scheme)
		}
	}
	for _, kind := range r.Transports {
		if kind != string(transport.KindStream) && kind != string(transport.KindPoll) {
			return invalid("realtime.transports: unknown transport %q", kind)
		}
	}
	if r.MaxAttempts < 0 {
		return invalid("realtime.max_attempts must not be negative")
	}
	if r.Randomization < 0 || r.Randomization > 1 {
		return invalid("realtime.randomization must be within [0, 1]")
	}
	if r.MaxDelay > 0 && r.InitialDelay > r.MaxDelay {
		return invalid("realtime.initial_delay exceeds realtime.max_delay")
	}
	return nil
}

func verifyLog(cfg *ClientConfig) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level %q is not a level", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "json", "text", "console":
	default:
		return invalid("log.format must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}
