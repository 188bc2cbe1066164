package storage

import (
	"fmt"
	"log/slog"
)

// Opener builds a persistent backend for an engine name. Packages that
// provide alternative engines register here to avoid import cycles.
type Opener func(cfg Config, logger *slog.Logger) (Backend, error)

var openers = map[string]Opener{
	"badger": func(cfg Config, logger *slog.Logger) (Backend, error) {
		return NewBadgerBackend(cfg, logger)
	},
}

// Register makes an engine available to OpenPersistent.
// It is meant to be called from init functions.
func Register(engine string, open Opener) {
	openers[engine] = open
}

// OpenPersistent opens the persistent backend selected by cfg.Engine.
func OpenPersistent(cfg Config, logger *slog.Logger) (Backend, error) {
	engine := cfg.Engine
	if engine == "" {
		engine = "badger"
	}
	open, ok := openers[engine]
	if !ok {
		return nil, fmt.Errorf("storage: unknown engine %q", engine)
	}
	return open(cfg, logger)
}
