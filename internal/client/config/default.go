package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/yndnr/dinekit-go/internal/realtime"
	"github.com/yndnr/dinekit-go/internal/securestore"
	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/internal/telemetry/logger"
)

// Default configuration values.
const (
	DefaultOutput        = "table"
	DefaultSessionEngine = "badger"
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
	DefaultConfigName    = "dinekit.yaml"
)

// Default returns the default client configuration.
func Default() *ClientConfig {
	dataDir := DefaultDataDir()

	log := logger.DefaultConfig()
	log.Level = DefaultLogLevel
	log.Format = DefaultLogFormat

	return &ClientConfig{
		DataDir: dataDir,
		Output:  DefaultOutput,
		Store: StoreSection{
			Secure: securestore.DefaultConfig(),
			Session: SessionSection{
				Engine: DefaultSessionEngine,
			},
			Persistent: storage.DefaultConfig(""),
		},
		Realtime: realtime.DefaultConfig(),
		Log:      log,
	}
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dinekit")
	}
	return filepath.Join(os.TempDir(), "dinekit")
}

// RuntimeDir returns the per-user directory for session-scoped state.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "dinekit")
	}
	return filepath.Join(os.TempDir(), "dinekit-"+strconv.Itoa(os.Getuid()))
}

// Resolve fills directories left empty after loading.
func (c *ClientConfig) Resolve() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Store.Persistent.Dir == "" {
		c.Store.Persistent.Dir = filepath.Join(c.DataDir, "store")
	}
	if c.Store.Session.Dir == "" {
		c.Store.Session.Dir = filepath.Join(RuntimeDir(), "session")
	}
}
