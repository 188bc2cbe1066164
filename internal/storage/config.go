package storage

import "time"

// Config configures the persistent backend.
type Config struct {
	// Engine selects the persistent backend ("badger" or "redis").
	// Default: "badger"
	Engine string `koanf:"engine"`

	// Dir is the Badger data directory.
	Dir string `koanf:"dir"`

	// InMemory runs Badger without touching disk (tests, ephemeral hosts).
	InMemory bool `koanf:"in_memory"`

	// MaxBytes caps the persistent data size. Zero means unlimited.
	MaxBytes int64 `koanf:"max_bytes"`

	// Badger-specific configuration
	Badger BadgerConfig `koanf:"badger"`

	// Redis-specific configuration
	Redis RedisConfig `koanf:"redis"`
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64 `koanf:"gc_threshold"`

	// CacheSize is the block cache size in bytes.
	// Default: 8MB
	CacheSize int64 `koanf:"cache_size"`

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64 `koanf:"value_log_file_size"`

	// SyncWrites enables fsync after each write.
	// Default: true (session artifacts are small and rare)
	SyncWrites bool `koanf:"sync_writes"`
}

// RedisConfig configures the Redis persistent backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// DefaultConfig returns the default persistent backend configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,
		ValueLogFileSize: 64 << 20,
		SyncWrites:       true,
	}
}
