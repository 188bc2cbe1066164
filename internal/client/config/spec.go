package config

import (
	"github.com/yndnr/dinekit-go/internal/realtime"
	"github.com/yndnr/dinekit-go/internal/securestore"
	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/internal/telemetry/logger"
)

// ClientConfig is the root configuration for dinekit-cli.
type ClientConfig struct {
	// DataDir holds persistent client state.
	DataDir string `koanf:"data_dir" yaml:"data_dir"`

	// Output is the default formatter (table, json, yaml).
	Output string `koanf:"output" yaml:"output"`

	Store    StoreSection    `koanf:"store" yaml:"store"`
	Realtime realtime.Config `koanf:"realtime" yaml:"realtime"`
	Log      logger.Config   `koanf:"log" yaml:"log"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
}

// StoreSection configures the encrypted store and its two backends.
type StoreSection struct {
	Secure     securestore.Config `koanf:"secure" yaml:"secure"`
	Session    SessionSection     `koanf:"session" yaml:"session"`
	Persistent storage.Config     `koanf:"persistent" yaml:"persistent"`
}

// SessionSection configures the session-scoped backend.
//
// A CLI process is short-lived, so "memory" forgets everything on exit.
// "badger" keeps session entries in a per-user runtime directory that the
// operating system clears on logout or reboot.
type SessionSection struct {
	Engine string `koanf:"engine" yaml:"engine"`
	Dir    string `koanf:"dir" yaml:"dir"`
}

// MetricsSection configures the optional Prometheus endpoint.
type MetricsSection struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string `koanf:"addr" yaml:"addr"`
}
