package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the log level and encoding.
type Config struct {
	Level     string    `koanf:"level" yaml:"level"`
	Format    string    `koanf:"format" yaml:"format"`
	AddSource bool      `koanf:"add_source" yaml:"add_source"`
	Output    io.Writer `koanf:"-" yaml:"-"`
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// level is shared by every logger built here so SetLevel applies to
// loggers already handed out.
var level = new(slog.LevelVar)

// New builds a redacting logger and sets the process level from cfg.
func New(cfg Config) *slog.Logger {
	level.Set(ParseLevel(cfg.Level))

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	if f := strings.ToLower(cfg.Format); f == "text" || f == "console" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Install builds a logger with New and makes it slog's default.
func Install(cfg Config) *slog.Logger {
	l := New(cfg)
	slog.SetDefault(l)
	return l
}

// SetLevel changes the level of every logger built by New.
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// Level returns the current level name in lower case.
func Level() string {
	return strings.ToLower(level.Level().String())
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
