package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "DINEKIT_"

// Loader layers configuration sources into one koanf tree.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	dotenv    string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file. A missing path is skipped.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithDotenvFile reads prefixed variables from a .env file. They rank
// below the real environment. A missing file is skipped.
func WithDotenvFile(path string) Option {
	return func(l *Loader) { l.dotenv = path }
}

// WithOverrides sets dotted keys applied after every other source.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every source and unmarshals into target. Fields that no
// source mentions keep their current value, so pass a struct that already
// holds the defaults.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if l.dotenv != "" {
		if err := l.loadDotenv(); err != nil {
			return err
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.k.Load(overrideProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (l *Loader) loadDotenv() error {
	vars, err := godotenv.Read(l.dotenv)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load env file %s: %w", l.dotenv, err)
	}
	values := make(map[string]any, len(vars))
	for k, v := range vars {
		if strings.HasPrefix(k, l.envPrefix) {
			values[l.envKey(k)] = v
		}
	}
	if len(values) == 0 {
		return nil
	}
	if err := l.k.Load(overrideProvider(values), nil); err != nil {
		return fmt.Errorf("load env file %s: %w", l.dotenv, err)
	}
	return nil
}

// envKey maps DINEKIT_STORE__SECURE__PREFIX to store.secure.prefix.
func (l *Loader) envKey(s string) string {
	s = strings.TrimPrefix(s, l.envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// String returns the merged value at a dotted key.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}
