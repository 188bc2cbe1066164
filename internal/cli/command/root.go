package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dinekit-go/internal/client/config"
	"github.com/yndnr/dinekit-go/internal/core/domain"
	"github.com/yndnr/dinekit-go/internal/infra/buildinfo"
	"github.com/yndnr/dinekit-go/internal/infra/confloader"
	"github.com/yndnr/dinekit-go/pkg/fingerprint"

	// Registers the "redis" persistent engine.
	_ "github.com/yndnr/dinekit-go/internal/storage/redis"
)

const envKey = "env"

type appOptions struct {
	in       io.Reader
	out, err io.Writer
	probe    fingerprint.Probe
}

// AppOption configures App.
type AppOption func(*appOptions)

// WithInput replaces stdin, read by the interactive shell.
func WithInput(in io.Reader) AppOption {
	return func(o *appOptions) { o.in = in }
}

// WithWriters redirects command output and diagnostics.
func WithWriters(out, err io.Writer) AppOption {
	return func(o *appOptions) { o.out, o.err = out, err }
}

// WithProbe replaces the host fingerprint probe.
func WithProbe(p fingerprint.Probe) AppOption {
	return func(o *appOptions) { o.probe = p }
}

// App creates the CLI application.
func App(opts ...AppOption) *cli.App {
	o := appOptions{
		in:    os.Stdin,
		out:   os.Stdout,
		err:   os.Stderr,
		probe: fingerprint.NewSystemProbe(buildinfo.Version),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &cli.App{
		Name:      "dinekit-cli",
		Usage:     "device-bound session store and realtime channels for dinekit clients",
		Version:   buildinfo.String(),
		Writer:    o.out,
		ErrWriter: o.err,
		Flags:     globalFlags(),
		Metadata:  map[string]any{},
		// main maps errors to exit codes.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			StoreCommand(),
			AuthCommand(),
			LiveCommand(),
			ConfigCommand(),
			VersionCommand(),
			ShellCommand(o),
		},
		Before: func(c *cli.Context) error {
			env, err := setup(c, o)
			if err != nil {
				return err
			}
			c.App.Metadata[envKey] = env
			return nil
		},
		After: func(c *cli.Context) error {
			if env, ok := c.App.Metadata[envKey].(*Env); ok {
				return env.Close()
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default: <data-dir>/dinekit.yaml when present)",
			EnvVars: []string{"DINEKIT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "directory for persistent client state",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "realtime server base URL",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "table, json or yaml",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on this address",
		},
	}
}

// flagOverrides maps explicitly set global flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"data-dir":     "data_dir",
		"endpoint":     "realtime.endpoint",
		"log-level":    "log.level",
		"output":       "output",
		"metrics-addr": "metrics.addr",
	}
	out := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	return out
}

// configPath returns the file to load, or "" when none applies.
func configPath(c *cli.Context) (string, error) {
	if p := c.String("config"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return p, nil
	}
	p := filepath.Join(flagDataDir(c), config.DefaultConfigName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

// flagDataDir is the data directory named on the command line, used to
// find the config and .env files before the config is loaded.
func flagDataDir(c *cli.Context) string {
	if dir := c.String("data-dir"); dir != "" {
		return dir
	}
	return config.DefaultDataDir()
}

// loadConfig layers defaults, file, .env, environment and flags.
func loadConfig(c *cli.Context) (*config.ClientConfig, string, error) {
	path, err := configPath(c)
	if err != nil {
		return nil, "", err
	}

	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDotenvFile(filepath.Join(flagDataDir(c), ".env")),
		confloader.WithOverrides(flagOverrides(c)),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, "", err
	}
	cfg.Resolve()
	if err := config.Verify(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// usageError reports wrong positional arguments for c's command.
func usageError(c *cli.Context) error {
	return domain.ErrInvalidArgument.WithDetails("usage: " + c.Command.HelpName + " " + c.Command.ArgsUsage)
}

// ExitCode maps an error returned by the App to a process exit status:
// the code of a cli.ExitCoder, 2 for argument errors, 1 otherwise.
func ExitCode(err error) int {
	var ec cli.ExitCoder
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ec):
		return ec.ExitCode()
	case domain.Area(err) == "ARG":
		return 2
	default:
		return 1
	}
}
