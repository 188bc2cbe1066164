package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dinekit-go/internal/cli/output"
	"github.com/yndnr/dinekit-go/internal/client/config"
	"github.com/yndnr/dinekit-go/internal/securestore"
	"github.com/yndnr/dinekit-go/internal/storage"
	"github.com/yndnr/dinekit-go/internal/storage/memory"
	"github.com/yndnr/dinekit-go/internal/telemetry/logger"
	"github.com/yndnr/dinekit-go/internal/telemetry/metric"
	"github.com/yndnr/dinekit-go/pkg/fingerprint"
)

// Env holds what one command invocation shares.
type Env struct {
	Config     *config.ClientConfig
	ConfigPath string
	Logger     *slog.Logger
	Metrics    *metric.Registry
	Out, Err   io.Writer
	Format     output.Format

	probe fingerprint.Probe

	mu      sync.Mutex
	store   *securestore.Store
	closers []func() error
}

func setup(c *cli.Context, o appOptions) (*Env, error) {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	logCfg.Output = o.err
	l := logger.Install(logCfg)

	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Logger:     l,
		Metrics:    metric.NewRegistry(),
		Out:        o.out,
		Err:        o.err,
		Format:     format,
		probe:      o.probe,
	}
	if cfg.Metrics.Addr != "" {
		if err := env.serveMetrics(cfg.Metrics.Addr); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func envFrom(c *cli.Context) *Env {
	return c.App.Metadata[envKey].(*Env)
}

// OnClose registers fn to run when the invocation ends, in reverse order.
func (e *Env) OnClose(fn func() error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closers = append(e.closers, fn)
}

// Close releases every resource opened for the invocation.
func (e *Env) Close() error {
	e.mu.Lock()
	closers := e.closers
	e.closers = nil
	e.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Print writes data with the selected formatter.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format).Format(e.Out, data)
}

func (e *Env) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	e.Logger.Info("serving metrics", "addr", ln.Addr().String())

	e.OnClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return nil
}

// Store opens the encrypted store on first use.
func (e *Env) Store(ctx context.Context) (*securestore.Store, error) {
	e.mu.Lock()
	s := e.store
	e.mu.Unlock()
	if s != nil {
		return s, nil
	}

	session, err := e.openSession()
	if err != nil {
		return nil, err
	}
	e.OnClose(session.Close)

	persistent, err := storage.OpenPersistent(e.Config.Store.Persistent, e.Logger)
	if err != nil {
		return nil, fmt.Errorf("open persistent store: %w", err)
	}
	if bb, ok := persistent.(*storage.BadgerBackend); ok {
		bb.RegisterMetrics(e.Metrics.Registerer())
	}
	e.OnClose(persistent.Close)

	s, err = securestore.New(ctx, e.Config.Store.Secure, e.probe,
		securestore.WithSessionBackend(session),
		securestore.WithPersistentBackend(persistent),
		securestore.WithLogger(e.Logger),
		securestore.WithMetrics(e.Metrics),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.store = s
	e.mu.Unlock()
	return s, nil
}

func (e *Env) openSession() (storage.Backend, error) {
	sc := e.Config.Store.Session
	if sc.Engine == "memory" {
		return memory.New(), nil
	}

	if err := os.MkdirAll(sc.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	cfg := storage.DefaultConfig(sc.Dir)
	cfg.Badger.CacheSize = 1 << 20
	cfg.Badger.ValueLogFileSize = 1 << 20
	b, err := storage.NewBadgerBackend(cfg, e.Logger.With("backend", "session"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return storage.WithScope(b, storage.ScopeSession), nil
}

// Session opens the store and wraps it for auth artifacts.
func (e *Env) Session(ctx context.Context) (*securestore.Session, error) {
	s, err := e.Store(ctx)
	if err != nil {
		return nil, err
	}
	return securestore.NewSession(s), nil
}
