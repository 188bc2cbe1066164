package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerBackend implements Backend on Badger v3.
type BadgerBackend struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	// usage is the logical size (keys + values) in bytes, tracked only
	// when a quota is configured. writeMu serializes quota checks.
	writeMu sync.Mutex
	usage   int64

	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsUsage        prometheus.Gauge

	stopCh chan struct{}
	doneCh chan struct{}
}

var _ Backend = (*BadgerBackend)(nil)

// NewBadgerBackend opens (or creates) a Badger database.
func NewBadgerBackend(cfg Config, logger *slog.Logger) (*BadgerBackend, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = cfg.Badger.CacheSize
	opts.ValueLogFileSize = cfg.Badger.ValueLogFileSize
	opts.SyncWrites = cfg.Badger.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	b := &BadgerBackend{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.MaxBytes > 0 {
		if err := b.loadUsage(); err != nil {
			db.Close()
			return nil, fmt.Errorf("badger: compute usage: %w", err)
		}
	}

	if cfg.InMemory {
		// Value log GC is unsupported in memory mode.
		close(b.doneCh)
	} else {
		go b.gcLoop()
	}

	logger.Info("badger backend opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"max_bytes", cfg.MaxBytes)

	return b, nil
}

// Scope implements Backend.
func (b *BadgerBackend) Scope() Scope { return ScopePersistent }

// Get retrieves a value by key.
func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (b *BadgerBackend) Set(_ context.Context, key string, value []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if b.cfg.MaxBytes <= 0 {
		return b.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(key), value)
		})
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	var delta int64
	err := b.db.Update(func(txn *badger.Txn) error {
		delta = int64(len(key) + len(value))
		item, err := txn.Get([]byte(key))
		switch {
		case err == nil:
			delta -= int64(len(key)) + item.ValueSize()
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if b.usage+delta > b.cfg.MaxBytes {
			return ErrQuotaExceeded
		}
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return err
	}
	b.usage += delta
	return nil
}

// Delete removes a key.
func (b *BadgerBackend) Delete(_ context.Context, key string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if b.cfg.MaxBytes <= 0 {
		return b.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	var freed int64
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		freed = int64(len(key)) + item.ValueSize()
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return err
	}
	b.usage -= freed
	return nil
}

// Keys returns every key starting with prefix.
func (b *BadgerBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Usage returns the tracked logical size in bytes.
// It is zero when no quota is configured.
func (b *BadgerBackend) Usage() int64 {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.usage
}

// GC runs value log garbage collection until nothing more can be rewritten.
func (b *BadgerBackend) GC(context.Context) error {
	if b.cfg.InMemory {
		return nil
	}

	start := time.Now()
	runs := 0
	for {
		err := b.db.RunValueLogGC(b.cfg.Badger.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	b.lastGCTime.Store(time.Now().UnixMilli())
	b.logger.Debug("badger gc completed",
		"rewrites", runs,
		"elapsed", time.Since(start))
	return nil
}

// Close shuts down the backend. Calling Close twice returns ErrClosed.
func (b *BadgerBackend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	close(b.stopCh)
	<-b.doneCh

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	b.logger.Info("badger backend closed")
	return nil
}

// RegisterMetrics registers Badger size gauges with reg and starts
// refreshing them. Returns the backend for chaining.
func (b *BadgerBackend) RegisterMetrics(reg prometheus.Registerer) *BadgerBackend {
	b.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dinekit",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	b.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dinekit",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	b.metricsUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dinekit",
		Subsystem: "badger",
		Name:      "quota_usage_bytes",
		Help:      "Logical bytes counted against the persistent quota",
	})

	reg.MustRegister(b.metricsLSMSize, b.metricsValueLogSize, b.metricsUsage)
	go b.metricsLoop()
	return b
}

func (b *BadgerBackend) metricsLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lsm, vlog := b.db.Size()
			b.metricsLSMSize.Set(float64(lsm))
			b.metricsValueLogSize.Set(float64(vlog))
			b.metricsUsage.Set(float64(b.Usage()))
		case <-b.stopCh:
			return
		}
	}
}

func (b *BadgerBackend) gcLoop() {
	defer close(b.doneCh)

	interval := b.cfg.Badger.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.GC(context.Background()); err != nil {
				b.logger.Error("auto gc failed", "error", err)
			}
		case <-b.stopCh:
			return
		}
	}
}

func (b *BadgerBackend) loadUsage() error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			b.usage += int64(len(item.Key())) + item.ValueSize()
		}
		return nil
	})
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
