package realtime

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/yndnr/dinekit-go/internal/core/domain"
	"github.com/yndnr/dinekit-go/internal/infra/tlsroots"
	"github.com/yndnr/dinekit-go/internal/realtime/transport"
	"github.com/yndnr/dinekit-go/internal/telemetry/metric"
)

// certReloadDebounce lets a rotation finish writing both files.
const certReloadDebounce = 500 * time.Millisecond

// Manager owns the general, order and kitchen channels.
type Manager struct {
	cfg     Config
	dialer  transport.Dialer
	logger  *slog.Logger
	metrics *metric.Registry
	certs   *tlsroots.ClientCert

	after func(time.Duration) <-chan time.Time
	rnd   func() float64

	hmu      sync.RWMutex
	handlers map[ChannelName]map[string][]func(transport.Frame)
	statusFn []func(Status)

	// mu serializes Connect and Disconnect; cmu guards channels.
	mu       sync.Mutex
	cmu      sync.RWMutex
	channels map[ChannelName]*channel
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the default websocket-then-polling dialer.
func WithDialer(d transport.Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics records channel state and traffic in r.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithTimer replaces the timer used between reconnection attempts.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(m *Manager) { m.after = after }
}

// WithRand replaces the jitter source; fn returns values in [0, 1).
func WithRand(fn func() float64) Option {
	return func(m *Manager) { m.rnd = fn }
}

// NewManager creates a Manager. Without WithDialer it builds the
// transport chain from cfg, including the TLS settings.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.EmitTimeout <= 0 {
		cfg.EmitTimeout = def.EmitTimeout
	}

	m := &Manager{
		cfg:      cfg,
		logger:   slog.Default(),
		after:    realAfter,
		rnd:      rand.Float64,
		handlers: make(map[ChannelName]map[string][]func(transport.Frame)),
		channels: make(map[ChannelName]*channel),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "realtime")

	if m.dialer == nil {
		if cfg.Endpoint == "" {
			return nil, ErrNoEndpoint
		}
		client := &http.Client{}
		if cfg.TLS.Enabled() {
			tlsCfg, certs, err := tlsroots.ClientConfig(cfg.TLS, m.logger)
			if err != nil {
				return nil, err
			}
			if certs != nil {
				if err := certs.Watch(certReloadDebounce); err != nil {
					m.logger.Warn("client certificate rotation not watched", "error", err)
				}
				m.certs = certs
			}
			client.Transport = &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: tlsCfg,
			}
		}
		m.dialer = transport.New(cfg.Transports, client, cfg.Poll, m.logger)
	}
	return m, nil
}

// Connect tears down any previous session and starts the three channels
// with authToken. It returns immediately; progress is reported through
// OnStatus. Channels stop when ctx is cancelled or on Disconnect.
func (m *Manager) Connect(ctx context.Context, authToken, tableID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.logger.Info("connecting", "endpoint", m.cfg.Endpoint, "table", tableID)
	chans := make(map[ChannelName]*channel, len(channelSpecs))
	for _, spec := range channelSpecs {
		chans[spec.name] = newChannel(m, spec)
	}
	m.cmu.Lock()
	m.channels = chans
	m.cmu.Unlock()

	for _, spec := range channelSpecs {
		chans[spec.name].start(ctx, authToken, tableID)
	}
}

// Disconnect stops every channel and cancels pending retries. It is
// idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Close disconnects and releases the client certificate watcher.
func (m *Manager) Close() {
	m.Disconnect()
	if m.certs != nil {
		_ = m.certs.Stop()
	}
}

func (m *Manager) stopLocked() {
	m.cmu.RLock()
	chans := m.channels
	m.cmu.RUnlock()
	if len(chans) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, c := range chans {
		wg.Add(1)
		go func(c *channel) {
			defer wg.Done()
			c.stop()
		}(c)
	}
	wg.Wait()
	m.cmu.Lock()
	m.channels = make(map[ChannelName]*channel)
	m.cmu.Unlock()
	m.logger.Info("disconnected")
}

func (m *Manager) channel(name ChannelName) *channel {
	m.cmu.RLock()
	defer m.cmu.RUnlock()
	return m.channels[name]
}

// IsConnected reports whether the general or the order channel is
// connected.
func (m *Manager) IsConnected() bool {
	return m.connected(ChannelGeneral) || m.connected(ChannelOrder)
}

func (m *Manager) connected(name ChannelName) bool {
	c := m.channel(name)
	return c != nil && c.connected()
}

// State returns the state of a channel.
func (m *Manager) State(name ChannelName) State {
	if c := m.channel(name); c != nil {
		return c.status().State
	}
	return StateDisconnected
}

// Snapshot returns the status of every channel in general, order,
// kitchen order.
func (m *Manager) Snapshot() []Status {
	out := make([]Status, 0, len(channelSpecs))
	for _, spec := range channelSpecs {
		if c := m.channel(spec.name); c != nil {
			out = append(out, c.status())
			continue
		}
		out = append(out, Status{Channel: spec.name, State: StateDisconnected})
	}
	return out
}

// EmitCustomerRequest sends req on the general channel, or on the order
// channel when general is down. It reports whether a connected channel
// was found; false means no transport call was made.
func (m *Manager) EmitCustomerRequest(req domain.CustomerRequest) bool {
	for _, name := range []ChannelName{ChannelGeneral, ChannelOrder} {
		// send reports false when the connection went away after the
		// state check, and the next channel gets its turn.
		if c := m.channel(name); c != nil && c.connected() && c.send(context.Background(), EventCustomerRequest, req) {
			return true
		}
	}
	m.logger.Debug("customer request dropped, no connected channel")
	return false
}

// EmitNewOrder sends order on the order channel. It does nothing when
// the channel is not connected.
func (m *Manager) EmitNewOrder(order domain.Order) {
	m.emitOrder(EventNewOrder, order)
}

// EmitOrderCancelled announces a cancellation on the order channel. It
// does nothing when the channel is not connected.
func (m *Manager) EmitOrderCancelled(orderID string, tableNumber int) {
	m.emitOrder(EventOrderCancelled, domain.OrderCancellation{OrderID: orderID, TableNumber: tableNumber})
}

func (m *Manager) emitOrder(event string, data any) {
	if c := m.channel(ChannelOrder); c != nil && c.connected() {
		c.send(context.Background(), event, data)
	}
}
