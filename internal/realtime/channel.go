package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/dinekit-go/internal/realtime/transport"
	"github.com/yndnr/dinekit-go/internal/telemetry/metric"
)

// Event names on the wire.
const (
	EventJoinTable          = "join-table"
	EventCustomerRequest    = "customer-request"
	EventNewOrder           = "new-order"
	EventOrderCancelled     = "order-cancelled"
	EventOrderStatusChanged = "order-status-changed"
	EventKitchenUpdate      = "kitchen-update"
	EventOrderReady         = "order-ready"
	EventTableStatusUpdate  = "table-status-update"
	EventMenuChanged        = "menu-changed"
	EventConnectError       = "connect_error"
)

// channel is one independent connection and its reconnection state.
type channel struct {
	spec   channelSpec
	m      *Manager
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	attempts int
	lastErr  error
	conn     transport.Conn
	stopping bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newChannel(m *Manager, spec channelSpec) *channel {
	return &channel{
		spec:   spec,
		m:      m,
		logger: m.logger.With("channel", spec.name),
		done:   make(chan struct{}),
	}
}

// start launches the connection loop.
func (c *channel) start(ctx context.Context, token, tableID string) {
	ctx, c.cancel = context.WithCancel(ctx)
	target := transport.Target{
		Endpoint:  c.m.cfg.Endpoint,
		Namespace: c.spec.namespace,
		Token:     token,
	}
	c.setState(StateConnecting, nil)
	go c.run(ctx, target, tableID)
}

// stop cancels the loop, waits for it and marks the channel disconnected.
func (c *channel) stop() {
	c.mu.Lock()
	c.stopping = true
	c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	c.setState(StateDisconnected, nil)
}

func (c *channel) run(ctx context.Context, target transport.Target, tableID string) {
	defer close(c.done)
	defer c.contextEnded(ctx)

	backoff := c.m.cfg.backoff()
	backoff.rnd = c.m.rnd

	for {
		err := c.connectOnce(ctx, target, tableID)
		if ctx.Err() != nil {
			return
		}

		switch {
		case errors.Is(err, ErrAuthRejected):
			c.logger.Error("authentication rejected, not retrying", "error", err)
			c.setState(StateFailed, err)
			return
		case !c.m.cfg.Reconnect:
			c.setState(StateFailed, err)
			return
		}

		c.mu.Lock()
		exhausted := c.attempts >= c.m.cfg.MaxAttempts
		if !exhausted {
			c.attempts++
		}
		attempt := c.attempts
		c.mu.Unlock()

		if exhausted {
			c.logger.Error("reconnection attempts exhausted", "attempts", attempt, "error", err)
			c.setState(StateFailed, ErrMaxRetriesExceeded.WithCause(err))
			return
		}

		delay := backoff.Delay(attempt)
		c.logger.Warn("connection lost, retrying",
			"attempt", attempt,
			"max_attempts", c.m.cfg.MaxAttempts,
			"delay", delay,
			"error", err)
		c.setState(StateReconnecting, err)
		c.m.metrics.IncReconnect(string(c.spec.name))

		select {
		case <-ctx.Done():
			return
		case <-c.m.after(delay):
		}
	}
}

// contextEnded marks the channel disconnected when the caller's context
// ended the loop. stop reports its own transition.
func (c *channel) contextEnded(ctx context.Context) {
	if ctx.Err() == nil {
		return
	}
	c.mu.Lock()
	stopping := c.stopping
	if !stopping {
		c.attempts = 0
	}
	c.mu.Unlock()
	if !stopping {
		c.setState(StateDisconnected, ctx.Err())
	}
}

// connectOnce dials, serves the connection until it fails and returns
// the error that ended it.
func (c *channel) connectOnce(ctx context.Context, target transport.Target, tableID string) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.m.cfg.DialTimeout)
	conn, err := c.m.dialer.Dial(dialCtx, target)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	c.mu.Lock()
	c.conn = conn
	c.attempts = 0
	c.mu.Unlock()
	c.logger.Info("channel connected", "transport", conn.Kind())
	c.setState(StateConnected, nil)

	if c.spec.joinTable && tableID != "" {
		c.send(ctx, EventJoinTable, tableID)
	}

	for {
		f, err := conn.Recv(ctx)
		if err != nil {
			return err
		}
		if f.Event == EventConnectError {
			return connectError(f)
		}
		c.m.metrics.IncEvent(string(c.spec.name), metric.DirectionIn)
		c.m.dispatch(c.spec.name, f)
	}
}

// connectError maps a server connect_error frame to a channel error.
func connectError(f transport.Frame) error {
	var payload struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	_ = json.Unmarshal(f.Data, &payload)

	text := strings.ToLower(payload.Reason + " " + payload.Message)
	for _, marker := range []string{"auth", "unauthorized", "forbidden", "jwt", "token"} {
		if strings.Contains(text, marker) {
			return ErrAuthRejected.WithDetails(payload.Message)
		}
	}
	return ErrConnection.WithDetails(payload.Message)
}

// send emits one frame if the channel is connected and reports whether a
// live connection was there to try.
func (c *channel) send(ctx context.Context, event string, data any) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return false
	}

	f, err := transport.NewFrame(event, data)
	if err != nil {
		c.logger.Warn("event not encodable", "event", event, "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, c.m.cfg.EmitTimeout)
	defer cancel()
	if err := conn.Send(ctx, f); err != nil {
		c.logger.Warn("emit failed", "event", event, "error", err)
		// A connection closed underneath the channel counts as absent.
		return !errors.Is(err, transport.ErrNotConnected)
	}
	c.m.metrics.IncEvent(string(c.spec.name), metric.DirectionOut)
	return true
}

func (c *channel) setState(s State, err error) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.lastErr = err
	st := c.statusLocked()
	c.mu.Unlock()

	c.m.metrics.SetChannelState(string(c.spec.name), int(s))
	if prev != s {
		c.logger.Info("channel state changed", "from", prev, "to", s)
	}
	c.m.notify(st)
}

func (c *channel) status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *channel) statusLocked() Status {
	st := Status{
		Channel:  c.spec.name,
		State:    c.state,
		Attempts: c.attempts,
		Err:      c.lastErr,
	}
	if c.conn != nil {
		st.Transport = c.conn.Kind()
	}
	return st
}

func (c *channel) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected && c.conn != nil
}

// realAfter is the production timer.
func realAfter(d time.Duration) <-chan time.Time {
	return time.After(d)
}
