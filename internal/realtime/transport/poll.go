package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// PollOptions tunes the polling transport.
type PollOptions struct {
	// Interval is the minimum spacing between poll requests.
	// Default: 250ms
	Interval time.Duration `koanf:"interval"`

	// Burst is the number of polls allowed back to back.
	// Default: 2
	Burst int `koanf:"burst"`
}

func (o PollOptions) limiter() *rate.Limiter {
	interval := o.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	burst := o.Burst
	if burst <= 0 {
		burst = 2
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// PollDialer connects with HTTP long-polling.
//
// The session is opened with POST <ns>/handshake, which answers
// {"sid":"..."}. Frames are fetched with GET <ns>/poll?sid= (a JSON array,
// or 204 when the server's wait expired) and sent with POST <ns>/emit?sid=.
type PollDialer struct {
	HTTPClient *http.Client
	Options    PollOptions
}

type handshake struct {
	SID string `json:"sid"`
}

// Dial implements Dialer.
func (d *PollDialer) Dial(ctx context.Context, t Target) (Conn, error) {
	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url("handshake", nil), nil)
	if err != nil {
		return nil, ErrConnection.WithCause(err)
	}
	req.Header.Set("Authorization", t.authorization())

	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrConnection.WithCause(err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}
	var hs handshake
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil || hs.SID == "" {
		return nil, ErrConnection.WithDetails("invalid handshake response")
	}

	connCtx, cancel := context.WithCancel(context.Background())
	return &pollConn{
		client:  client,
		target:  t,
		sid:     hs.SID,
		limiter: d.Options.limiter(),
		ctx:     connCtx,
		cancel:  cancel,
	}, nil
}

type pollConn struct {
	client  *http.Client
	target  Target
	sid     string
	limiter *rate.Limiter

	// ctx is cancelled by Close to abort in-flight requests.
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	// pending holds frames from the last poll not yet returned by Recv.
	mu      sync.Mutex
	pending []Frame
}

func (p *pollConn) Kind() Kind { return KindPoll }

func (p *pollConn) query() url.Values {
	return url.Values{"sid": {p.sid}}
}

// bind returns a context cancelled when either ctx or the connection ends.
func (p *pollConn) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

func (p *pollConn) Send(ctx context.Context, f Frame) error {
	if p.closed.Load() {
		return ErrNotConnected
	}
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	reqCtx, done := p.bind(ctx)
	defer done()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.target.url("emit", p.query()), bytes.NewReader(body))
	if err != nil {
		return ErrConnection.WithCause(err)
	}
	req.Header.Set("Authorization", p.target.authorization())
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if p.closed.Load() {
			return ErrNotConnected
		}
		return ErrConnection.WithCause(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return statusError(resp)
}

func (p *pollConn) Recv(ctx context.Context) (Frame, error) {
	for {
		if p.closed.Load() {
			return Frame{}, ErrNotConnected
		}
		if f, ok := p.next(); ok {
			return f, nil
		}
		if err := p.poll(ctx); err != nil {
			return Frame{}, err
		}
	}
}

func (p *pollConn) next() (Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return Frame{}, false
	}
	f := p.pending[0]
	p.pending = p.pending[1:]
	return f, true
}

func (p *pollConn) poll(ctx context.Context) error {
	reqCtx, done := p.bind(ctx)
	defer done()

	if err := p.limiter.Wait(reqCtx); err != nil {
		return p.ctxError(ctx, err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.target.url("poll", p.query()), nil)
	if err != nil {
		return ErrConnection.WithCause(err)
	}
	req.Header.Set("Authorization", p.target.authorization())

	resp, err := p.client.Do(req)
	if err != nil {
		return p.ctxError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := statusError(resp); err != nil {
		return err
	}

	var frames []Frame
	if err := json.NewDecoder(resp.Body).Decode(&frames); err != nil {
		return ErrConnection.WithCause(err)
	}
	p.mu.Lock()
	p.pending = append(p.pending, frames...)
	p.mu.Unlock()
	return nil
}

// ctxError maps a request failure to the error Recv reports.
func (p *pollConn) ctxError(ctx context.Context, err error) error {
	switch {
	case p.closed.Load():
		return ErrNotConnected
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return ErrConnection.WithCause(err)
	}
}

func (p *pollConn) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.cancel()
	return nil
}

// statusError maps a non-2xx response to a transport error.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case isAuthStatus(resp.StatusCode):
		return ErrAuthRejected.WithDetails(resp.Status)
	default:
		return ErrConnection.WithDetails(resp.Status)
	}
}
