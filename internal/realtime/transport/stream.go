package transport

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// defaultReadLimit caps a single inbound frame.
const defaultReadLimit = 1 << 20

// StreamDialer connects over a websocket at <endpoint><namespace>/ws.
type StreamDialer struct {
	HTTPClient *http.Client
	ReadLimit  int64
}

// Dial implements Dialer.
func (d *StreamDialer) Dial(ctx context.Context, t Target) (Conn, error) {
	header := http.Header{}
	header.Set("Authorization", t.authorization())

	c, resp, err := websocket.Dial(ctx, t.url("ws", nil), &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && isAuthStatus(resp.StatusCode) {
			return nil, ErrAuthRejected.WithDetails(resp.Status)
		}
		return nil, ErrConnection.WithCause(err)
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	c.SetReadLimit(limit)
	return &streamConn{c: c}, nil
}

type streamConn struct {
	c      *websocket.Conn
	closed atomic.Bool
}

func (s *streamConn) Kind() Kind { return KindStream }

func (s *streamConn) Send(ctx context.Context, f Frame) error {
	if s.closed.Load() {
		return ErrNotConnected
	}
	if err := wsjson.Write(ctx, s.c, f); err != nil {
		return ErrConnection.WithCause(err)
	}
	return nil
}

func (s *streamConn) Recv(ctx context.Context) (Frame, error) {
	var f Frame
	if err := wsjson.Read(ctx, s.c, &f); err != nil {
		if s.closed.Load() {
			return Frame{}, ErrNotConnected
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Frame{}, err
		}
		return Frame{}, ErrConnection.WithCause(err)
	}
	return f, nil
}

func (s *streamConn) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.c.Close(websocket.StatusNormalClosure, "")
}
