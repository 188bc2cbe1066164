package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Conn is an established connection to one namespace.
//
// Recv is called from a single goroutine. Send may be called
// concurrently with Recv.
type Conn interface {
	Send(ctx context.Context, f Frame) error
	Recv(ctx context.Context) (Frame, error)
	Close() error
	Kind() Kind
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, t Target) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, t Target) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, t Target) (Conn, error) {
	return f(ctx, t)
}

// FallbackDialer tries each dialer in order and returns the first
// connection. An auth rejection ends the chain.
type FallbackDialer struct {
	Dialers []Dialer
	Logger  *slog.Logger
}

// Dial implements Dialer.
func (d *FallbackDialer) Dial(ctx context.Context, t Target) (Conn, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, dialer := range d.Dialers {
		conn, err := dialer.Dial(ctx, t)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, ErrAuthRejected) || ctx.Err() != nil {
			return nil, err
		}
		logger.Debug("transport unavailable, trying next",
			"namespace", t.Namespace, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrConnection.WithDetails("no transports configured")
	}
	return nil, ErrConnection.WithCause(errors.Join(errs...))
}

// New builds a FallbackDialer for the named transports in preference
// order. Unknown names are ignored; an empty list means websocket then
// polling.
func New(kinds []string, client *http.Client, poll PollOptions, logger *slog.Logger) *FallbackDialer {
	if len(kinds) == 0 {
		kinds = []string{string(KindStream), string(KindPoll)}
	}
	d := &FallbackDialer{Logger: logger}
	for _, k := range kinds {
		switch Kind(k) {
		case KindStream:
			d.Dialers = append(d.Dialers, &StreamDialer{HTTPClient: client})
		case KindPoll:
			d.Dialers = append(d.Dialers, &PollDialer{HTTPClient: client, Options: poll})
		}
	}
	return d
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
