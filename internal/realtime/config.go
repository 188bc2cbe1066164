package realtime

import (
	"time"

	"github.com/yndnr/dinekit-go/internal/infra/tlsroots"
	"github.com/yndnr/dinekit-go/internal/realtime/transport"
)

// Config configures the channel manager.
type Config struct {
	// Endpoint is the server base URL.
	Endpoint string `koanf:"endpoint"`

	// Transports lists transports in preference order.
	// Default: ["websocket", "polling"]
	Transports []string `koanf:"transports"`

	// Reconnect enables automatic reconnection.
	// Default: true
	Reconnect bool `koanf:"reconnect"`

	// MaxAttempts bounds automatic reconnection attempts per channel.
	// Default: 5
	MaxAttempts int `koanf:"max_attempts"`

	// InitialDelay is the first reconnection delay.
	// Default: 1s
	InitialDelay time.Duration `koanf:"initial_delay"`

	// MaxDelay caps the reconnection delay.
	// Default: 5s
	MaxDelay time.Duration `koanf:"max_delay"`

	// Randomization spreads each delay by up to this fraction.
	// Default: 0.5
	Randomization float64 `koanf:"randomization"`

	// DialTimeout bounds one connection attempt.
	// Default: 20s
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// EmitTimeout bounds one outgoing event.
	// Default: 5s
	EmitTimeout time.Duration `koanf:"emit_timeout"`

	Poll transport.PollOptions `koanf:"poll"`
	TLS  tlsroots.Config       `koanf:"tls"`
}

// DefaultConfig returns the default realtime configuration.
func DefaultConfig() Config {
	return Config{
		Transports:    []string{string(transport.KindStream), string(transport.KindPoll)},
		Reconnect:     true,
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		Randomization: 0.5,
		DialTimeout:   20 * time.Second,
		EmitTimeout:   5 * time.Second,
		Poll: transport.PollOptions{
			Interval: 250 * time.Millisecond,
			Burst:    2,
		},
	}
}

func (c Config) backoff() Backoff {
	return Backoff{
		Initial:       c.InitialDelay,
		Max:           c.MaxDelay,
		Factor:        2,
		Randomization: c.Randomization,
	}
}
