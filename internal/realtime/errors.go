package realtime

import (
	"github.com/yndnr/dinekit-go/internal/core/domain"
	"github.com/yndnr/dinekit-go/internal/realtime/transport"
)

// Channel errors, as reported in Status.Err.
var (
	ErrConnection   = transport.ErrConnection
	ErrAuthRejected = transport.ErrAuthRejected
	ErrNotConnected = transport.ErrNotConnected

	// ErrMaxRetriesExceeded marks a channel that gave up reconnecting.
	ErrMaxRetriesExceeded = domain.NewDomainError("DK-RT-5031", "reconnection attempts exhausted")

	// ErrNoEndpoint is returned by NewManager without an endpoint.
	ErrNoEndpoint = domain.ErrMissingArgument.WithDetails("realtime endpoint is required")
)
