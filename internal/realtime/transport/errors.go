package transport

import "github.com/yndnr/dinekit-go/internal/core/domain"

// Transport errors.
var (
	// ErrConnection indicates the endpoint could not be reached or the
	// connection dropped.
	ErrConnection = domain.NewDomainError("DK-RT-5030", "realtime connection failed")

	// ErrAuthRejected indicates the server refused the bearer token.
	ErrAuthRejected = domain.NewDomainError("DK-RT-4010", "realtime authentication rejected")

	// ErrNotConnected is returned by Send and Recv on a closed connection.
	ErrNotConnected = domain.NewDomainError("DK-RT-4090", "realtime connection closed")
)
