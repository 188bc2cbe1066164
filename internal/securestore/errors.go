package securestore

import "github.com/yndnr/dinekit-go/internal/core/domain"

// Store errors. They are logged and counted, never returned by item
// operations; New returns ErrFingerprint or ErrEncryption.
var (
	// ErrSerialization indicates a value could not be encoded or decoded.
	ErrSerialization = domain.NewDomainError("DK-STOR-5001", "serialization failed")

	// ErrEncryption indicates the key could not be derived or a value sealed.
	ErrEncryption = domain.NewDomainError("DK-STOR-5002", "encryption failed")

	// ErrDecryption covers both a wrong key and a corrupted payload.
	ErrDecryption = domain.NewDomainError("DK-STOR-5003", "decryption failed")

	// ErrFingerprint indicates the device fingerprint could not be probed.
	ErrFingerprint = domain.NewDomainError("DK-STOR-5004", "fingerprint unavailable")

	// ErrBackendUnavailable indicates a backend refused a read or write
	// (quota exceeded, closed, unreachable).
	ErrBackendUnavailable = domain.NewDomainError("DK-STOR-5030", "storage backend unavailable")
)

// ErrInvalidPolicy is returned by ParsePolicy for unknown names.
var ErrInvalidPolicy = domain.NewDomainError("DK-ARG-1003", "unknown storage policy")
