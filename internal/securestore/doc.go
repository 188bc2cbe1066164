// Package securestore keeps small client-side values encrypted, expiring
// and bound to the device that wrote them.
//
// A Store derives an AEAD key from the device fingerprint once, at
// construction. Every item is written as a versioned JSON envelope holding
// the ciphertext, an optional absolute expiry and the fingerprint digest
// captured at write time. A read that finds an expired, foreign-device or
// undecryptable envelope deletes it and reports the item as absent, exactly
// as if it had never been stored.
//
// Items live in one of two backends chosen by Policy: a session-scoped
// backend discarded when the client session ends, or a persistent one.
// Store operations never return errors; failures are logged and counted.
//
// Session wraps a Store with the auth token, user profile and tenant
// context helpers used by the rest of the client.
package securestore
