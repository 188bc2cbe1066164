// Package fingerprint derives a device fingerprint for dinekit.
//
// A fingerprint approximates "this specific client instance". It is
// computed from a set of Traits (rendering surface identity, user agent,
// locale, screen geometry and timezone) and reduced to a SHA-256 digest.
// Only the digest leaves this package; the traits themselves are never
// persisted.
//
// The digest is deterministic for unchanged traits and is expected, not
// guaranteed, to differ across devices. It is not a secret: it serves as
// key material and as a tamper signal, nothing more.
//
// Usage:
//
//	traits, err := fingerprint.NewSystemProbe("1.0.0").Probe(ctx)
//	digest := fingerprint.Digest(traits)
//	if !fingerprint.Equal(digest, stored) { ... }
package fingerprint
