// Package adaptive provides authenticated encryption for dinekit.
//
// It selects AES-256-GCM where the platform has hardware AES support and
// ChaCha20-Poly1305 otherwise. Keys are derived with HKDF-SHA256 from
// caller-supplied key material, so a device fingerprint digest can be used
// directly as input.
//
// Ciphertext layout is nonce || sealed payload. Seal and Open wrap that in
// standard base64 for storage in string-valued backends.
//
// Usage:
//
//	key, err := adaptive.DeriveKey(material, salt, info)
//	c, err := adaptive.New(key)
//	s, err := adaptive.Seal(c, plaintext, aad)
//	plaintext, err := adaptive.Open(c, s, aad)
package adaptive
