// Package backup writes and reads passphrase-encrypted exports of the
// secure store.
//
// Store items are bound to the device fingerprint, so copying the backend
// files to another machine makes them unreadable. A backup carries the
// decrypted items sealed under a key derived from a passphrase with
// Argon2id; importing it re-binds every item to the importing device.
//
// File layout:
//
//	magic "DKBACKUP" | uint32 header length | header JSON | sealed payload | SHA-256
//
// The header is authenticated as additional data of the payload, and the
// trailing checksum covers everything before it.
package backup
