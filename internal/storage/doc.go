// Package storage provides the key/value backends used by dinekit.
//
// Two scopes exist:
//
//   - Session: lives as long as the client session (the process). Backed
//     by the in-memory sharded map in package memory.
//   - Persistent: survives restarts. Backed by Badger on local disk, or by
//     Redis when several client processes on one device share state.
//
// Backends store opaque byte values under string keys. They carry no
// expiry or encryption semantics of their own; those belong to the
// securestore layer above. Backends do not coordinate across processes:
// concurrent writers race and the last write wins.
package storage
