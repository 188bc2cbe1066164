// Package memory provides the session-scoped storage backend.
//
// Data lives in a sharded concurrent map for the lifetime of the Store
// value, which mirrors a browser tab's sessionStorage: nothing survives
// the process. An optional byte quota makes writes fail the way a full
// browser storage area does.
package memory
