// Package main provides the entry point for dinekit-cli.
//
// dinekit-cli exposes the device-bound encrypted store and the realtime
// channel manager used by dinekit clients:
//
//   - Encrypted values (set, get, list, remove, purge)
//   - Signed-in session (login, status, logout)
//   - Realtime channels (watch events, emit requests and orders)
//   - Effective configuration
//
// Usage:
//
//	dinekit-cli [global flags] command [flags] [args]
//	dinekit-cli store set --policy session cart '{"items":2}' --json
//	dinekit-cli --endpoint https://rt.example.com live watch --table T4
package main
