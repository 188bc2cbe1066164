// Package transport carries realtime frames between the client and a
// namespaced server endpoint.
//
// Two transports implement Dialer: StreamDialer opens a websocket and
// PollDialer falls back to HTTP long-polling. FallbackDialer tries them
// in order and stops early when the server rejects the credentials.
//
// Both transports speak the same JSON frame:
//
//	{"id":"<ulid>","event":"<name>","data":<json>}
package transport
