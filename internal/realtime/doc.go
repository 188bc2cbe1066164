// Package realtime keeps the client's three live channels to the
// restaurant backend: general ("/"), order ("/orders") and kitchen
// ("/kitchen").
//
// Each channel is the same state machine:
//
//	disconnected -> connecting -> connected
//	connecting|connected --error--> reconnecting --backoff--> connected
//	reconnecting --attempts exhausted or auth rejected--> failed
//
// A Manager owns the channels, the subscriptions and the emit helpers.
// Subscriptions are kept by the Manager, so they survive reconnects and
// repeated Connect calls. Callbacks for a channel run on that channel's
// goroutine in delivery order; nothing orders events across channels.
package realtime
