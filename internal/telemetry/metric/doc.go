// Package metric provides Prometheus metrics for dinekit.
//
// A Registry owns its own prometheus.Registry (plus Go runtime and process
// collectors) and exposes recording methods for the two client
// components:
//
//   - store: operation outcomes, latencies and item invalidations
//   - realtime: per-channel state, reconnect attempts and event traffic
//
// All recording methods are safe on a nil *Registry, so components can
// run without metrics. The CLI serves Handler() when --metrics-addr is set.
package metric
