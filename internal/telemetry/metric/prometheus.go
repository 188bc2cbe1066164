package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dinekit"

// Store operation names.
const (
	OpSet    = "set"
	OpGet    = "get"
	OpRemove = "remove"
	OpClear  = "clear"
	OpPurge  = "purge"
)

// Store operation results.
const (
	ResultOK      = "ok"
	ResultMiss    = "miss"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Event directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	StoreOps           *prometheus.CounterVec
	StoreOpDuration    *prometheus.HistogramVec
	StoreInvalidations *prometheus.CounterVec

	RealtimeState      *prometheus.GaugeVec
	RealtimeReconnects *prometheus.CounterVec
	RealtimeEvents     *prometheus.CounterVec
}

// NewRegistry creates a registry with all dinekit collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "ops_total",
			Help:      "Secure store operations by operation and result.",
		}, []string{"op", "result"}),
		StoreOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "op_duration_seconds",
			Help:      "Secure store operation latency.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"op"}),
		StoreInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "invalidations_total",
			Help:      "Stored items deleted on read or purge, by reason.",
		}, []string{"reason"}),
		RealtimeState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "state",
			Help:      "Current channel state (0 disconnected, 1 connecting, 2 connected, 3 reconnecting, 4 failed).",
		}, []string{"channel"}),
		RealtimeReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "reconnects_total",
			Help:      "Reconnection attempts per channel.",
		}, []string{"channel"}),
		RealtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Events received (in) and emitted (out) per channel.",
		}, []string{"channel", "direction"}),
	}

	reg.MustRegister(
		r.StoreOps,
		r.StoreOpDuration,
		r.StoreInvalidations,
		r.RealtimeState,
		r.RealtimeReconnects,
		r.RealtimeEvents,
	)
	return r
}

// Registerer exposes the underlying registry for additional collectors
// such as the badger backend gauges.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordStoreOp counts one store operation and its latency.
func (r *Registry) RecordStoreOp(op, result string, seconds float64) {
	if r == nil {
		return
	}
	r.StoreOps.WithLabelValues(op, result).Inc()
	r.StoreOpDuration.WithLabelValues(op).Observe(seconds)
}

// RecordInvalidation counts an item deleted because it was expired,
// bound to another device, or undecryptable.
func (r *Registry) RecordInvalidation(reason string) {
	if r == nil {
		return
	}
	r.StoreInvalidations.WithLabelValues(reason).Inc()
}

// SetChannelState records the numeric state of a channel.
func (r *Registry) SetChannelState(channel string, state int) {
	if r == nil {
		return
	}
	r.RealtimeState.WithLabelValues(channel).Set(float64(state))
}

// IncReconnect counts a reconnection attempt.
func (r *Registry) IncReconnect(channel string) {
	if r == nil {
		return
	}
	r.RealtimeReconnects.WithLabelValues(channel).Inc()
}

// IncEvent counts an event in the given direction.
func (r *Registry) IncEvent(channel, direction string) {
	if r == nil {
		return
	}
	r.RealtimeEvents.WithLabelValues(channel, direction).Inc()
}
