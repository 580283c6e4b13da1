// Package metrics defines the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubConnectedClients tracks the number of live websocket connections.
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of live websocket connections",
		},
	)

	// HubAuthenticatedClients tracks connections that completed the handshake.
	HubAuthenticatedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_authenticated_clients",
			Help: "Number of connections that completed the auth handshake",
		},
	)

	// HubBroadcastsTotal tracks broadcast calls by event type.
	HubBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total tenant broadcasts by event type",
		},
		[]string{"event_type"},
	)

	// HubBroadcastDeliveries tracks messages enqueued to client writers.
	HubBroadcastDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcast_deliveries_total",
			Help: "Total broadcast messages enqueued to client connections",
		},
	)

	// HubAuthFailuresTotal tracks failed handshakes by reason.
	HubAuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_auth_failures_total",
			Help: "Total failed auth handshakes by reason",
		},
		[]string{"reason"},
	)

	// HubInvalidFramesTotal tracks inbound frames rejected by the validator.
	HubInvalidFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_invalid_frames_total",
			Help: "Total inbound frames rejected by envelope validation",
		},
	)

	// HubHeartbeatEvictions tracks connections evicted by the liveness sweep.
	HubHeartbeatEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_heartbeat_evictions_total",
			Help: "Total connections evicted for missing heartbeat pongs",
		},
	)

	// HubSlowClientsEvicted tracks connections dropped for full send buffers.
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total connections dropped because their send buffer was full",
		},
	)

	// HubDerivationFailures tracks broadcasts dropped for missing tenant info.
	HubDerivationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcast_derivation_failures_total",
			Help: "Total schedule broadcasts dropped because no tenant could be derived",
		},
	)
)

// Identity store metrics
var (
	// IdentityLookupDuration tracks identity store lookup latency in seconds.
	IdentityLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identity_lookup_duration_seconds",
			Help:    "Identity store lookup duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"lookup"},
	)
)

// NewLookupTimer times one identity store lookup.
func NewLookupTimer(lookup string) *prometheus.Timer {
	return prometheus.NewTimer(IdentityLookupDuration.WithLabelValues(lookup))
}
