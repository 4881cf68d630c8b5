package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtt_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vtt_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Room metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vtt_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	JoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtt_room_joins_total",
			Help: "Total join attempts",
		},
		[]string{"outcome"}, // "ok", "not_found", "invalid", "bad_password"
	)

	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vtt_connected_clients",
			Help: "Currently connected websocket clients",
		},
	)

	// Relay metrics
	PatchesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtt_patches_relayed_total",
			Help: "Patch descriptors broadcast to rooms",
		},
		[]string{"kind"}, // first path element: "tokens", "drawings", "map", ...
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vtt_persist_failures_total",
			Help: "Snapshot writes that failed and were dropped",
		},
	)

	SignalsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtt_signals_relayed_total",
			Help: "Peer signaling messages relayed",
		},
		[]string{"delivered"}, // "true" or "false"
	)
)
