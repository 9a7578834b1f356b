package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReactionsTotal counts reaction mutations by kind (like, dislike) and action (add, remove).
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundboard_reactions_total",
		Help: "Total number of reaction changes by kind and action",
	}, []string{"kind", "action"})

	// PostsToggled counts owner toggles of a post's active flag by resulting state.
	PostsToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundboard_posts_toggled_total",
		Help: "Total number of post active-flag toggles",
	}, []string{"active"})

	// SessionsIssued counts tokens issued by origin (register, login).
	SessionsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundboard_sessions_issued_total",
		Help: "Total number of session tokens issued",
	}, []string{"origin"})

	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fundboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundboard_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
