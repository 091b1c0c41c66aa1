package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotRequests counts snapshot reads by how they were served.
	// Labels: result (hit, shared, refreshed, error)
	SnapshotRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "airjourney",
		Name:      "snapshot_requests_total",
		Help:      "Catalog snapshot requests by result",
	}, []string{"result"})

	// SnapshotRefreshes counts catalog fetches.
	// Labels: result (ok, source_unavailable, format_error, error)
	SnapshotRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "airjourney",
		Name:      "snapshot_refresh_total",
		Help:      "Catalog refreshes by result",
	}, []string{"result"})

	RouteSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "airjourney",
		Name:      "route_search_total",
		Help:      "Route searches by result",
	}, []string{"result"})

	RouteSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "airjourney",
		Name:      "route_search_duration_seconds",
		Help:      "Route search latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// JourneyResolutions counts ResolveJourney outcomes.
	// Labels: outcome (memoized, created, not_available, invalid, error)
	JourneyResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "airjourney",
		Name:      "journey_resolve_total",
		Help:      "Journey resolutions by outcome",
	}, []string{"outcome"})
)
