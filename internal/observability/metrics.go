package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// Tracer is the process-wide tracer for analysis spans.
var Tracer = otel.Tracer("exportmap")

// Metrics definitions
var (
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exportmap_build_seconds",
		Help:    "Time spent parsing a file and building its export map.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportmap_cache_hits_total",
		Help: "Export-map cache lookups satisfied without a rebuild.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportmap_cache_misses_total",
		Help: "Export-map cache lookups that triggered a build.",
	})

	CacheRejectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportmap_cache_rejects_total",
		Help: "Lookups rejected before parsing (extension, ignore pattern, or module heuristic).",
	})

	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportmap_cache_invalidations_total",
		Help: "Cache entries dropped because the file changed on disk.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exportmap_diagnostics_total",
		Help: "Diagnostics emitted, by rule.",
	}, []string{"rule"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportmap_watcher_events_total",
		Help: "File system events received by the watcher.",
	})
)
