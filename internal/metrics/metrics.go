// Package metrics holds the Prometheus instruments exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Clustering instruments.
var (
	// ClusterBuildsTotal counts uncached clustering passes.
	ClusterBuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_cluster_builds_total",
		Help: "Total clustering passes computed",
	})
	// ClusterBuildDurationMs observes the time of one clustering pass.
	ClusterBuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "canvass_cluster_build_duration_ms",
		Help:    "Clustering pass duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	})
	// SkippedBusinessesTotal counts records left out of clustering.
	SkippedBusinessesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_skipped_businesses_total",
		Help: "Businesses dropped before clustering for a missing or non-finite coordinate",
	})
	// ClusterCacheHitsTotal and ClusterCacheMissesTotal track cluster.Cache lookups.
	ClusterCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_cluster_cache_hits_total",
		Help: "Cluster cache hits",
	})
	ClusterCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_cluster_cache_misses_total",
		Help: "Cluster cache misses",
	})
	// GeolocationFallbacksTotal counts sessions centered on the fallback, labeled
	// permission_denied, timeout or unavailable.
	GeolocationFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "canvass_geolocation_fallbacks_total",
		Help: "Initial map centers that fell back to the default coordinate, by reason",
	}, []string{"reason"})
	// HTTPRequestsTotal counts served requests by chi route pattern.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "canvass_http_requests_total",
		Help: "HTTP requests by route pattern and status code",
	}, []string{"route", "code"})
	// HTTPRequestDurationMs observes request latency by route pattern.
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "canvass_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(ClusterBuildsTotal)
	prometheus.MustRegister(ClusterBuildDurationMs)
	prometheus.MustRegister(SkippedBusinessesTotal)
	prometheus.MustRegister(ClusterCacheHitsTotal)
	prometheus.MustRegister(ClusterCacheMissesTotal)
	prometheus.MustRegister(GeolocationFallbacksTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
