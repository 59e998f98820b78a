package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OpportunitiesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foliogate_opportunities_generated_total",
		Help: "The total number of opportunities returned, by category",
	}, []string{"category"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foliogate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foliogate_requests_total",
		Help: "HTTP requests served, by endpoint and status",
	}, []string{"endpoint", "status"})

	SnapshotCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foliogate_snapshot_cache_total",
		Help: "Portfolio snapshot cache lookups",
	}, []string{"result"})
)
