package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PostsPublishedTotal counts publish outcomes by destination.
	PostsPublishedTotal *prometheus.CounterVec
	// PreviewsTotal counts preview generations by outcome.
	PreviewsTotal *prometheus.CounterVec
	// UpstreamRequestsTotal counts outbound calls to backend services.
	UpstreamRequestsTotal *prometheus.CounterVec
	// UpstreamLatency records outbound request latency in milliseconds.
	UpstreamLatency *prometheus.HistogramVec
	// SheetWritebacksTotal counts work-queue write-back outcomes.
	SheetWritebacksTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PostsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_published_total",
			Help:      "Count of post publish outcomes by destination.",
		}, []string{"destination", "result"})
		PreviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_total",
			Help:      "Count of post preview generations by outcome.",
		}, []string{"result"})
		UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Count of outbound requests to backend services by outcome.",
		}, []string{"target", "result"})
		UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_ms",
			Help:      "Latency of outbound backend requests in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"target"})
		SheetWritebacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_writebacks_total",
			Help:      "Count of spreadsheet write-back outcomes.",
		}, []string{"result"})

		registerCollector(reg, PostsPublishedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PostsPublishedTotal = v
			}
		})
		registerCollector(reg, PreviewsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PreviewsTotal = v
			}
		})
		registerCollector(reg, UpstreamRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				UpstreamRequestsTotal = v
			}
		})
		registerCollector(reg, UpstreamLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				UpstreamLatency = v
			}
		})
		registerCollector(reg, SheetWritebacksTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SheetWritebacksTotal = v
			}
		})
	})
}
