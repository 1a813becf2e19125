package providers

import (
	"time"
	"worldinfo/internal/services"
	"worldinfo/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	ObserveIngest(result services.IngestResult)
	IncFetchTotal(outcome string)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	snapshotsIngested   *prometheus.CounterVec
	fetchTotal          *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveIngest(result services.IngestResult) {
	m.snapshotsIngested.WithLabelValues("appended").Add(float64(result.Appended))
	m.snapshotsIngested.WithLabelValues("duplicate").Add(float64(result.Duplicates))
	m.snapshotsIngested.WithLabelValues("skipped").Add(float64(result.Skipped))
}

func (m *MetricsProvider) IncFetchTotal(outcome string) {
	m.fetchTotal.WithLabelValues(outcome).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service services.TrackerServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldinfo_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worldinfo_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldinfo_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldinfo_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldinfo_persistence_duration_seconds",
			Help:    "Duration of history persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		snapshotsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldinfo_snapshots_ingested_total",
			Help: "Snapshots seen by ingest, by outcome",
		}, []string{"outcome"}),

		fetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldinfo_fetch_total",
			Help: "Upstream fetches, by outcome",
		}, []string{"outcome"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "worldinfo_entities_total",
		Help: "Number of worlds with recorded history",
	}, func() float64 {
		return float64(service.GetEntityCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "worldinfo_snapshots_total",
		Help: "Number of recorded snapshots across all worlds",
	}, func() float64 {
		return float64(service.GetSnapshotCount())
	})

	return m
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) ObserveIngest(_ services.IngestResult)            {}
func (n *noopMetrics) IncFetchTotal(_ string)                           {}
