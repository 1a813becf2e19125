package providers

import (
	"testing"
	"time"
	"worldinfo/internal/models"
	"worldinfo/internal/services"
	"worldinfo/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapRegistry(t *testing.T) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		fresh := prometheus.NewRegistry()
		prometheus.DefaultRegisterer = fresh
		prometheus.DefaultGatherer = fresh
	})
	return reg
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf, services.NewTrackerService(conf))
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/worlds", 200)
	m.ObserveRequestDuration("/worlds", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.ObserveIngest(services.IngestResult{Appended: 1})
	m.IncFetchTotal("ok")
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	swapRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, services.NewTrackerService(conf))
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_Counters(t *testing.T) {
	swapRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, services.NewTrackerService(conf)).(*MetricsProvider)

	m.IncRequestsTotal("GET /worlds", 200)
	m.IncRequestsTotal("GET /worlds", 404)
	m.ObserveRequestDuration("GET /worlds", 5*time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.ObserveIngest(services.IngestResult{Appended: 3, Duplicates: 2, Skipped: 1})
	m.IncFetchTotal("error")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET /worlds", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.snapshotsIngested.WithLabelValues("appended")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.snapshotsIngested.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotsIngested.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("error")))
}

func TestMetricsProvider_GaugesFollowService(t *testing.T) {
	reg := swapRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	svc := services.NewTrackerService(conf)
	NewMetricsProvider(conf, svc)
	svc.IngestRaw([]models.RawRecord{{"id": "a"}, {"id": "b"}}, time.Unix(100, 0))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		if f.GetName() == "worldinfo_entities_total" || f.GetName() == "worldinfo_snapshots_total" {
			values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["worldinfo_entities_total"])
	assert.Equal(t, 2.0, values["worldinfo_snapshots_total"])
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{502, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
