package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	derivationDuration *prometheus.HistogramVec
	cohortSize         prometheus.Histogram
	marksEntered       *prometheus.CounterVec
	exportsRendered    *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_cache_latency_seconds",
		Help:    "Latency for export cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_cache_write_seconds",
		Help:    "Latency for export cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "export_cache_hit_ratio",
		Help: "Ratio of export cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_cache_hits_total",
		Help: "Total export cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_cache_misses_total",
		Help: "Total export cache misses",
	})

	derivationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "result_derivation_duration_seconds",
		Help:    "Time spent aggregating and ranking a cohort",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
	}, []string{"operation", "grading_system"})

	cohortSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "result_cohort_size",
		Help:    "Number of students per derived cohort",
		Buckets: []float64{10, 25, 50, 100, 200, 400},
	})

	marksEntered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marks_entered_total",
		Help: "Marks saved through the entry flow",
	}, []string{"outcome"})

	exportsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "result_exports_total",
		Help: "Result sheets served by format and cache source",
	}, []string{"format", "source"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		derivationDuration, cohortSize, marksEntered, exportsRendered, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		derivationDuration: derivationDuration,
		cohortSize:         cohortSize,
		marksEntered:       marksEntered,
		exportsRendered:    exportsRendered,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDerivation records how long a cohort derivation took and its size.
func (m *MetricsService) ObserveDerivation(operation, gradingSystem string, students int, duration time.Duration) {
	if m == nil {
		return
	}
	m.derivationDuration.WithLabelValues(operation, gradingSystem).Observe(duration.Seconds())
	m.cohortSize.Observe(float64(students))
}

// RecordMarksEntry counts saved and skipped entries.
func (m *MetricsService) RecordMarksEntry(saved, skipped int) {
	if m == nil {
		return
	}
	m.marksEntered.WithLabelValues("saved").Add(float64(saved))
	m.marksEntered.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordExport counts a served result sheet.
func (m *MetricsService) RecordExport(format string, cached bool) {
	if m == nil {
		return
	}
	source := "rendered"
	if cached {
		source = "cache"
	}
	m.exportsRendered.WithLabelValues(format, source).Inc()
}
