package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/class-control-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	cascadeFailures *prometheus.CounterVec
	transfers       *prometheus.CounterVec
	checkIns        *prometheus.CounterVec
	exportJobs      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	storeOpCount         uint64
	storeOpDurationTotal uint64
	cascadeFailureCount  uint64
	transferCount        uint64
	checkInCount         uint64
}

// NewMetricsService registers core Prometheus collectors.
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
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_operation_duration_seconds",
		Help:    "Duration of document store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_operation_errors_total",
		Help: "Document store operations that returned an error",
	}, []string{"op"})

	cascadeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_item_failures_total",
		Help: "Items a deletion cascade could not remove",
	}, []string{"operation"})

	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_transfers_total",
		Help: "Student transfers by outcome",
	}, []string{"outcome"})

	checkIns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "self_checkins_total",
		Help: "QR self check-ins by outcome",
	}, []string{"outcome"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overview_exports_total",
		Help: "Overview export jobs by format and outcome",
	}, []string{"format", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		storeDuration, storeErrors, cascadeFailures, transfers, checkIns, exportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		storeDuration:   storeDuration,
		storeErrors:     storeErrors,
		cascadeFailures: cascadeFailures,
		transfers:       transfers,
		checkIns:        checkIns,
		exportJobs:      exportJobs,
	}
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
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
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
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

// ObserveStoreOperation records a document store call. It satisfies docstore.Observer.
func (m *MetricsService) ObserveStoreOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
	atomic.AddUint64(&m.storeOpCount, 1)
	atomic.AddUint64(&m.storeOpDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCascadeFailure counts an item a cascade left behind.
func (m *MetricsService) RecordCascadeFailure(operation string) {
	if m == nil {
		return
	}
	m.cascadeFailures.WithLabelValues(operation).Inc()
	atomic.AddUint64(&m.cascadeFailureCount, 1)
}

// RecordTransfer counts a transfer attempt by outcome.
func (m *MetricsService) RecordTransfer(outcome string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(outcome).Inc()
	if outcome == outcomeSuccess {
		atomic.AddUint64(&m.transferCount, 1)
	}
}

// RecordCheckIn counts a self check-in attempt by outcome.
func (m *MetricsService) RecordCheckIn(outcome string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(outcome).Inc()
	if outcome == outcomeSuccess {
		atomic.AddUint64(&m.checkInCount, 1)
	}
}

// RecordExport counts a finished or failed export job.
func (m *MetricsService) RecordExport(format models.ExportFormat, outcome string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(format), outcome).Inc()
}

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeRefused = "refused"
)

// Snapshot returns aggregated metrics suitable for the system endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	storeOps := atomic.LoadUint64(&m.storeOpCount)
	storeDuration := atomic.LoadUint64(&m.storeOpDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgStoreMs float64
	if storeOps > 0 {
		avgStoreMs = float64(storeDuration) / float64(storeOps) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreOperations:          storeOps,
		AverageStoreOperationMs:  avgStoreMs,
		CascadeFailures:          atomic.LoadUint64(&m.cascadeFailureCount),
		Transfers:                atomic.LoadUint64(&m.transferCount),
		CheckIns:                 atomic.LoadUint64(&m.checkInCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
