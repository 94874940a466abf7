package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InstrumentService encapsulates Prometheus instrumentation for the ingest
// and aggregation pipeline.
type InstrumentService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	aggregationDuration *prometheus.HistogramVec
	rowsParsed          *prometheus.CounterVec
	rowsRejected        prometheus.Counter
	refreshTotal        prometheus.Counter
	refreshFailures     prometheus.Counter
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
}

// NewInstrumentService registers the core Prometheus collectors.
func NewInstrumentService() *InstrumentService {
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

	aggregationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aggregation_duration_seconds",
		Help:    "Duration of metric aggregation passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	rowsParsed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rows_parsed_total",
		Help: "Raw rows successfully normalized, by source",
	}, []string{"source"})

	rowsRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rows_rejected_total",
		Help: "Raw rows rejected during normalization",
	})

	refreshTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_refresh_total",
		Help: "Dataset refresh attempts",
	})

	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_refresh_failures_total",
		Help: "Dataset refresh attempts that failed",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, aggregationDuration,
		rowsParsed, rowsRejected, refreshTotal, refreshFailures,
		cacheLatency, cacheWrite, cacheHits, cacheMisses, goroutines)

	return &InstrumentService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		aggregationDuration: aggregationDuration,
		rowsParsed:          rowsParsed,
		rowsRejected:        rowsRejected,
		refreshTotal:        refreshTotal,
		refreshFailures:     refreshFailures,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *InstrumentService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records per-request metrics.
func (m *InstrumentService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAggregation records the duration of one aggregation pass.
func (m *InstrumentService) ObserveAggregation(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.aggregationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordBatch tracks normalization outcomes for one row batch.
func (m *InstrumentService) RecordBatch(source string, parsed, rejected int) {
	if m == nil {
		return
	}
	m.rowsParsed.WithLabelValues(source).Add(float64(parsed))
	if rejected > 0 {
		m.rowsRejected.Add(float64(rejected))
	}
}

// RecordRefresh tracks a dataset refresh attempt.
func (m *InstrumentService) RecordRefresh(err error) {
	if m == nil {
		return
	}
	m.refreshTotal.Inc()
	if err != nil {
		m.refreshFailures.Inc()
	}
}

// RecordCacheOperation records a cache lookup.
func (m *InstrumentService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration of cache set operations.
func (m *InstrumentService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}
