package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/review-desk-api/internal/models"
)

// MetricsService owns the Prometheus registry and a few in-process counters for the JSON snapshot.
// A nil *MetricsService is valid and records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Histogram
	cacheWrite       prometheus.Histogram
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	suggestions      *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	submitDuration   *prometheus.HistogramVec
	syncedItems      *prometheus.CounterVec
	syncFailures     *prometheus.CounterVec
	exportsGenerated *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	submitFailures       uint64

	mu              sync.Mutex
	suggestionCount map[string]uint64
	transitionCount map[string]uint64
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reply_suggestions_total",
			Help: "Reply suggestions by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pending_reply_transitions_total",
			Help: "Pending reply state transitions by target status",
		}, []string{"status"}),
		submitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reply_submission_duration_seconds",
			Help:    "Latency of reply submissions to Google",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"result"}),
		syncedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Locations and reviews upserted by sync",
		}, []string{"kind"}),
		syncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_failures_total",
			Help: "Failed sync runs",
		}, []string{"kind"}),
		exportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exports_generated_total",
			Help: "Reply history exports by format",
		}, []string{"format"}),
		suggestionCount: make(map[string]uint64),
		transitionCount: make(map[string]uint64),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHits, m.cacheMisses,
		m.suggestions, m.transitions, m.submitDuration,
		m.syncedItems, m.syncFailures, m.exportsGenerated,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordSuggestion counts a Suggest call by outcome ("created", "reset", "already_pending", ...).
func (m *MetricsService) RecordSuggestion(outcome string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(outcome).Inc()
	m.mu.Lock()
	m.suggestionCount[outcome]++
	m.mu.Unlock()
}

// RecordTransition counts a pending reply moving to status.
func (m *MetricsService) RecordTransition(status models.PendingReplyStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(status)).Inc()
	m.mu.Lock()
	m.transitionCount[string(status)]++
	m.mu.Unlock()
}

// ObserveSubmission records the latency of a reply submission to Google.
func (m *MetricsService) ObserveSubmission(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		atomic.AddUint64(&m.submitFailures, 1)
	}
	m.submitDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *MetricsService) RecordSynced(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.syncedItems.WithLabelValues(kind).Add(float64(n))
}

func (m *MetricsService) RecordSyncFailure(kind string) {
	if m == nil {
		return
	}
	m.syncFailures.WithLabelValues(kind).Inc()
}

func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportsGenerated.WithLabelValues(format).Inc()
}

// Snapshot aggregates the in-process counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	snap := models.MetricsSnapshot{
		RequestsTotal:      requests,
		CacheHits:          hits,
		CacheMisses:        misses,
		SubmissionFailures: atomic.LoadUint64(&m.submitFailures),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
		Suggestions:        map[string]uint64{},
		Transitions:        map[string]uint64{},
	}
	if total := hits + misses; total > 0 {
		snap.CacheHitRatio = float64(hits) / float64(total)
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	for k, v := range m.suggestionCount {
		snap.Suggestions[k] = v
	}
	for k, v := range m.transitionCount {
		snap.Transitions[k] = v
	}
	m.mu.Unlock()
	return snap
}
