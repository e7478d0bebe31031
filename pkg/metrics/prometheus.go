// Package metrics provides Prometheus metrics for the Peakline
// projection service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the Peakline service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core business metrics - projection throughput and shape
	previewsTotal   prometheus.Counter
	previewDuration prometheus.Histogram
	horizonDays     prometheus.Histogram
	goalsPerPlan    prometheus.Histogram

	// Plan quality metrics - how often plans degrade
	infeasibleGoals    prometheus.Counter
	conflictedGoals    prometheus.Counter
	contractViolations prometheus.Counter

	// Projection cache metrics
	cacheHits    prometheus.Counter
	cacheEntries prometheus.Gauge

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced error metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "peakline",
		subsystem:        "projection",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.previewsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "previews_total",
		Help:      "Total number of projection previews built",
	})

	m.previewDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "preview_duration_milliseconds",
		Help:      "Histogram of full projection build duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.horizonDays = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "horizon_days",
		Help:      "Distribution of projection horizon lengths in days",
		Buckets:   []float64{28, 56, 84, 112, 168, 252, 336, 400},
	})

	m.goalsPerPlan = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "goals_per_plan",
		Help:      "Distribution of goal counts per previewed plan",
		Buckets:   []float64{1, 2, 3, 4, 5, 6, 8},
	})

	m.infeasibleGoals = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "infeasible_goals_total",
		Help:      "Total goals flagged unreachable inside the safety caps",
	})

	m.conflictedGoals = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conflicted_goals_total",
		Help:      "Total goals flagged as conflicting with another goal's recovery window",
	})

	m.contractViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "contract_violations_total",
		Help:      "Total requests rejected for violating the engine input contract",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total previews served from the projection cache",
	})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Number of projections currently held in the cache",
	})

	// HTTP performance metrics - user experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced error metrics - detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System performance metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordPreview records one completed projection build.
func RecordPreview(elapsed time.Duration) {
	globalManager.previewsTotal.Inc()
	globalManager.previewDuration.Observe(float64(elapsed.Milliseconds()))
}

// ObserveHorizonDays records the horizon length of a built projection.
func ObserveHorizonDays(days int) {
	globalManager.horizonDays.Observe(float64(days))
}

// ObserveGoalsPerPlan records the goal count of a previewed plan.
func ObserveGoalsPerPlan(count int) {
	globalManager.goalsPerPlan.Observe(float64(count))
}

// RecordInfeasibleGoals adds to the infeasible goal counter.
func RecordInfeasibleGoals(count int) {
	globalManager.infeasibleGoals.Add(float64(count))
}

// RecordConflictedGoals adds to the conflicted goal counter.
func RecordConflictedGoals(count int) {
	globalManager.conflictedGoals.Add(float64(count))
}

// RecordContractViolation increments the contract violation counter.
func RecordContractViolation() {
	globalManager.contractViolations.Inc()
}

// RecordCacheHit increments the projection cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// UpdateCacheEntries sets the current projection cache size.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
