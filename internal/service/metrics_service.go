package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API
// and the wizard engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	saveFailures    *prometheus.CounterVec
	submits         *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	liveSessions    *prometheus.GaugeVec
}

// NewMetricsService registers the collectors.
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

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_transitions_total",
		Help: "Wizard step transitions by wizard kind and action",
	}, []string{"wizard", "action"})

	saveFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_save_failures_total",
		Help: "Draft saves that failed and blocked a forward transition",
	}, []string{"wizard"})

	submits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_submits_total",
		Help: "Final submissions by wizard kind and outcome",
	}, []string{"wizard", "outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	liveSessions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wizard_live_sessions",
		Help: "Currently live wizard sessions",
	}, []string{"wizard"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, saveFailures, submits, cacheHits, cacheMisses, liveSessions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitions:     transitions,
		saveFailures:    saveFailures,
		submits:         submits,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		liveSessions:    liveSessions,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordTransition counts a wizard transition by kind and action.
func (m *MetricsService) RecordTransition(wizard WizardKind, action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(wizard), action).Inc()
}

// RecordSaveFailure counts a blocked forward transition.
func (m *MetricsService) RecordSaveFailure(wizard WizardKind) {
	if m == nil {
		return
	}
	m.saveFailures.WithLabelValues(string(wizard)).Inc()
}

// RecordSubmit counts a final submission outcome.
func (m *MetricsService) RecordSubmit(wizard WizardKind, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.submits.WithLabelValues(string(wizard), outcome).Inc()
}

// RecordCacheOperation counts a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// SetLiveSessions publishes the live session gauge for a wizard kind.
func (m *MetricsService) SetLiveSessions(wizard WizardKind, count int) {
	if m == nil {
		return
	}
	m.liveSessions.WithLabelValues(string(wizard)).Set(float64(count))
}
