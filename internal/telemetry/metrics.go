// Package telemetry exposes Prometheus metrics for analysis runs, their phases,
// partial failures and the result cache. Metrics are registered on an injected
// registry so tests and embedders never touch the global default.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "archlens"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	phaseDuration   *prometheus.HistogramVec
	analyses        *prometheus.CounterVec
	partialFailures *prometheus.CounterVec
	warnings        prometheus.Counter
	tokensUsed      prometheus.Histogram
	semanticTokens  prometheus.Counter

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions *prometheus.CounterVec
}

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: phase (surface, structural, semantic, synthesis)
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each analysis phase in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"phase"}),

		// Labels: depth, outcome (success, degraded, failed)
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total analysis runs by depth and outcome",
		}, []string{"depth", "outcome"}),

		// Labels: layer (structural, semantic)
		partialFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "partial_failures_total",
			Help:      "Total partial failures recorded on results by layer",
		}, []string{"layer"}),

		warnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "warnings_total",
			Help:      "Total warnings recorded on results",
		}),

		tokensUsed: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "tokens_used",
			Help:      "Estimated tokens consumed per analysis run",
			Buckets:   prometheus.ExponentialBuckets(1000, 2, 10),
		}),

		semanticTokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantic",
			Name:      "tokens_total",
			Help:      "Total tokens reported by the semantic service",
		}),

		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total result cache hits",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total result cache misses",
		}),
		// Labels: reason (capacity, expired)
		cacheEvictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total result cache evictions by reason",
		}, []string{"reason"}),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePhase records how long a phase took
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordAnalysis counts a finished run
func (m *Metrics) RecordAnalysis(depth, outcome string, tokens int) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(depth, outcome).Inc()
	if tokens > 0 {
		m.tokensUsed.Observe(float64(tokens))
	}
}

// RecordPartialFailure counts one partial failure
func (m *Metrics) RecordPartialFailure(layer string) {
	if m == nil {
		return
	}
	m.partialFailures.WithLabelValues(layer).Inc()
}

// RecordWarnings counts warnings added to a result
func (m *Metrics) RecordWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.warnings.Add(float64(n))
}

// RecordSemanticTokens counts tokens reported by the service
func (m *Metrics) RecordSemanticTokens(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.semanticTokens.Add(float64(n))
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) CacheEvicted(reason string) {
	if m != nil {
		m.cacheEvictions.WithLabelValues(reason).Inc()
	}
}
