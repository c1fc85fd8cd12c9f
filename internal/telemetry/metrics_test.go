package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordAnalysis("standard", "success", 5000)
	m.RecordAnalysis("standard", "success", 0)
	m.RecordAnalysis("deep", "degraded", 9000)
	m.RecordPartialFailure("semantic")
	m.RecordWarnings(2)
	m.RecordWarnings(0)
	m.RecordSemanticTokens(150)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.CacheEvicted("capacity")

	if got := testutil.ToFloat64(m.analyses.WithLabelValues("standard", "success")); got != 2 {
		t.Errorf("standard/success runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.analyses.WithLabelValues("deep", "degraded")); got != 1 {
		t.Errorf("deep/degraded runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.partialFailures.WithLabelValues("semantic")); got != 1 {
		t.Errorf("semantic partial failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.warnings); got != 2 {
		t.Errorf("warnings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.semanticTokens); got != 150 {
		t.Errorf("semantic tokens = %v, want 150", got)
	}
	if got := testutil.ToFloat64(m.cacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cacheMisses); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheEvictions.WithLabelValues("capacity")); got != 1 {
		t.Errorf("capacity evictions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.tokensUsed); got != 1 {
		t.Errorf("tokens histogram series = %d, want 1", got)
	}
}

func TestMetrics_PhaseHistogram(t *testing.T) {
	m := New(nil)
	m.ObservePhase("surface", 20*time.Millisecond)
	m.ObservePhase("structural", time.Second)

	if got := testutil.CollectAndCount(m.phaseDuration); got != 2 {
		t.Errorf("phase series = %d, want 2", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePhase("surface", time.Second)
	m.RecordAnalysis("surface", "success", 1)
	m.RecordPartialFailure("structural")
	m.RecordWarnings(1)
	m.RecordSemanticTokens(1)
	m.CacheHit()
	m.CacheMiss()
	m.CacheEvicted("expired")
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "archlens_cache_hits_total 1") {
		t.Errorf("metrics output missing cache hits:\n%s", body)
	}
}
