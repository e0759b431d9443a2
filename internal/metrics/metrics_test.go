package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/starford/markgraph/internal/graph"
)

func TestObserveBuild_Success(t *testing.T) {
	r := New()
	r.ObserveBuild(graph.Stats{Documents: 3, Links: 5, Dangling: 1, Degraded: 2}, 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(r.documents); got != 3 {
		t.Errorf("documents = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.links); got != 5 {
		t.Errorf("links = %v, want 5", got)
	}
	if got := testutil.ToFloat64(r.dangling); got != 1 {
		t.Errorf("dangling = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.degradedTotal); got != 2 {
		t.Errorf("degraded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.buildsTotal.WithLabelValues(OutcomeSuccess)); got != 1 {
		t.Errorf("success builds = %v, want 1", got)
	}
}

func TestObserveBuild_FailureKeepsGauges(t *testing.T) {
	r := New()
	r.ObserveBuild(graph.Stats{Documents: 4}, time.Millisecond, nil)
	r.ObserveBuild(graph.Stats{}, time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(r.documents); got != 4 {
		t.Errorf("documents = %v, want 4 after failed build", got)
	}
	if got := testutil.ToFloat64(r.buildsTotal.WithLabelValues(OutcomeFailure)); got != 1 {
		t.Errorf("failed builds = %v, want 1", got)
	}
}

func TestCacheCounters(t *testing.T) {
	r := New()
	r.CacheHit()
	r.CacheHit()
	r.CacheMiss()
	if got := testutil.ToFloat64(r.cacheHits); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.cacheMisses); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveBuild(graph.Stats{Documents: 7}, time.Millisecond, nil)
	r.ObserveSearch(time.Millisecond)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"markgraph_documents 7",
		"markgraph_build_duration_seconds_count 1",
		"markgraph_search_duration_seconds_count 1",
		`markgraph_builds_total{outcome="success"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveBuild(graph.Stats{Documents: 1}, time.Millisecond, nil)
	if got := testutil.ToFloat64(b.documents); got != 0 {
		t.Errorf("second recorder saw %v documents", got)
	}
}
