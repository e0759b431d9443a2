// Package metrics exposes Prometheus instrumentation for graph builds.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/markgraph/internal/graph"
)

const namespace = "markgraph"

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder owns a private registry so several instances (tests, CLI runs)
// never collide on the default one.
type Recorder struct {
	reg *prometheus.Registry

	buildDuration  prometheus.Histogram
	buildsTotal    *prometheus.CounterVec
	documents      prometheus.Gauge
	links          prometheus.Gauge
	dangling       prometheus.Gauge
	degradedTotal  prometheus.Counter
	searchDuration prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time taken to build the content graph.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		buildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Graph builds by outcome.",
		}, []string{"outcome"}),
		documents: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents in the published graph.",
		}),
		links: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links",
			Help:      "Outgoing links in the published graph.",
		}),
		dangling: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dangling_links",
			Help:      "Links whose target is not a document.",
		}),
		degradedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_documents_total",
			Help:      "Documents that could not be read or parsed.",
		}),
		searchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search index query latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neighborhood_cache_hits_total",
			Help:      "Neighborhood lookups served from cache.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neighborhood_cache_misses_total",
			Help:      "Neighborhood lookups computed from the graph.",
		}),
	}
}

// ObserveBuild records one build. On failure the gauges keep describing the
// graph that is still published.
func (r *Recorder) ObserveBuild(stats graph.Stats, took time.Duration, err error) {
	r.buildDuration.Observe(took.Seconds())
	if err != nil {
		r.buildsTotal.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	r.buildsTotal.WithLabelValues(OutcomeSuccess).Inc()
	r.documents.Set(float64(stats.Documents))
	r.links.Set(float64(stats.Links))
	r.dangling.Set(float64(stats.Dangling))
	r.degradedTotal.Add(float64(stats.Degraded))
}

// ObserveSearch records the latency of one search query.
func (r *Recorder) ObserveSearch(took time.Duration) {
	r.searchDuration.Observe(took.Seconds())
}

// CacheHit counts a neighborhood served from cache.
func (r *Recorder) CacheHit() { r.cacheHits.Inc() }

// CacheMiss counts a neighborhood computed from the graph.
func (r *Recorder) CacheMiss() { r.cacheMisses.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
