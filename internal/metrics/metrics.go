package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is dedicated so tests and embedding programs never collide with
// the default global registry.
var Registry = prometheus.NewRegistry()

var (
	FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_fetch_total",
		Help: "Source fetch attempts by outcome.",
	}, []string{"source", "outcome"})

	FetchFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_fetch_fallback_total",
		Help: "Fetches served by the secondary source after the primary failed.",
	}, []string{"symbol"})

	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentinel_fetch_duration_seconds",
		Help:    "Latency of a single source request.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source"})

	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_analysis_duration_seconds",
		Help:    "Duration of a full analysis run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	AlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_alerts_total",
		Help: "Alerts emitted by kind.",
	}, []string{"kind"})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_cache_hits_total",
		Help: "Price series served from the cache.",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_cache_misses_total",
		Help: "Price series lookups that went to the network.",
	})
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var once sync.Once

// Init registers every collector on Registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		Registry.MustRegister(
			FetchTotal,
			FetchFallbackTotal,
			FetchDuration,
			AnalysisDuration,
			AlertsTotal,
			CacheHits,
			CacheMisses,
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
