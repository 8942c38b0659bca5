// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline, the safety monitor, and the reranker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create isolated instances.
// All record methods are safe on a nil receiver, which lets callers treat
// instrumentation as optional.
type Metrics struct {
	registry *prometheus.Registry

	feedFetches    *prometheus.CounterVec
	feedFetchFails *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	itemsIngested  prometheus.Counter
	itemsPersisted prometheus.Counter

	actionsAllowed prometheus.Counter
	actionsBlocked *prometheus.CounterVec

	trainingRuns *prometheus.CounterVec
	rerankCalls  prometheus.Counter
}

// New builds a Metrics instance with its own registry, pre-registering the
// standard Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openlinkedin_feed_fetches_total",
			Help: "Feed fetch attempts by source.",
		}, []string{"source"}),
		feedFetchFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openlinkedin_feed_fetch_failures_total",
			Help: "Failed feed fetches by source.",
		}, []string{"source"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openlinkedin_feed_cache_hits_total",
			Help: "Feed cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openlinkedin_feed_cache_misses_total",
			Help: "Feed cache misses.",
		}),
		itemsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openlinkedin_feed_items_ingested_total",
			Help: "Raw feed items parsed from sources.",
		}),
		itemsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openlinkedin_feed_items_persisted_total",
			Help: "Scored feed items written to the store.",
		}),
		actionsAllowed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openlinkedin_safety_actions_allowed_total",
			Help: "External actions the safety monitor allowed.",
		}),
		actionsBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openlinkedin_safety_actions_blocked_total",
			Help: "External actions the safety monitor refused.",
		}, []string{"reason"}),
		trainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openlinkedin_reranker_training_runs_total",
			Help: "Reranker training attempts by outcome.",
		}, []string{"status"}),
		rerankCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openlinkedin_reranker_rerank_calls_total",
			Help: "Feed rerank invocations.",
		}),
	}
	registry.MustRegister(
		m.feedFetches, m.feedFetchFails, m.cacheHits, m.cacheMisses,
		m.itemsIngested, m.itemsPersisted,
		m.actionsAllowed, m.actionsBlocked,
		m.trainingRuns, m.rerankCalls,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FeedFetch(source string) {
	if m == nil {
		return
	}
	m.feedFetches.WithLabelValues(source).Inc()
}

func (m *Metrics) FeedFetchFailed(source string) {
	if m == nil {
		return
	}
	m.feedFetchFails.WithLabelValues(source).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) ItemsIngested(n int) {
	if m == nil {
		return
	}
	m.itemsIngested.Add(float64(n))
}

func (m *Metrics) ItemsPersisted(n int) {
	if m == nil {
		return
	}
	m.itemsPersisted.Add(float64(n))
}

func (m *Metrics) ActionAllowed() {
	if m == nil {
		return
	}
	m.actionsAllowed.Inc()
}

func (m *Metrics) ActionBlocked(reason string) {
	if m == nil {
		return
	}
	m.actionsBlocked.WithLabelValues(reason).Inc()
}

func (m *Metrics) TrainingRun(status string) {
	if m == nil {
		return
	}
	m.trainingRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) RerankCall() {
	if m == nil {
		return
	}
	m.rerankCalls.Inc()
}
