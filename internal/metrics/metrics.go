// Package metrics holds the Prometheus collectors for provider calls, the
// adapter cache and the content pipeline. They are exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pagesmith"

var (
	// ProviderRequests counts provider calls.
	// Labels: provider (gemini, openai, anthropic), outcome (success, error)
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Provider generateText calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	// ProviderDuration measures provider call latency.
	// Labels: provider
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Provider generateText latency.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
	}, []string{"provider"})

	// AdapterConstructions counts provider adapters built by the model router.
	// Labels: provider
	AdapterConstructions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "router",
		Name:      "adapter_constructions_total",
		Help:      "Provider adapters constructed after a configuration change.",
	}, []string{"provider"})

	// PipelineFiles counts per-file outcomes of the content pipeline.
	// Labels: outcome (success, failed)
	PipelineFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "files_total",
		Help:      "Files attempted by the content pipeline by outcome.",
	}, []string{"outcome"})

	// EnhancementFallbacks counts files generated from their original
	// directive because enhancement failed.
	EnhancementFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "enhancement_fallbacks_total",
		Help:      "Enhancement failures that fell back to the planned directive.",
	})

	// StageFailures counts failed stage invocations.
	// Labels: stage (analysis, structure, content, modification), kind
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stage",
		Name:      "failures_total",
		Help:      "Failed stage invocations by stage and error kind.",
	}, []string{"stage", "kind"})

	// HTTPRequests counts API requests.
	// Labels: route, method, status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template, method and status code.",
	}, []string{"route", "method", "status"})
)
