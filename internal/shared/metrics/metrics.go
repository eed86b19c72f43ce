package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careermap"

// Flow outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeSchemaInvalid = "schema_invalid"
	OutcomeError         = "error"
)

var (
	// Registry holds every collector exposed on /metrics.
	Registry = prometheus.NewRegistry()

	flowCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_flow_calls_total",
		Help:      "LLM flow invocations by flow and outcome.",
	}, []string{"flow", "outcome"})

	flowDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_flow_duration_seconds",
		Help:      "LLM flow latency in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"flow"})

	projectionNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mindmap_visible_nodes",
		Help:      "Visible node count per mind-map projection.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mindmap_exports_total",
		Help:      "Mind-map exports by format and outcome.",
	}, []string{"format", "outcome"})
)

func init() {
	Registry.MustRegister(
		flowCalls,
		flowDuration,
		projectionNodes,
		exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveFlow records one LLM flow call.
func ObserveFlow(flow, outcome string, elapsed time.Duration) {
	flowCalls.WithLabelValues(flow, outcome).Inc()
	if elapsed < 0 {
		elapsed = 0
	}
	flowDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// ObserveProjection records the size of a computed projection.
func ObserveProjection(visibleNodes int) {
	if visibleNodes < 0 {
		visibleNodes = 0
	}
	projectionNodes.Observe(float64(visibleNodes))
}

// IncExport counts an export attempt.
func IncExport(format, outcome string) {
	exports.WithLabelValues(format, outcome).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
