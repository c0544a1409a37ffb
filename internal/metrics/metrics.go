package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redmerce_chat_turns_total",
			Help: "Total number of chat turns by response type and status",
		},
		[]string{"type", "status"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redmerce_tool_calls_total",
			Help: "Total number of pipeline tool calls by outcome",
		},
		[]string{"tool", "outcome"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redmerce_tool_duration_seconds",
			Help:    "Duration of pipeline tool calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"tool"},
	)

	TurnsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redmerce_chat_turns_active",
			Help: "Number of chat turns currently being processed",
		},
	)
)

const (
	ToolSearch  = "find_products"
	ToolDetails = "get_product_details"

	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// ObserveTool records one call of tool that started at start.
func ObserveTool(tool, outcome string, start time.Time) {
	ToolCalls.WithLabelValues(tool, outcome).Inc()
	ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}
