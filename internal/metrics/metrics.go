// Package metrics exposes turn, tool and session counters on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chartchat"

// Turn outcomes recorded on chartchat_turns_total.
const (
	OutcomeAnswered = "answered"
	OutcomeCommand  = "command"
)

// Recorder is the set of collectors the orchestrator and registry report to.
type Recorder struct {
	registry     *prometheus.Registry
	turns        *prometheus.CounterVec
	turnDuration prometheus.Histogram
	toolCalls    *prometheus.CounterVec
}

// New builds a Recorder with a fresh registry. sessions, when non-nil, is
// sampled on every scrape for the live session gauge.
func New(sessions func() int) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by outcome (answered, command, or the error kind).",
		}, []string{"outcome"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a turn from submission to reply.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool and status.",
		}, []string{"tool", "status"}),
	}

	r.registry.MustRegister(
		r.turns,
		r.turnDuration,
		r.toolCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sessions != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live conversation sessions.",
		}, func() float64 { return float64(sessions()) }))
	}
	return r
}

// ObserveTurn records one finished turn.
func (r *Recorder) ObserveTurn(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
	r.turnDuration.Observe(elapsed.Seconds())
}

// ObserveTool records one tool invocation. It matches tools.InvokeObserver.
func (r *Recorder) ObserveTool(name string, failed bool) {
	if r == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	r.toolCalls.WithLabelValues(name, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
