// Package metrics exposes refresh activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder records refresh activity on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	resumeUpdates *prometheus.CounterVec
	tokenRefresh  *prometheus.CounterVec
	ticks         *prometheus.CounterVec
	tickDuration  prometheus.Histogram
}

// NewRecorder creates a recorder with process and Go runtime collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		resumeUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hh_resume_updates_total",
				Help: "Total number of resume update calls by outcome",
			},
			[]string{"outcome"},
		),
		tokenRefresh: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hh_token_refreshes_total",
				Help: "Total number of token grants by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ticks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hh_ticks_total",
				Help: "Total number of refresh cycles by outcome",
			},
			[]string{"outcome"},
		),
		tickDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hh_tick_duration_seconds",
				Help:    "Duration of refresh cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ResumeUpdate records one résumé update attempt.
func (r *Recorder) ResumeUpdate(outcome domain.CallOutcome) {
	r.resumeUpdates.WithLabelValues(outcome.String()).Inc()
}

// TokenRefresh records one token grant.
func (r *Recorder) TokenRefresh(initial bool, err error) {
	kind := "refresh"
	if initial {
		kind = "initial"
	}
	r.tokenRefresh.WithLabelValues(kind, outcomeLabel(err)).Inc()
}

// Tick records a completed refresh cycle.
func (r *Recorder) Tick(err error, elapsed time.Duration) {
	r.ticks.WithLabelValues(outcomeLabel(err)).Inc()
	r.tickDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
