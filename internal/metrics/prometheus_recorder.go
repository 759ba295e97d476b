package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	modules         *prom.CounterVec
	artifacts       *prom.CounterVec
	extractDuration prom.Histogram
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers the stage metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		modules: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docstage",
			Name:      "modules_total",
			Help:      "Modules seen by the documentation stage by outcome",
		}, []string{"outcome"}),
		artifacts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docstage",
			Name:      "artifacts_emitted_total",
			Help:      "Artifacts emitted by kind",
		}, []string{"kind"}),
		extractDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docstage",
			Name:      "extract_duration_seconds",
			Help:      "Duration of documentation extraction per module",
			Buckets:   prom.DefBuckets,
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docstage",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docstage",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.modules, pr.artifacts, pr.extractDuration, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) IncModule(outcome ModuleOutcome) {
	if p == nil {
		return
	}
	p.modules.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddArtifacts(kind ArtifactKind, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.artifacts.WithLabelValues(string(kind)).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveExtractDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.extractDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}
