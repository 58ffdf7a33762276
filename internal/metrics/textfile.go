// Package metrics exports the outcome of a benchmark run as a Prometheus
// textfile, for node_exporter's textfile collector or a pushgateway sidecar.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"benchkeep/internal/compare"
	"benchkeep/internal/history"
)

const namespace = "benchkeep"

// Recorder holds the gauges for a single export. Each Recorder owns its
// registry so repeated exports in one process never collide.
type Recorder struct {
	registry *prometheus.Registry

	value     *prometheus.GaugeVec
	ratio     *prometheus.GaugeVec
	alerts    *prometheus.GaugeVec
	failures  *prometheus.GaugeVec
	timestamp *prometheus.GaugeVec
}

// NewRecorder registers the benchkeep gauges on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.value = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "measurement_value",
		Help:      "Latest measured value of a benchmark in its own unit",
	}, []string{"suite", "name", "unit"})

	r.ratio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "comparison_ratio",
		Help:      "Current value divided by the previous value of a benchmark",
	}, []string{"suite", "name"})

	r.alerts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alerts",
		Help:      "Number of benchmarks at or above the alert threshold",
	}, []string{"suite"})

	r.failures = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "failures",
		Help:      "Number of benchmarks at or above the fail threshold",
	}, []string{"suite"})

	r.timestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_timestamp_seconds",
		Help:      "Unix time at which the run was captured",
	}, []string{"suite"})

	r.registry.MustRegister(r.value, r.ratio, r.alerts, r.failures, r.timestamp)
	return r
}

// Observe records a run and the report produced by comparing it.
func (r *Recorder) Observe(suite string, run history.Run, report compare.Report) {
	for _, m := range run.Measurements {
		r.value.With(prometheus.Labels{"suite": suite, "name": m.Name, "unit": m.Unit}).Set(m.Value)
	}
	for _, c := range report.Comparisons {
		r.ratio.With(prometheus.Labels{"suite": suite, "name": c.Name}).Set(c.Ratio)
	}
	r.alerts.With(prometheus.Labels{"suite": suite}).Set(float64(len(report.Alerts)))
	r.failures.With(prometheus.Labels{"suite": suite}).Set(float64(len(report.Failures)))
	if !run.CapturedAt.IsZero() {
		r.timestamp.With(prometheus.Labels{"suite": suite}).Set(float64(run.CapturedAt.Unix()))
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes every recorded gauge to path in the text exposition
// format. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating metrics directory %s", dir)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "writing metrics textfile %s", path)
	}
	return nil
}

// WriteTextfile is a shorthand for recording a single run and writing it.
func WriteTextfile(path, suite string, run history.Run, report compare.Report) error {
	r := NewRecorder()
	r.Observe(suite, run, report)
	return r.WriteTextfile(path)
}
