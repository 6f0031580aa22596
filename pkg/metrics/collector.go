// Package metrics exposes Prometheus metrics for subprocess runs.
package metrics

import (
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Run outcomes, used as the outcome label on the runs counter.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomePanic    = "panic"
	OutcomeInternal = "internal"
)

// Collector tracks subprocess run outcomes on a private registry, so two
// collectors in one process never collide.
type Collector struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	active   prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procbox_runs_total",
				Help: "Subprocess runs by task and outcome",
			},
			[]string{"task", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "procbox_run_duration_seconds",
				Help:    "Wall-clock duration of subprocess runs",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"task"},
		),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "procbox_active_children",
				Help: "Child processes currently running",
			},
		),
	}

	c.registry.MustRegister(c.runs, c.duration, c.active)
	return c
}

// RunStarted records a child spawn.
func (c *Collector) RunStarted() {
	c.active.Inc()
}

// RunFinished records the terminal outcome of a run.
func (c *Collector) RunFinished(task, outcome string, elapsed time.Duration) {
	c.active.Dec()
	c.runs.WithLabelValues(task, outcome).Inc()
	c.duration.WithLabelValues(task).Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteText dumps the current metrics in Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return err
		}
	}
	return nil
}
