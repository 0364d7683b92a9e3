// Package metrics counts what a run emitted, skipped and warned about, and
// exports the totals in the Prometheus text format.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds one run's counters on a private registry.
type Recorder struct {
	reg      *prometheus.Registry
	emitted  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	warnings *prometheus.CounterVec
	duration prometheus.Gauge
	info     *prometheus.GaugeVec

	mu     sync.Mutex
	counts map[string]int
}

// New returns a recorder labelled with runID.
func New(runID string) *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "m3c",
			Name:      "entities_emitted_total",
			Help:      "Entities written to the graph, by category.",
		}, []string{"category"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "m3c",
			Name:      "entities_skipped_total",
			Help:      "Records dropped from the graph, by category and reason.",
		}, []string{"category", "reason"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "m3c",
			Name:      "warnings_total",
			Help:      "Non-fatal data problems, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "m3c",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "m3c",
			Name:      "run_info",
			Help:      "Constant 1, labelled with the run id.",
		}, []string{"run_id"}),
		counts: make(map[string]int),
	}
	r.reg.MustRegister(r.emitted, r.skipped, r.warnings, r.duration, r.info)
	r.info.WithLabelValues(runID).Set(1)
	return r
}

// Emitted adds n entities to category.
func (r *Recorder) Emitted(category string, n int) {
	r.emitted.WithLabelValues(category).Add(float64(n))
	r.mu.Lock()
	r.counts[category] += n
	r.mu.Unlock()
}

// Skipped counts one dropped record.
func (r *Recorder) Skipped(category, reason string) {
	r.skipped.WithLabelValues(category, reason).Inc()
}

// Warned counts one warning.
func (r *Recorder) Warned(kind string) {
	r.warnings.WithLabelValues(kind).Inc()
}

// ObserveDuration records the run's wall time.
func (r *Recorder) ObserveDuration(d time.Duration) {
	r.duration.Set(d.Seconds())
}

// Count returns the emitted total for category.
func (r *Recorder) Count(category string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[category]
}

// Categories lists every category with emitted entities, sorted.
func (r *Recorder) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.counts))
	for c := range r.counts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// WriteTextfile writes the registry for the node exporter textfile
// collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
