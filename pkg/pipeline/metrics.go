// pkg/pipeline/metrics.go
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
)

// Run outcomes used as the outcome label
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Metrics collects enrichment counters on a private Prometheus registry. One
// Metrics may be shared by every pipeline in a process.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	changes  *prometheus.CounterVec
	issues   *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	timings  []EnricherTiming
}

// NewMetrics creates and registers the enrichment collectors
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fair_enrich_changes_total",
			Help: "Changes recorded by enrichers.",
		}, []string{"enricher"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fair_enrich_issues_total",
			Help: "Issues recorded by enrichers.",
		}, []string{"enricher"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fair_enrich_runs_total",
			Help: "Pipeline runs by pipeline kind and outcome.",
		}, []string{"pipeline", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fair_enrich_duration_seconds",
			Help:    "Wall time of each enricher.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"enricher"}),
	}
	m.registry.MustRegister(m.changes, m.issues, m.runs, m.duration)
	return m
}

// RecordEnricher adds one enricher's ledger counts and duration
func (m *Metrics) RecordEnricher(s enrich.Summary, d time.Duration) {
	m.changes.WithLabelValues(s.Enricher).Add(float64(s.ChangesMade))
	m.issues.WithLabelValues(s.Enricher).Add(float64(s.IssuesFound))
	m.duration.WithLabelValues(s.Enricher).Observe(d.Seconds())

	m.logger.Debug("Recorded enricher metrics",
		zap.String("enricher", s.Enricher),
		zap.Int("changes", s.ChangesMade),
		zap.Int("issues", s.IssuesFound),
		zap.Duration("duration", d))
}

// RecordRun counts a finished run
func (m *Metrics) RecordRun(kind Kind, outcome string) {
	m.runs.WithLabelValues(string(kind), outcome).Inc()
}

// Registry exposes the registry so callers can add their own collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	m.logger.Info("Wrote enrichment metrics", zap.String("path", path))
	return nil
}
