// Package prom implements the metrics backend with the Prometheus client.
// Collected metrics are written to a node_exporter textfile, pushed to a
// Pushgateway, or both, when the run is flushed.
package prom

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/schemafuzz/schemafuzz/internal/metrics"
)

// Options selects where Flush sends the metrics. At least one of Textfile
// and GatewayURL must be set.
type Options struct {
	Textfile   string // e.g. out/metrics.prom
	GatewayURL string // e.g. http://pushgateway:9091
	Job        string // Pushgateway job name, default schemafuzz
}

// Backend is a Prometheus metrics backend.
type Backend struct {
	opts Options
	reg  *prometheus.Registry

	statements *prometheus.CounterVec
	exhausted  *prometheus.CounterVec
	scenarios  *prometheus.CounterVec
	duration   *prometheus.SummaryVec
}

// NewBackend registers the schemafuzz collectors on a fresh registry.
func NewBackend(opts Options) (*Backend, error) {
	if opts.Textfile == "" && opts.GatewayURL == "" {
		return nil, fmt.Errorf("prom: textfile or gateway URL is required")
	}
	if opts.Job == "" {
		opts.Job = "schemafuzz"
	}

	reg := prometheus.NewRegistry()

	statements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StatementsTotal,
			Help: "Statements generated and translated, by dialect and operation.",
		},
		[]string{"dialect", "operation"},
	)
	exhausted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.ExhaustedTotal,
			Help: "Steps skipped because the generator had no valid choice, by operation and reason.",
		},
		[]string{"operation", "reason"},
	)
	scenarios := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.ScenariosTotal,
			Help: "Finished scenarios, by status.",
		},
		[]string{"status"},
	)
	duration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.ScenarioDurationSeconds,
			Help:       "Scenario wall time in seconds, by status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"status"},
	)

	for _, c := range []prometheus.Collector{statements, exhausted, scenarios, duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom: register collector: %w", err)
		}
	}

	return &Backend{
		opts:       opts,
		reg:        reg,
		statements: statements,
		exhausted:  exhausted,
		scenarios:  scenarios,
		duration:   duration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StatementsTotal:
		b.statements.WithLabelValues(labels["dialect"], labels["operation"]).Add(delta)
	case metrics.ExhaustedTotal:
		b.exhausted.WithLabelValues(labels["operation"], labels["reason"]).Add(delta)
	case metrics.ScenariosTotal:
		b.scenarios.WithLabelValues(labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.ScenarioDurationSeconds {
		return
	}
	b.duration.WithLabelValues(labels["status"]).Observe(value)
}

// Gatherer exposes the registry, mainly for tests.
func (b *Backend) Gatherer() prometheus.Gatherer {
	return b.reg
}

// Flush writes the textfile and pushes to the gateway, whichever are set.
func (b *Backend) Flush() error {
	if b.opts.Textfile != "" {
		if err := os.MkdirAll(filepath.Dir(b.opts.Textfile), 0o755); err != nil {
			return fmt.Errorf("creating metrics directory: %w", err)
		}
		if err := prometheus.WriteToTextfile(b.opts.Textfile, b.reg); err != nil {
			return fmt.Errorf("writing metrics textfile: %w", err)
		}
	}
	if b.opts.GatewayURL != "" {
		if err := push.New(b.opts.GatewayURL, b.opts.Job).Gatherer(b.reg).Push(); err != nil {
			return fmt.Errorf("pushing metrics: %w", err)
		}
	}
	return nil
}
