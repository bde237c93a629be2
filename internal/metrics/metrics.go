// Package metrics records fuzz run counters behind a small backend
// interface. The default backend discards everything, so instrumented code
// never has to check whether metrics are enabled.
package metrics

import (
	"errors"
	"sync/atomic"
	"time"
)

// Metric names.
const (
	StatementsTotal         = "schemafuzz_statements_total"
	ExhaustedTotal          = "schemafuzz_exhausted_total"
	ScenariosTotal          = "schemafuzz_scenarios_total"
	ScenarioDurationSeconds = "schemafuzz_scenario_duration_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends. Implementations
// must be safe for concurrent use.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush writes or pushes the collected metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

type holder struct{ Backend }

var current atomic.Value

func init() {
	current.Store(holder{nopBackend{}})
}

func backend() Backend {
	return current.Load().(holder).Backend
}

// SetBackend installs b and returns the previous backend. Passing nil
// restores the no-op backend.
func SetBackend(b Backend) Backend {
	if b == nil {
		b = nopBackend{}
	}
	return current.Swap(holder{b}).(holder).Backend
}

// Multi fans every observation out to all backends.
func Multi(backends ...Backend) Backend {
	return multi(backends)
}

type multi []Backend

func (m multi) IncCounter(name string, delta float64, labels Labels) {
	for _, b := range m {
		b.IncCounter(name, delta, labels)
	}
}

func (m multi) ObserveHistogram(name string, value float64, labels Labels) {
	for _, b := range m {
		b.ObserveHistogram(name, value, labels)
	}
}

// Flush flushes every backend and joins their errors.
func (m multi) Flush() error {
	var errs []error
	for _, b := range m {
		if err := b.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush delegates to the current backend.
func Flush() error {
	return backend().Flush()
}

// RecordStatement counts one generated and translated statement.
func RecordStatement(dialect, operation string) {
	backend().IncCounter(StatementsTotal, 1, Labels{
		"dialect":   dialect,
		"operation": operation,
	})
}

// RecordExhausted counts one step that could not produce a statement.
// reason is a short machine-friendly tag such as "no_droppable_columns".
func RecordExhausted(operation, reason string) {
	backend().IncCounter(ExhaustedTotal, 1, Labels{
		"operation": operation,
		"reason":    reason,
	})
}

// RecordScenario counts a finished scenario and records how long it took.
func RecordScenario(err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"status": status}
	backend().IncCounter(ScenariosTotal, 1, lbls)
	backend().ObserveHistogram(ScenarioDurationSeconds, d.Seconds(), lbls)
}
