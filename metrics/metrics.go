// Package metrics defines the optional metrics sink consumed by the
// dispatchers and a go-metrics backed implementation of it.
package metrics

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Metric names emitted by the dispatchers.
const (
	CommandsProcessed     = "commands_processed"
	CommandsFailed        = "commands_failed"
	CommandProcessingTime = "command_processing_time"
	ValidationFailed      = "validation_failed"
	QueriesProcessed      = "queries_processed"
	QueriesProcessingTime = "queries_processing_time"
)

// Recorder is the sink the dispatchers emit into. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// Inc increments the named counter by one.
	Inc(name string)

	// Observe records one duration sample on the named timer.
	Observe(name string, d time.Duration)
}

type registryRecorder struct {
	reg gometrics.Registry
}

// NewRecorder returns a Recorder backed by the given go-metrics registry.
// A nil registry gets a fresh private one; use Registry to read it back.
func NewRecorder(reg gometrics.Registry) Recorder {
	if reg == nil {
		reg = gometrics.NewRegistry()
	}
	return &registryRecorder{reg: reg}
}

func (r *registryRecorder) Inc(name string) {
	gometrics.GetOrRegisterCounter(name, r.reg).Inc(1)
}

func (r *registryRecorder) Observe(name string, d time.Duration) {
	gometrics.GetOrRegisterTimer(name, r.reg).Update(d)
}

// Registry exposes the underlying go-metrics registry of a Recorder built
// by NewRecorder, for hosts that export it to a reporter.
func (r *registryRecorder) Registry() gometrics.Registry {
	return r.reg
}

type noopRecorder struct{}

// Noop returns a Recorder that discards everything. The dispatchers fall
// back to it when the host supplies no recorder.
func Noop() Recorder {
	return noopRecorder{}
}

func (noopRecorder) Inc(string) {}

func (noopRecorder) Observe(string, time.Duration) {}
