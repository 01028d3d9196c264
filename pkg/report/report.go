// Package report defines the reporting sink injected into the numeric core.
//
// In a multi-process run only the coordinator process is expected to talk to
// the user; worker processes keep statements and warnings to themselves.
// Errors are always surfaced since they abort the computation on every
// process.
package report

import (
	"github.com/bandproj/bandproj/pkg/logger"
)

// Reporter is the sink for user-facing diagnostics. It replaces inheritance
// of a reporting base class with a small injected interface.
type Reporter interface {
	// Statement reports normal progress.
	Statement(message string, fields ...logger.Field)
	// Warning reports a recoverable anomaly.
	Warning(message string, fields ...logger.Field)
	// Error reports a fatal condition before the caller propagates it.
	Error(message string, fields ...logger.Field)
}

// LogReporter writes diagnostics through a Logger, gated by coordinator role.
type LogReporter struct {
	log         logger.Logger
	coordinator bool
}

// NewLogReporter creates a reporter. Only a coordinator reporter emits
// statements and warnings; errors pass through regardless of role.
func NewLogReporter(log logger.Logger, coordinator bool) *LogReporter {
	return &LogReporter{log: log, coordinator: coordinator}
}

// Statement reports normal progress on the coordinator.
func (r *LogReporter) Statement(message string, fields ...logger.Field) {
	if !r.coordinator {
		return
	}
	r.log.Info(message, fields...)
}

// Warning reports an anomaly on the coordinator.
func (r *LogReporter) Warning(message string, fields ...logger.Field) {
	if !r.coordinator {
		return
	}
	r.log.Warn(message, fields...)
}

// Error reports a fatal condition on every process.
func (r *LogReporter) Error(message string, fields ...logger.Field) {
	r.log.Error(message, fields...)
}

// Discard is a Reporter that swallows everything; useful in tests.
type Discard struct{}

func (Discard) Statement(string, ...logger.Field) {}
func (Discard) Warning(string, ...logger.Field)   {}
func (Discard) Error(string, ...logger.Field)     {}
