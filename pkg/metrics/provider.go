package metrics

import (
	"time"
)

// Provider records events, metrics and traces to a metrics backend.
type Provider interface {
	// StartTrace starts a new trace
	StartTrace(name string) Trace

	// RecordEvent records a custom event with key-value attributes
	RecordEvent(eventName string, attributes map[string]interface{})

	// RecordCount records a count metric
	RecordCount(metricName string, count uint64)

	// RecordDuration records a duration metric
	RecordDuration(metricName string, duration time.Duration)
}

// Trace is an active trace of a single operation.
type Trace interface {
	StartSpan(name string) Span
	AddAttribute(key string, value interface{})
	OnError(err error)
	End()
}

// Span is a timed section of a trace.
type Span interface {
	AddAttribute(key string, value interface{})
	End()
}
