package metrics

import (
	"fmt"
)

// TraceMethodCall starts a trace for a method call with a given struct or
// package and method name. A nil provider yields a nil tracer, which is safe
// to use.
func TraceMethodCall(provider Provider, structOrPackageName, methodName string) *MethodTracer {
	if provider == nil {
		return nil
	}

	return &MethodTracer{
		trace: provider.StartTrace(fmt.Sprintf("%s %s", structOrPackageName, methodName)),
	}
}

// MethodTracer collects analytics for a given method call.
type MethodTracer struct {
	trace Trace
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.trace.AddAttribute(key, value)
}

// AddAttributes adds a set of key-value pair metadata to the method trace
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}

	for key, value := range attributes {
		t.trace.AddAttribute(key, value)
	}
}

// StartSpan times a step of the method call.
func (t *MethodTracer) StartSpan(name string) Span {
	if t == nil {
		return nil
	}

	return t.trace.StartSpan(name)
}

// OnError observes an error within a method trace
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.trace.OnError(err)
}

// End completes the trace for the method call.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.trace.End()
}

// EndSpan ends span if it was started.
func EndSpan(span Span) {
	if span != nil {
		span.End()
	}
}
