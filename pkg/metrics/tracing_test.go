package metrics_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/dice-client/pkg/metrics"
)

type recordingProvider struct {
	traces []*recordingTrace
}

func (p *recordingProvider) StartTrace(name string) metrics.Trace {
	trace := &recordingTrace{name: name, attributes: make(map[string]interface{})}
	p.traces = append(p.traces, trace)
	return trace
}

func (p *recordingProvider) RecordEvent(string, map[string]interface{}) {}

func (p *recordingProvider) RecordCount(string, uint64) {}

func (p *recordingProvider) RecordDuration(string, time.Duration) {}

type recordingTrace struct {
	name       string
	attributes map[string]interface{}
	spans      []string
	errs       []error
	ended      bool
}

func (t *recordingTrace) StartSpan(name string) metrics.Span {
	t.spans = append(t.spans, name)
	return &recordingSpan{}
}

func (t *recordingTrace) AddAttribute(key string, value interface{}) {
	t.attributes[key] = value
}

func (t *recordingTrace) OnError(err error) {
	t.errs = append(t.errs, err)
}

func (t *recordingTrace) End() {
	t.ended = true
}

type recordingSpan struct{}

func (s *recordingSpan) AddAttribute(string, interface{}) {}

func (s *recordingSpan) End() {}

func TestTraceMethodCall(t *testing.T) {
	provider := &recordingProvider{}

	tracer := metrics.TraceMethodCall(provider, "escrow", "DepositNative")
	tracer.AddAttributes(map[string]interface{}{"user": "abc"})
	metrics.EndSpan(tracer.StartSpan("submit"))
	tracer.OnError(nil)
	tracer.OnError(errors.New("failed"))
	tracer.End()

	assert.Len(t, provider.traces, 1)
	trace := provider.traces[0]
	assert.Equal(t, "escrow DepositNative", trace.name)
	assert.Equal(t, "abc", trace.attributes["user"])
	assert.Equal(t, []string{"submit"}, trace.spans)
	assert.Len(t, trace.errs, 1)
	assert.True(t, trace.ended)
}

func TestTraceMethodCall_NilProvider(t *testing.T) {
	tracer := metrics.TraceMethodCall(nil, "escrow", "DepositNative")
	assert.Nil(t, tracer)

	tracer.AddAttribute("key", "value")
	metrics.EndSpan(tracer.StartSpan("submit"))
	tracer.OnError(errors.New("failed"))
	tracer.End()
}
