package noop

import (
	"time"

	"github.com/code-payments/dice-client/pkg/metrics"
)

// Provider is a no-op metrics provider that discards all metrics.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) StartTrace(name string) metrics.Trace {
	return &Trace{}
}

func (p *Provider) RecordEvent(eventName string, attributes map[string]interface{}) {}

func (p *Provider) RecordCount(metricName string, count uint64) {}

func (p *Provider) RecordDuration(metricName string, duration time.Duration) {}

type Trace struct{}

func (t *Trace) StartSpan(name string) metrics.Span {
	return &Span{}
}

func (t *Trace) AddAttribute(key string, value interface{}) {}

func (t *Trace) OnError(err error) {}

func (t *Trace) End() {}

type Span struct{}

func (s *Span) AddAttribute(key string, value interface{}) {}

func (s *Span) End() {}
