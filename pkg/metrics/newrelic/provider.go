package newrelic

import (
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"

	"github.com/code-payments/dice-client/pkg/metrics"
)

// Provider wraps a New Relic application to implement metrics.Provider
type Provider struct {
	app *newrelic.Application
}

func NewProvider(app *newrelic.Application) *Provider {
	return &Provider{app: app}
}

// NewApplication starts a New Relic application reporting as appName.
func NewApplication(appName, licenseKey string) (*newrelic.Application, error) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start new relic application")
	}
	return app, nil
}

// Application returns the underlying New Relic application
func (p *Provider) Application() *newrelic.Application {
	return p.app
}

func (p *Provider) StartTrace(name string) metrics.Trace {
	return &Trace{txn: p.app.StartTransaction(name)}
}

func (p *Provider) RecordEvent(eventName string, attributes map[string]interface{}) {
	p.app.RecordCustomEvent(eventName, attributes)
}

func (p *Provider) RecordCount(metricName string, count uint64) {
	p.app.RecordCustomMetric(metricName, float64(count))
}

func (p *Provider) RecordDuration(metricName string, duration time.Duration) {
	p.app.RecordCustomMetric(metricName, float64(duration/time.Millisecond))
}

// Shutdown flushes pending data, waiting at most timeout.
func (p *Provider) Shutdown(timeout time.Duration) {
	p.app.Shutdown(timeout)
}

// Trace wraps a New Relic transaction
type Trace struct {
	txn *newrelic.Transaction
}

func (t *Trace) StartSpan(name string) metrics.Span {
	return &Span{seg: t.txn.StartSegment(name)}
}

func (t *Trace) AddAttribute(key string, value interface{}) {
	t.txn.AddAttribute(key, value)
}

func (t *Trace) OnError(err error) {
	t.txn.NoticeError(err)
}

func (t *Trace) End() {
	t.txn.End()
}

// Span wraps a New Relic segment
type Span struct {
	seg *newrelic.Segment
}

func (s *Span) AddAttribute(key string, value interface{}) {
	s.seg.AddAttribute(key, value)
}

func (s *Span) End() {
	s.seg.End()
}
