package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StoreMetrics holds the instruments recorded by the remote store client.
// A nil *StoreMetrics records nothing.
type StoreMetrics struct {
	requests *Counter   // swell.requests
	retries  *Counter   // swell.retries
	errors   *Counter   // swell.errors
	pages    *Counter   // swell.pages
	duration *Histogram // swell.request.duration
}

// NewStoreMetrics creates the store client instruments on meter.
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	requests, err := NewCounter(meter, "swell.requests", "Requests sent to the remote store", "{request}")
	if err != nil {
		return nil, err
	}
	retries, err := NewCounter(meter, "swell.retries", "Requests retried after a transient network failure", "{request}")
	if err != nil {
		return nil, err
	}
	errs, err := NewCounter(meter, "swell.errors", "Failed remote store requests by error kind", "{request}")
	if err != nil {
		return nil, err
	}
	pages, err := NewCounter(meter, "swell.pages", "Pages fetched during paginated reads", "{page}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "swell.request.duration",
		Description: "Remote store round trip latency in seconds",
		Unit:        "s",
		Boundaries:  RequestDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &StoreMetrics{
		requests: requests,
		retries:  retries,
		errors:   errs,
		pages:    pages,
		duration: duration,
	}, nil
}

// RecordRequest records one completed request. kind is empty on success.
func (m *StoreMetrics) RecordRequest(ctx context.Context, method string, d time.Duration, kind string) {
	if m == nil {
		return
	}
	outcome := "success"
	if kind != "" {
		outcome = "error"
	}
	attrs := []attribute.KeyValue{AttrStoreMethod.String(method), AttrOutcome.String(outcome)}
	m.requests.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, d, attrs...)
	if kind != "" {
		m.errors.Inc(ctx, AttrStoreMethod.String(method), AttrErrorKind.String(kind))
	}
}

// RecordRetry counts a retry of a request that failed transiently.
func (m *StoreMetrics) RecordRetry(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.retries.Inc(ctx, AttrStoreMethod.String(method))
}

// RecordPage counts one page fetched by a paginated read.
func (m *StoreMetrics) RecordPage(ctx context.Context) {
	if m == nil {
		return
	}
	m.pages.Inc(ctx)
}
