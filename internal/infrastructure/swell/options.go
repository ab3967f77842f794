package swell

import (
	"crypto/tls"

	"golang.org/x/time/rate"

	"github.com/paybridge/backend/internal/infrastructure/telemetry"
)

// Option configures the Dialer, Client, Fetcher and Gateway constructors
type Option func(*options)

type options struct {
	tlsConfig *tls.Config
	metrics   *telemetry.StoreMetrics
	limiter   *rate.Limiter
}

// WithTLSConfig replaces the TLS configuration derived from SwellConfig.
// ServerName is filled from the configured host when empty.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

// WithMetrics records request, retry, error and page metrics
func WithMetrics(m *telemetry.StoreMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPageLimiter paces page dispatch in FetchAll, overriding
// page_requests_per_second.
func WithPageLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
