package swell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/config"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
)

// Credential fields merged into every request body
const (
	ClientField = "$client"
	KeyField    = "$key"
)

// ErrUnsupportedMethod is returned for verbs other than GET, POST, PUT and DELETE
var ErrUnsupportedMethod = errors.New("swell: unsupported request method")

// Client executes single requests against the remote store. Each call uses
// its own connection, so a Client is safe for concurrent use.
type Client struct {
	dialer     *Dialer
	storeID    string
	secretKey  string
	maxRetries int
	logger     *zap.Logger
	metrics    *telemetry.StoreMetrics
}

// NewClient creates a Client that obtains connections from dialer
func NewClient(cfg *config.SwellConfig, dialer *Dialer, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := applyOptions(opts)
	return &Client{
		dialer:     dialer,
		storeID:    cfg.StoreID,
		secretKey:  cfg.SecretKey,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		metrics:    o.metrics,
	}
}

// Get issues a GET request without a body
func (c *Client) Get(ctx context.Context, path string) (*storefront.Document, error) {
	return c.Execute(ctx, storefront.MethodGet, path, nil)
}

// Post issues a POST request
func (c *Client) Post(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	return c.Execute(ctx, storefront.MethodPost, path, body)
}

// Put issues a PUT request
func (c *Client) Put(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	return c.Execute(ctx, storefront.MethodPut, path, body)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	return c.Execute(ctx, storefront.MethodDelete, path, body)
}

// Execute sends one request and returns the decoded response document.
//
// body is never modified; credentials are added to a copy. Transient network
// failures (reset, aborted handshake, timeout) re-run the whole exchange on a
// fresh connection up to max_retries times, after which the call fails with a
// connection error. Protocol and malformed-response errors are returned as is.
func (c *Client) Execute(ctx context.Context, method storefront.Method, path string, body *storefront.Document) (*storefront.Document, error) {
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	ctx, span := telemetry.StartSpan(ctx, "swell.request",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrStoreMethod, method.String()),
		telemetry.WithAttribute(telemetry.SpanAttrStorePath, path),
	)
	defer span.End()

	line := EncodeRequest(method, path, c.authenticate(body).String())

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			c.metrics.RecordRetry(ctx, method.Wire())
			telemetry.AddEvent(span, "retry", telemetry.SpanAttrAttempt, attempt)
			c.logger.Warn("Retrying remote store request after transient failure",
				zap.String("method", method.String()),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
		}

		start := time.Now()
		resp, err := c.exchange(ctx, line)
		elapsed := time.Since(start)

		if err == nil {
			c.metrics.RecordRequest(ctx, method.Wire(), elapsed, "")
			c.logger.Debug("Remote store request completed",
				zap.String("method", method.String()),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("duration", elapsed),
			)
			return resp, nil
		}

		c.metrics.RecordRequest(ctx, method.Wire(), elapsed, storefront.KindOf(err).String())
		lastErr = err
		if !storefront.IsTransient(err) || ctx.Err() != nil {
			telemetry.RecordError(span, err)
			telemetry.SetAttributes(span, telemetry.SpanAttrErrorKind, storefront.KindOf(err).String())
			return nil, err
		}
	}

	err := storefront.NewError(storefront.KindConnection, "execute",
		fmt.Sprintf("%s %s failed after %d attempts", method, path, c.maxRetries+1), causeOf(lastErr))
	telemetry.RecordError(span, err)
	telemetry.SetAttributes(span, telemetry.SpanAttrErrorKind, storefront.KindConnection.String())
	return nil, err
}

// exchange performs one connect, write, read, close cycle
func (c *Client) exchange(ctx context.Context, line string) (*storefront.Document, error) {
	conn, err := c.dialer.EnsureConnected(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.WriteLine(ctx, line); err != nil {
		return nil, err
	}

	resp, err := conn.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return nil, storefront.NewError(storefront.KindProtocol, "read", "", storefront.ErrNullResponse)
	}
	if err != nil {
		return nil, err
	}
	return DecodeResponse(resp)
}

// authenticate returns a copy of body carrying the store credentials
func (c *Client) authenticate(body *storefront.Document) *storefront.Document {
	return body.Clone().
		Put(ClientField, c.storeID).
		Put(KeyField, c.secretKey)
}

// causeOf strips the transient classification so an exhausted retry reports
// only as a connection error.
func causeOf(err error) error {
	var se *storefront.Error
	if errors.As(err, &se) && se.Err != nil {
		return se.Err
	}
	return err
}
