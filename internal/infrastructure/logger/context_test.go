package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAndFromContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	ctx := context.WithValue(context.Background(), LoggerKey, "wrong type")
	assert.NotNil(t, FromContext(ctx))
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))

	enriched.Info("hello")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-1", recorded.All()[0].ContextMap()["request_id"])
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func contextWithValidSpan() context.Context {
	traceID, _ := sdktrace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := sdktrace.SpanIDFromHex("0102030405060708")
	sc := sdktrace.NewSpanContext(sdktrace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: sdktrace.FlagsSampled,
	})
	return sdktrace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithTraceContext(t *testing.T) {
	t.Run("no span leaves logger unchanged", func(t *testing.T) {
		l := zap.NewNop()
		assert.Same(t, l, WithTraceContext(context.Background(), l))
	})

	t.Run("noop span is invalid", func(t *testing.T) {
		ctx, span := noop.NewTracerProvider().Tracer("test").Start(context.Background(), "op")
		defer span.End()
		l := zap.NewNop()
		assert.Same(t, l, WithTraceContext(ctx, l))
	})

	t.Run("valid span adds ids", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		WithTraceContext(contextWithValidSpan(), zap.New(core)).Info("traced")

		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
		assert.Equal(t, "0102030405060708", fields["span_id"])
	})
}

func TestL(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(contextWithValidSpan(), zap.New(core))
	ctx = context.WithValue(ctx, RequestIDKey, "req-9")

	L(ctx).Info("message")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "0102030405060708", fields["span_id"])
}

func TestL_WithoutLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
	})
}

func TestEnrich_NilBase(t *testing.T) {
	assert.NotNil(t, Enrich(context.Background(), nil))
}
