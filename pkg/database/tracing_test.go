package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		tp.Shutdown(context.Background()) //nolint:errcheck
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string)
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func TestTraceOp_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceOp(context.Background(), SystemFirestore, "ListItems", "items")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.ListItems", spans[0].Name)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "firestore", attrs["db.system"])
	assert.Equal(t, "ListItems", attrs["db.operation"])
	assert.Equal(t, "items", attrs["db.statement"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTraceOp_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceOp(context.Background(), SystemPostgres, "CreateReview", "INSERT INTO reviews")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events, "error event should be recorded")
	assert.Equal(t, "postgresql", spanAttrs(spans[0])["db.system"])
}

func TestTraceOp_ChildOfParent(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	_, end := TraceOp(ctx, SystemMemory, "ListReviews", "reviews")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestSlowQueryLogging_SlowOperation(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	SetSlowQueryLogging(time.Nanosecond, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceOp(context.Background(), SystemFirestore, "ListReviews", "reviews where itemId == ?")
	end(errors.New("deadline exceeded"))

	out := buf.String()
	assert.Contains(t, out, "slow store operation")
	assert.Contains(t, out, "ListReviews")
	assert.Contains(t, out, `"db_system":"firestore"`)
	assert.Contains(t, out, "deadline exceeded")
}

func TestSlowQueryLogging_FastOperationNotLogged(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	SetSlowQueryLogging(time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceOp(context.Background(), SystemMemory, "ListItems", "items")
	end(nil)

	assert.Empty(t, buf.String())
}

func TestSlowQueryLogging_DisabledDoesNotPanic(t *testing.T) {
	setupTestTracer(t)
	SetSlowQueryLogging(0, nil)

	_, end := TraceOp(context.Background(), SystemMemory, "ListItems", "items")
	assert.NotPanics(t, func() { end(nil) })
}
