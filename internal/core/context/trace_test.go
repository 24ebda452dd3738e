package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	appctx "smartfilter/internal/core/context"
)

func TestNewTraceContext(t *testing.T) {
	t.Run("keeps supplied ids", func(t *testing.T) {
		tc := appctx.NewTraceContext(context.Background(), "req-1", "trace-1")
		assert.Equal(t, "req-1", tc.RequestID)
		assert.Equal(t, "trace-1", tc.TraceID)
		assert.Len(t, tc.SpanID, 16)
	})

	t.Run("generates missing ids", func(t *testing.T) {
		tc := appctx.NewTraceContext(context.Background(), "", "")
		assert.Len(t, tc.RequestID, 36)
		assert.Len(t, tc.TraceID, 36)
		assert.NotEqual(t, tc.RequestID, tc.TraceID)
	})

	t.Run("uses active span", func(t *testing.T) {
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: trace.TraceID{0x01, 0x02},
			SpanID:  trace.SpanID{0x03},
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		tc := appctx.NewTraceContext(ctx, "", "")
		assert.Equal(t, sc.TraceID().String(), tc.TraceID)
		assert.Equal(t, sc.SpanID().String(), tc.SpanID)
	})
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, appctx.GetRequestID(context.Background()))

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{RequestID: "abc"})
	require.NotNil(t, appctx.GetTrace(ctx))
	assert.Equal(t, "abc", appctx.GetRequestID(ctx))
}
