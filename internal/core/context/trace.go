// Package context carries request-scoped tracing identifiers.
package context

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"smartfilter/internal/core/id"
)

// TraceContext contains request tracing information.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// NewTraceContext builds the trace for an incoming request. Empty IDs are
// generated; an active OpenTelemetry span in ctx supplies the trace and span
// IDs when the caller did not send a trace ID.
func NewTraceContext(ctx context.Context, requestID, traceID string) *TraceContext {
	tc := &TraceContext{
		TraceID:   traceID,
		RequestID: requestID,
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		if tc.TraceID == "" {
			tc.TraceID = sc.TraceID().String()
		}
		tc.SpanID = sc.SpanID().String()
	}

	if tc.RequestID == "" {
		tc.RequestID = id.New().String()
	}
	if tc.TraceID == "" {
		tc.TraceID = id.New().String()
	}
	if tc.SpanID == "" {
		tc.SpanID = id.New().String()[:16]
	}
	return tc
}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
