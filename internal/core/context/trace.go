package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext identifies one request or job run in logs and error bodies.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace attaches trace identifiers to ctx.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the trace identifiers or nil.
func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return t
}

// GetRequestID returns the request id or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// WithJobTrace starts a fresh trace for one run of a background job.
// The request id is prefixed with the job name, e.g. "outbox-relay-<uuid>".
func WithJobTrace(ctx context.Context, job string) context.Context {
	traceID := uuid.NewString()
	return WithTrace(ctx, &TraceContext{
		TraceID:   traceID,
		SpanID:    traceID[:8],
		RequestID: job + "-" + uuid.NewString(),
	})
}
