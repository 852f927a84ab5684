package correlation

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderRequestID     = "X-Request-Id"
	HeaderTraceID       = "X-Trace-Id"
	HeaderTraceparent   = "traceparent"
)

// IDs identifies one inbound request and the business flow it belongs to.
type IDs struct {
	CorrelationID string
	RequestID     string
	TraceID       string
}

type ctxKey struct{}

// WithIDs returns a copy of ctx carrying ids.
func WithIDs(ctx context.Context, ids IDs) context.Context {
	return context.WithValue(ctx, ctxKey{}, ids)
}

// FromContext returns the ids stored in ctx, if any.
func FromContext(ctx context.Context) (IDs, bool) {
	ids, ok := ctx.Value(ctxKey{}).(IDs)
	return ids, ok
}

// NewCorrelationID returns a fresh correlation id.
func NewCorrelationID() string { return "corr_" + shortHex() }

// NewRequestID returns a fresh request id.
func NewRequestID() string { return "req_" + shortHex() }

// NewTraceID returns a fresh 32 hex character trace id.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func shortHex() string {
	return NewTraceID()[:12]
}

// FromRequest resolves ids from inbound headers, generating whatever is missing.
func FromRequest(r *http.Request) IDs {
	ids := IDs{
		CorrelationID: strings.TrimSpace(r.Header.Get(HeaderCorrelationID)),
		RequestID:     strings.TrimSpace(r.Header.Get(HeaderRequestID)),
		TraceID:       traceIDFromHeaders(r.Header),
	}
	if ids.CorrelationID == "" {
		ids.CorrelationID = NewCorrelationID()
	}
	if ids.RequestID == "" {
		ids.RequestID = NewRequestID()
	}
	if ids.TraceID == "" {
		ids.TraceID = NewTraceID()
	}
	return ids
}

// traceIDFromHeaders prefers a W3C traceparent over X-Trace-Id.
func traceIDFromHeaders(h http.Header) string {
	if tp := strings.TrimSpace(h.Get(HeaderTraceparent)); tp != "" {
		parts := strings.Split(tp, "-")
		if len(parts) >= 4 && len(parts[1]) == 32 {
			return parts[1]
		}
	}
	return strings.TrimSpace(h.Get(HeaderTraceID))
}

// Traceparent formats a W3C traceparent value for traceID.
func Traceparent(traceID string) string {
	return "00-" + traceID + "-0000000000000001-01"
}

// PropagationHeaders returns the headers to attach to an outbound call made on behalf of ctx.
// Ids absent from ctx are generated.
func PropagationHeaders(ctx context.Context) map[string]string {
	ids, _ := FromContext(ctx)
	if ids.CorrelationID == "" {
		ids.CorrelationID = NewCorrelationID()
	}
	if ids.RequestID == "" {
		ids.RequestID = NewRequestID()
	}
	if ids.TraceID == "" {
		ids.TraceID = NewTraceID()
	}
	return map[string]string{
		HeaderCorrelationID: ids.CorrelationID,
		HeaderRequestID:     ids.RequestID,
		HeaderTraceID:       ids.TraceID,
		HeaderTraceparent:   Traceparent(ids.TraceID),
	}
}
