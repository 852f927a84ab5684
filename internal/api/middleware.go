package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sgajbi/reporting-aggregation-service/internal/correlation"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
)

const headerRoundingPolicyVersion = "X-Rounding-Policy-Version"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withCorrelation resolves request ids into the context, echoes them on the
// response and writes one access log line per request.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ids := correlation.FromRequest(r)
		ctx := correlation.WithIDs(r.Context(), ids)

		h := w.Header()
		h.Set(correlation.HeaderCorrelationID, ids.CorrelationID)
		h.Set(correlation.HeaderRequestID, ids.RequestID)
		h.Set(correlation.HeaderTraceID, ids.TraceID)
		h.Set(correlation.HeaderTraceparent, correlation.Traceparent(ids.TraceID))
		h.Set(headerRoundingPolicyVersion, precision.RoundingPolicyVersion)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}
