package correlation

import (
	"context"
	"log/slog"
)

// LogHandler decorates records with the ids found in their context.
type LogHandler struct {
	next slog.Handler
}

// NewLogHandler wraps next.
func NewLogHandler(next slog.Handler) *LogHandler {
	return &LogHandler{next: next}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	if ids, ok := FromContext(ctx); ok {
		r.AddAttrs(
			slog.String("correlation_id", ids.CorrelationID),
			slog.String("request_id", ids.RequestID),
			slog.String("trace_id", ids.TraceID),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{next: h.next.WithAttrs(attrs)}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{next: h.next.WithGroup(name)}
}
