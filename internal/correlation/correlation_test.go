package correlation

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequestUsesTraceparent(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderCorrelationID, "corr-abc")
	r.Header.Set(HeaderTraceparent, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	r.Header.Set(HeaderTraceID, "ignored")

	ids := FromRequest(r)
	assert.Equal(t, "corr-abc", ids.CorrelationID)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", ids.TraceID)
	assert.True(t, strings.HasPrefix(ids.RequestID, "req_"))
	assert.Len(t, ids.RequestID, len("req_")+12)
}

func TestFromRequestFallsBackToTraceHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderTraceparent, "garbage")
	r.Header.Set(HeaderTraceID, "trace-1")

	ids := FromRequest(r)
	assert.Equal(t, "trace-1", ids.TraceID)
	assert.True(t, strings.HasPrefix(ids.CorrelationID, "corr_"))
}

func TestFromRequestGeneratesTrace(t *testing.T) {
	ids := FromRequest(httptest.NewRequest("GET", "/", nil))
	assert.Len(t, ids.TraceID, 32)
}

func TestPropagationHeaders(t *testing.T) {
	ctx := WithIDs(context.Background(), IDs{CorrelationID: "c1", RequestID: "r1", TraceID: "0af7651916cd43dd8448eb211c80319c"})
	h := PropagationHeaders(ctx)
	assert.Equal(t, "c1", h[HeaderCorrelationID])
	assert.Equal(t, "r1", h[HeaderRequestID])
	assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-0000000000000001-01", h[HeaderTraceparent])

	generated := PropagationHeaders(context.Background())
	assert.True(t, strings.HasPrefix(generated[HeaderCorrelationID], "corr_"))
	assert.Len(t, generated[HeaderTraceID], 32)
}

func TestLogHandlerAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(slog.NewJSONHandler(&buf, nil)))
	ctx := WithIDs(context.Background(), IDs{CorrelationID: "c1", RequestID: "r1", TraceID: "t1"})

	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "c1", rec["correlation_id"])
	assert.Equal(t, "r1", rec["request_id"])
	assert.Equal(t, "t1", rec["trace_id"])
}
