package core

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgajbi/reporting-aggregation-service/internal/correlation"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

type captured struct {
	path    string
	body    map[string]any
	headers http.Header
}

func newServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.headers = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got.body)
		w.Write([]byte(`{"snapshot":{"overview":{}}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCoreSnapshot(t *testing.T) {
	var got captured
	server := newServer(t, &got)
	client := NewClient(server.URL+"/", upstream.NewCaller(time.Second, 0, time.Millisecond))

	ctx := correlation.WithIDs(context.Background(), correlation.IDs{CorrelationID: "corr_1", RequestID: "req_1", TraceID: "t1"})
	resp := client.CoreSnapshot(ctx, "P1", "2026-02-24", []string{"OVERVIEW", "HOLDINGS"})

	require.True(t, resp.OK())
	assert.Equal(t, "/integration/portfolios/P1/core-snapshot", got.path)
	assert.Equal(t, "2026-02-24", got.body["asOfDate"])
	assert.Equal(t, []any{"OVERVIEW", "HOLDINGS"}, got.body["includeSections"])
	assert.Equal(t, "REPORTING", got.body["consumerSystem"])
	assert.Equal(t, "corr_1", got.headers.Get("X-Correlation-Id"))
	assert.Equal(t, "00-t1-0000000000000001-01", got.headers.Get("traceparent"))
}

func TestPerformanceInput(t *testing.T) {
	var got captured
	server := newServer(t, &got)
	client := NewClient(server.URL, upstream.NewCaller(time.Second, 0, time.Millisecond))

	client.PerformanceInput(context.Background(), "P1", "2026-02-24", 1200)

	assert.Equal(t, "/integration/portfolios/P1/performance-input", got.path)
	assert.Equal(t, float64(1200), got.body["lookbackDays"])
	assert.NotEmpty(t, got.headers.Get("X-Request-Id"))
}

func TestPassthroughPaths(t *testing.T) {
	var got captured
	server := newServer(t, &got)
	client := NewClient(server.URL, upstream.NewCaller(time.Second, 0, time.Millisecond))

	client.PortfolioSummary(context.Background(), "P 1", map[string]any{"as_of_date": "2026-02-24"})
	assert.Equal(t, "/portfolios/P 1/summary", got.path)
	assert.Equal(t, "2026-02-24", got.body["as_of_date"])

	client.PortfolioReview(context.Background(), "P1", map[string]any{"sections": []any{"OVERVIEW"}})
	assert.Equal(t, "/portfolios/P1/review", got.path)
}
