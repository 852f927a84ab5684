package risk

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

	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

func TestCalculate(t *testing.T) {
	var path string
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Write([]byte(`{"results":{"VOLATILITY":{}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", upstream.NewCaller(time.Second, 0, time.Millisecond))
	resp := client.Calculate(context.Background(), Request{
		Scope:             Scope{AsOfDate: "2026-02-24", NetOrGross: "NET"},
		Periods:           []Period{{Type: "YTD"}},
		Metrics:           []string{"VOLATILITY"},
		PortfolioOpenDate: "2020-01-01",
		Returns:           []Return{{Date: "2026-02-23", Value: json.Number("0.1")}},
		BenchmarkReturns:  []Return{},
	})

	require.True(t, resp.OK())
	assert.Equal(t, "/analytics/risk/calculate", path)
	assert.Equal(t, map[string]any{"asOfDate": "2026-02-24", "netOrGross": "NET"}, body["scope"])
	assert.Equal(t, []any{map[string]any{"date": "2026-02-23", "value": 0.1}}, body["returns"])
	assert.Equal(t, []any{}, body["benchmarkReturns"])
	assert.Contains(t, resp.Payload, "results")
}
