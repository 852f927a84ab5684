// Package performance talks to the performance analytics service.
package performance

import (
	"context"
	"strings"

	"github.com/sgajbi/reporting-aggregation-service/internal/correlation"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

const consumerSystem = "REPORTING"

// Poster sends a JSON request upstream.
type Poster interface {
	Post(ctx context.Context, url string, body any, headers map[string]string) upstream.Response
}

// Analysis requests one period broken down at the given frequencies.
type Analysis struct {
	Period      string   `json:"period"`
	Frequencies []string `json:"frequencies"`
}

// Output selects the optional parts of a TWR response.
type Output struct {
	IncludeCumulative bool `json:"include_cumulative"`
	IncludeTimeseries bool `json:"include_timeseries"`
}

// TWRRequest computes time weighted returns from an explicit valuation series.
type TWRRequest struct {
	PortfolioID          string     `json:"portfolioId"`
	PerformanceStartDate string     `json:"performanceStartDate"`
	MetricBasis          string     `json:"metricBasis"`
	ReportStartDate      string     `json:"reportStartDate"`
	ReportEndDate        string     `json:"reportEndDate"`
	Analyses             []Analysis `json:"analyses"`
	ValuationPoints      []any      `json:"valuationPoints"`
	Currency             string     `json:"currency"`
	Output               Output     `json:"output"`
}

// Client is the performance service adapter.
type Client struct {
	baseURL string
	caller  Poster
}

// NewClient creates a new performance service client.
func NewClient(baseURL string, caller Poster) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), caller: caller}
}

// PeriodReturns fetches returns for the named periods, sourcing inputs from the accounting service.
func (c *Client) PeriodReturns(ctx context.Context, portfolioID, asOfDate string, periods []string) upstream.Response {
	return c.caller.Post(ctx, c.baseURL+"/performance/twr/pas-input", map[string]any{
		"portfolioId":    portfolioID,
		"asOfDate":       asOfDate,
		"periods":        periods,
		"consumerSystem": consumerSystem,
	}, correlation.PropagationHeaders(ctx))
}

// CalculateTWR computes returns for an explicit valuation series.
func (c *Client) CalculateTWR(ctx context.Context, req TWRRequest) upstream.Response {
	return c.caller.Post(ctx, c.baseURL+"/performance/twr", req, correlation.PropagationHeaders(ctx))
}
