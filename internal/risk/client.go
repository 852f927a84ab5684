// Package risk talks to the risk analytics service.
package risk

import (
	"context"
	"strings"

	"github.com/sgajbi/reporting-aggregation-service/internal/correlation"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

// Poster sends a JSON request upstream.
type Poster interface {
	Post(ctx context.Context, url string, body any, headers map[string]string) upstream.Response
}

// Scope fixes the valuation date and fee basis of a risk calculation.
type Scope struct {
	AsOfDate   string `json:"asOfDate"`
	NetOrGross string `json:"netOrGross"`
}

// Period names a risk window such as YTD.
type Period struct {
	Type string `json:"type"`
}

// Return is one dated return observation.
type Return struct {
	Date  string `json:"date"`
	Value any    `json:"value"`
}

// Request asks for risk metrics over a return series.
type Request struct {
	Scope             Scope    `json:"scope"`
	Periods           []Period `json:"periods"`
	Metrics           []string `json:"metrics"`
	PortfolioOpenDate string   `json:"portfolioOpenDate"`
	Returns           []Return `json:"returns"`
	BenchmarkReturns  []Return `json:"benchmarkReturns"`
}

// Client is the risk service adapter.
type Client struct {
	baseURL string
	caller  Poster
}

// NewClient creates a new risk service client.
func NewClient(baseURL string, caller Poster) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), caller: caller}
}

// Calculate requests the metrics in req.
func (c *Client) Calculate(ctx context.Context, req Request) upstream.Response {
	return c.caller.Post(ctx, c.baseURL+"/analytics/risk/calculate", req, correlation.PropagationHeaders(ctx))
}
