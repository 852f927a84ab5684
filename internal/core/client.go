// Package core talks to the portfolio accounting service that owns holdings,
// valuations and transactions.
package core

import (
	"context"
	"net/url"
	"strings"

	"github.com/sgajbi/reporting-aggregation-service/internal/correlation"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

// ConsumerSystem identifies this service to upstream contracts.
const ConsumerSystem = "REPORTING"

// Poster sends a JSON request upstream.
type Poster interface {
	Post(ctx context.Context, url string, body any, headers map[string]string) upstream.Response
}

// Client is the accounting service adapter.
type Client struct {
	baseURL string
	caller  Poster
}

// NewClient creates a new accounting service client.
func NewClient(baseURL string, caller Poster) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), caller: caller}
}

// CoreSnapshot fetches the portfolio snapshot restricted to sections.
func (c *Client) CoreSnapshot(ctx context.Context, portfolioID, asOfDate string, sections []string) upstream.Response {
	return c.post(ctx, c.portfolioPath("/integration/portfolios/", portfolioID, "/core-snapshot"), map[string]any{
		"asOfDate":        asOfDate,
		"includeSections": sections,
		"consumerSystem":  ConsumerSystem,
	})
}

// PerformanceInput fetches the valuation point series used for return calculations.
func (c *Client) PerformanceInput(ctx context.Context, portfolioID, asOfDate string, lookbackDays int) upstream.Response {
	return c.post(ctx, c.portfolioPath("/integration/portfolios/", portfolioID, "/performance-input"), map[string]any{
		"asOfDate":       asOfDate,
		"lookbackDays":   lookbackDays,
		"consumerSystem": ConsumerSystem,
	})
}

// PortfolioSummary forwards a summary request body unchanged.
func (c *Client) PortfolioSummary(ctx context.Context, portfolioID string, body map[string]any) upstream.Response {
	return c.post(ctx, c.portfolioPath("/portfolios/", portfolioID, "/summary"), body)
}

// PortfolioReview forwards a review request body unchanged.
func (c *Client) PortfolioReview(ctx context.Context, portfolioID string, body map[string]any) upstream.Response {
	return c.post(ctx, c.portfolioPath("/portfolios/", portfolioID, "/review"), body)
}

func (c *Client) portfolioPath(prefix, portfolioID, suffix string) string {
	return c.baseURL + prefix + url.PathEscape(portfolioID) + suffix
}

func (c *Client) post(ctx context.Context, target string, body any) upstream.Response {
	return c.caller.Post(ctx, target, body, correlation.PropagationHeaders(ctx))
}
