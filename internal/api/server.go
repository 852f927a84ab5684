package api

import (
	"net/http"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, health *Health, caps CapabilitiesConfig) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handler, health, caps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter registers every route behind the correlation middleware.
func NewRouter(handler *Handler, health *Health, caps CapabilitiesConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.health)
	mux.HandleFunc("GET /health/live", health.live)
	mux.HandleFunc("GET /health/ready", health.ready)
	mux.HandleFunc("GET /integration/capabilities", capabilities(caps))

	mux.HandleFunc("GET /aggregations/portfolios/{portfolioId}", handler.GetAggregation)
	mux.HandleFunc("GET /aggregations/portfolios/{portfolioId}/workbook", handler.GetAggregationWorkbook)
	mux.HandleFunc("POST /reports/portfolios/{portfolioId}/summary", handler.PortfolioSummary)
	mux.HandleFunc("POST /reports/portfolios/{portfolioId}/review", handler.PortfolioReview)
	mux.HandleFunc("POST /reports", handler.GenerateReport)

	return withCorrelation(mux)
}
