package reporting

import (
	"context"

	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

// Forwarder serves summary and review bodies from the accounting service.
type Forwarder interface {
	PortfolioSummary(ctx context.Context, portfolioID string, body map[string]any) upstream.Response
	PortfolioReview(ctx context.Context, portfolioID string, body map[string]any) upstream.Response
}

// PassthroughService returns the accounting service's own summary and review
// documents. It backs the read endpoints while a portfolio is not yet composed here.
type PassthroughService struct {
	core Forwarder
}

// NewPassthroughService creates a new PassthroughService.
func NewPassthroughService(core Forwarder) *PassthroughService {
	if core == nil {
		panic("reporting.NewPassthroughService: core is nil")
	}
	return &PassthroughService{core: core}
}

// Summary forwards body to the accounting summary endpoint.
func (s *PassthroughService) Summary(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error) {
	return forwardStatus(s.core.PortfolioSummary(ctx, portfolioID, body), "core summary")
}

// Review forwards body to the accounting review endpoint.
func (s *PassthroughService) Review(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error) {
	return forwardStatus(s.core.PortfolioReview(ctx, portfolioID, body), "core review")
}
