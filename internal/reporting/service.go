package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
	"github.com/sgajbi/reporting-aggregation-service/internal/payload"
	"github.com/sgajbi/reporting-aggregation-service/internal/performance"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
	"github.com/sgajbi/reporting-aggregation-service/internal/risk"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

const snapshotUpstream = "core snapshot"

var (
	summarySections  = []string{"WEALTH", "ALLOCATION", "PNL", "INCOME", "ACTIVITY"}
	summarySnapshot  = []string{"OVERVIEW", "ALLOCATION", "INCOME_AND_ACTIVITY"}
	reviewSections   = []string{"OVERVIEW", "ALLOCATION", "PERFORMANCE", "RISK_ANALYTICS", "INCOME_AND_ACTIVITY", "HOLDINGS", "TRANSACTIONS"}
	reviewSnapshot   = []string{"OVERVIEW", "ALLOCATION", "INCOME_AND_ACTIVITY", "HOLDINGS", "TRANSACTIONS"}
	reviewPeriods    = []string{"MTD", "QTD", "YTD", "THREE_YEAR", "SI"}
	performanceField = []string{"net_cumulative_return", "net_annualized_return", "gross_cumulative_return", "gross_annualized_return"}
)

// SnapshotSource provides accounting data.
type SnapshotSource interface {
	CoreSnapshot(ctx context.Context, portfolioID, asOfDate string, sections []string) upstream.Response
	PerformanceInput(ctx context.Context, portfolioID, asOfDate string, lookbackDays int) upstream.Response
}

// PerformanceSource provides return calculations.
type PerformanceSource interface {
	PeriodReturns(ctx context.Context, portfolioID, asOfDate string, periods []string) upstream.Response
	CalculateTWR(ctx context.Context, req performance.TWRRequest) upstream.Response
}

// RiskSource provides risk metrics.
type RiskSource interface {
	Calculate(ctx context.Context, req risk.Request) upstream.Response
}

// Service composes summary and review read models from the accounting,
// performance and risk services.
type Service struct {
	snapshots   SnapshotSource
	performance PerformanceSource
	risk        RiskSource
}

// NewService creates a new reporting Service. All dependencies are required.
func NewService(snapshots SnapshotSource, perf PerformanceSource, riskSrc RiskSource) *Service {
	if snapshots == nil {
		panic("reporting.NewService: snapshots is nil")
	}
	if perf == nil {
		panic("reporting.NewService: performance is nil")
	}
	if riskSrc == nil {
		panic("reporting.NewService: risk is nil")
	}
	return &Service{snapshots: snapshots, performance: perf, risk: riskSrc}
}

// Summary builds the portfolio summary for the as-of date in body.
func (s *Service) Summary(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error) {
	asOfDate, err := requiredString(body, "as_of_date", "asOfDate")
	if err != nil {
		return nil, err
	}
	sections := requestedSections(body, summarySections)

	snapshot, err := unwrapSnapshot(s.snapshots.CoreSnapshot(ctx, portfolioID, asOfDate, summarySnapshot))
	if err != nil {
		return nil, err
	}
	overview := payload.Map(snapshot["overview"])
	allocation := payload.Map(snapshot["allocation"])
	incomeActivity := payload.Map(snapshot["incomeAndActivity"])

	resp := map[string]any{
		"scope": map[string]any{
			"portfolio_id":      portfolioID,
			"as_of_date":        asOfDate,
			"period_start_date": yearStart(asOfDate),
			"period_end_date":   asOfDate,
		},
	}
	if sections["WEALTH"] {
		resp["wealth"] = map[string]any{
			"total_market_value": lenientMoney(overview["total_market_value"]),
			"total_cash":         lenientMoney(overview["total_cash"]),
		}
	}
	if pnl, ok := overview["pnl_summary"]; ok && sections["PNL"] {
		resp["pnlSummary"] = pnl
	}
	if sections["INCOME"] {
		resp["incomeSummary"] = incomeActivity["income_summary_ytd"]
	}
	if sections["ACTIVITY"] {
		resp["activitySummary"] = incomeActivity["activity_summary_ytd"]
	}
	if sections["ALLOCATION"] {
		if len(allocation) > 0 {
			resp["allocation"] = allocation
		} else {
			resp["allocation"] = nil
		}
	}
	return resp, nil
}

// Review builds the portfolio review for the as-of date in body. Performance and
// risk analytics are optional: their failure yields null sections.
func (s *Service) Review(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error) {
	asOfDate, err := requiredString(body, "as_of_date", "asOfDate")
	if err != nil {
		return nil, err
	}
	sections := requestedSections(body, reviewSections)

	snapshot, err := unwrapSnapshot(s.snapshots.CoreSnapshot(ctx, portfolioID, asOfDate, reviewSnapshot))
	if err != nil {
		return nil, err
	}

	resp := map[string]any{"portfolio_id": portfolioID, "as_of_date": asOfDate}
	for section, key := range map[string]string{
		"OVERVIEW":            "overview",
		"ALLOCATION":          "allocation",
		"INCOME_AND_ACTIVITY": "incomeAndActivity",
		"HOLDINGS":            "holdings",
		"TRANSACTIONS":        "transactions",
	} {
		if sections[section] {
			resp[key] = snapshot[key]
		}
	}

	if sections["PERFORMANCE"] {
		resp["performance"] = s.performanceSummary(ctx, portfolioID, asOfDate)
	}
	if sections["RISK_ANALYTICS"] {
		resp["riskAnalytics"] = s.riskAnalytics(ctx, portfolioID, asOfDate)
	}
	return resp, nil
}

func (s *Service) performanceSummary(ctx context.Context, portfolioID, asOfDate string) map[string]any {
	r := s.performance.PeriodReturns(ctx, portfolioID, asOfDate, reviewPeriods)
	if !r.OK() {
		slog.WarnContext(ctx, "reporting: performance unavailable", "status", r.Status, "detail", r.Detail())
		return nil
	}

	summary := map[string]any{}
	for period, raw := range payload.Map(r.Payload["resultsByPeriod"]) {
		row := payload.Map(raw)
		out := map[string]any{
			"start_date": row["start_date"],
			"end_date":   row["end_date"],
		}
		for _, field := range performanceField {
			out[field] = performanceValue(row[field])
		}
		summary[period] = out
	}
	return map[string]any{"summary": summary}
}

// performanceValue quantizes a return at performance scale, or nil when it is absent or not numeric.
func performanceValue(v any) any {
	d, ok := payload.Number(v)
	if !ok {
		return nil
	}
	return precision.JSONNumber(precision.QuantizePerformance(d))
}

func lenientMoney(v any) any {
	d, ok := payload.Number(v)
	if !ok {
		d = decimal.Zero
	}
	return precision.JSONNumber(precision.QuantizeMoney(d))
}

func yearStart(asOfDate string) string {
	if len(asOfDate) < 4 {
		return asOfDate
	}
	return asOfDate[:4] + "-01-01"
}

// requiredString returns the first non-empty string found under keys.
func requiredString(body map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		if s, ok := body[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", &domain.ValidationError{Field: keys[0]}
}

// requestedSections upper-cases the string entries of body["sections"]. Anything
// unusable falls back to defaults.
func requestedSections(body map[string]any, defaults []string) map[string]bool {
	raw, ok := body["sections"].([]any)
	if !ok {
		return lo.SliceToMap(defaults, func(s string) (string, bool) { return s, true })
	}
	sections := map[string]bool{}
	for _, item := range raw {
		if s, ok := item.(string); ok {
			sections[strings.ToUpper(s)] = true
		}
	}
	if len(sections) == 0 {
		return lo.SliceToMap(defaults, func(s string) (string, bool) { return s, true })
	}
	return sections
}

// unwrapSnapshot enforces the snapshot envelope contract.
func unwrapSnapshot(r upstream.Response) (map[string]any, error) {
	switch {
	case r.OK():
		snapshot := payload.Map(r.Payload["snapshot"])
		if len(snapshot) == 0 {
			return nil, &domain.UpstreamError{Kind: domain.UpstreamContract, Upstream: snapshotUpstream, Status: r.Status, Payload: r.Payload}
		}
		return snapshot, nil
	case r.Status == http.StatusNotFound:
		return nil, &domain.NotFoundError{Detail: r.Detail()}
	default:
		return nil, &domain.UpstreamError{Kind: domain.UpstreamUnavailable, Upstream: snapshotUpstream, Status: r.Status, Payload: r.Payload}
	}
}

// forwardStatus maps a passthrough upstream response onto the same error kinds as the composer.
func forwardStatus(r upstream.Response, name string) (map[string]any, error) {
	switch {
	case r.OK():
		return r.Payload, nil
	case r.Status == http.StatusNotFound:
		return nil, &domain.NotFoundError{Detail: r.Detail()}
	case r.Status == http.StatusUnprocessableEntity:
		return nil, &domain.ValidationError{Message: fmt.Sprint(r.Detail())}
	default:
		return nil, &domain.UpstreamError{Kind: domain.UpstreamUnavailable, Upstream: name, Status: r.Status, Payload: r.Payload}
	}
}
