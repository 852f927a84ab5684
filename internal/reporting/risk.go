package reporting

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/sgajbi/reporting-aggregation-service/internal/payload"
	"github.com/sgajbi/reporting-aggregation-service/internal/performance"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
	"github.com/sgajbi/reporting-aggregation-service/internal/risk"
)

const (
	riskLookbackDays = 1200
	defaultCurrency  = money.USD
	explicitPeriod   = "EXPLICIT"
	metricBasisNet   = "NET"
)

var (
	riskMetrics = []string{"VOLATILITY", "SHARPE", "DRAWDOWN", "VAR"}
	riskPeriods = []risk.Period{{Type: "YTD"}, {Type: "THREE_YEAR"}}
)

// riskAnalytics derives risk metrics through performance input, daily TWR and the
// risk service. Any failed hop yields nil.
func (s *Service) riskAnalytics(ctx context.Context, portfolioID, asOfDate string) map[string]any {
	input := s.snapshots.PerformanceInput(ctx, portfolioID, asOfDate, riskLookbackDays)
	if !input.OK() {
		riskSkipped(ctx, "performance_input", "upstream_status", "status", input.Status)
		return nil
	}
	points := payload.List(input.Payload["valuationPoints"])
	if len(points) == 0 {
		riskSkipped(ctx, "performance_input", "no_valuation_points")
		return nil
	}
	startDate, ok := payload.String(input.Payload["performanceStartDate"])
	if !ok {
		riskSkipped(ctx, "performance_input", "missing_start_date")
		return nil
	}

	twr := s.performance.CalculateTWR(ctx, performance.TWRRequest{
		PortfolioID:          portfolioID,
		PerformanceStartDate: startDate,
		MetricBasis:          metricBasisNet,
		ReportStartDate:      startDate,
		ReportEndDate:        asOfDate,
		Analyses:             []performance.Analysis{{Period: explicitPeriod, Frequencies: []string{"daily"}}},
		ValuationPoints:      points,
		Currency:             baseCurrency(ctx, input.Payload["baseCurrency"]),
		Output:               performance.Output{IncludeCumulative: true, IncludeTimeseries: true},
	})
	if !twr.OK() {
		riskSkipped(ctx, "twr", "upstream_status", "status", twr.Status)
		return nil
	}
	returns := dailyReturns(twr.Payload)
	if len(returns) == 0 {
		riskSkipped(ctx, "twr", "no_daily_returns")
		return nil
	}

	r := s.risk.Calculate(ctx, risk.Request{
		Scope:             risk.Scope{AsOfDate: asOfDate, NetOrGross: metricBasisNet},
		Periods:           riskPeriods,
		Metrics:           riskMetrics,
		PortfolioOpenDate: startDate,
		Returns:           returns,
		BenchmarkReturns:  []risk.Return{},
	})
	if !r.OK() {
		riskSkipped(ctx, "risk", "upstream_status", "status", r.Status)
		return nil
	}
	return map[string]any{"results": payload.Map(r.Payload["results"])}
}

func riskSkipped(ctx context.Context, hop, reason string, args ...any) {
	slog.WarnContext(ctx, "reporting: risk analytics unavailable", append([]any{"hop", hop, "reason", reason}, args...)...)
}

// baseCurrency returns v upper-cased, defaulting to USD when absent. Codes
// unknown to ISO 4217 are passed through with a warning.
func baseCurrency(ctx context.Context, v any) string {
	if v == nil {
		return defaultCurrency
	}
	code, ok := payload.String(v)
	if !ok {
		slog.WarnContext(ctx, "reporting: base currency is not a string, using default", "value", v, "default", defaultCurrency)
		return defaultCurrency
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return defaultCurrency
	}
	if money.GetCurrency(code) == nil {
		slog.WarnContext(ctx, "reporting: unrecognised base currency", "currency", code)
	}
	return code
}

// dailyReturns extracts the daily series of the first period in results_by_period.
// Entries without a string period or a numeric return are skipped.
func dailyReturns(twr map[string]any) []risk.Return {
	byPeriod := payload.Map(twr["results_by_period"])
	first, ok := firstPeriod(byPeriod).(map[string]any)
	if !ok {
		return nil
	}

	var out []risk.Return
	for _, item := range payload.List(payload.Map(first["breakdowns"])["daily"]) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		period, ok := payload.String(entry["period"])
		if !ok {
			continue
		}
		value, ok := numeric(payload.Map(entry["summary"])["period_return_pct"])
		if !ok {
			continue
		}
		if len(period) > 10 {
			period = period[:10]
		}
		out = append(out, risk.Return{Date: period, Value: value})
	}
	return out
}

// firstPeriod prefers the explicit period, then the lowest key.
func firstPeriod(byPeriod map[string]any) any {
	if v, ok := byPeriod[explicitPeriod]; ok {
		return v
	}
	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	return byPeriod[keys[0]]
}

// numeric accepts JSON numbers only; numeric strings are rejected.
func numeric(v any) (json.Number, bool) {
	switch v.(type) {
	case json.Number, float64, float32, int, int64:
	default:
		return "", false
	}
	d, err := precision.ToDecimal(v)
	if err != nil {
		return "", false
	}
	return precision.JSONNumber(d), true
}
