package aggregation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
	"github.com/sgajbi/reporting-aggregation-service/internal/payload"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

const (
	bucketTotal = "TOTAL"

	metricMarketValueBase = "market_value_base"
	metricPositionCount   = "position_count"
	metricReturnYTD       = "return_ytd_pct"
	metricWeight          = "weight_pct"
)

var (
	placeholderMarketValue = decimal.NewFromInt(1_250_000)
	hundred                = decimal.NewFromInt(100)

	snapshotSections = []string{"OVERVIEW", "HOLDINGS"}
	returnPeriods    = []string{"YTD"}

	// marketValueFields is searched in order; the first numeric value wins.
	marketValueFields = []string{
		"$.valuation.market_value_base",
		"$.valuation.market_value",
		"$.valuation.current_value_base",
		"$.valuation.current_value",
		"$.market_value_base",
		"$.market_value",
		"$.current_value_base",
		"$.current_value",
	}
)

// SnapshotSource provides the accounting snapshot.
type SnapshotSource interface {
	CoreSnapshot(ctx context.Context, portfolioID, asOfDate string, sections []string) upstream.Response
}

// ReturnSource provides per-period portfolio returns.
type ReturnSource interface {
	PeriodReturns(ctx context.Context, portfolioID, asOfDate string, periods []string) upstream.Response
}

// Service builds aggregation rows for a portfolio.
type Service struct {
	sourceService string
	snapshots     SnapshotSource
	returns       ReturnSource
	now           func() time.Time
}

// NewService creates a new aggregation Service. All dependencies are required.
func NewService(sourceService string, snapshots SnapshotSource, returns ReturnSource) *Service {
	if snapshots == nil {
		panic("aggregation.NewService: snapshots is nil")
	}
	if returns == nil {
		panic("aggregation.NewService: returns is nil")
	}
	return &Service{
		sourceService: sourceService,
		snapshots:     snapshots,
		returns:       returns,
		now:           time.Now,
	}
}

// Static returns a fixed set of rows without calling any upstream.
func (s *Service) Static(scope domain.AggregationScope) domain.AggregationResponse {
	return s.response(scope, []domain.AggregationRow{
		{Bucket: bucketTotal, Metric: metricMarketValueBase, Value: precision.QuantizeMoney(placeholderMarketValue)},
		{Bucket: "EQUITY", Metric: metricWeight, Value: decimal.RequireFromString("45.2")},
		{Bucket: "FIXED_INCOME", Metric: metricWeight, Value: decimal.RequireFromString("39.8")},
		{Bucket: "CASH", Metric: metricWeight, Value: decimal.RequireFromString("15.0")},
	})
}

// Live derives rows from the accounting snapshot and YTD returns. A failing upstream
// degrades only the rows that depend on it.
func (s *Service) Live(ctx context.Context, scope domain.AggregationScope) domain.AggregationResponse {
	snapshot, returns := s.fetchInputs(ctx, scope)

	totalMV, ok := quantized(snapshot, "$.snapshot.overview.total_market_value", precision.QuantizeMoney)
	if !ok {
		totalMV = precision.QuantizeMoney(placeholderMarketValue)
	}
	ytd, ok := quantized(returns, "$.resultsByPeriod.YTD.net_cumulative_return", precision.QuantizePerformance)
	if !ok {
		ytd = precision.QuantizePerformance(decimal.Zero)
	}

	holdings := holdingsByAssetClass(snapshot)
	rows := []domain.AggregationRow{
		{Bucket: bucketTotal, Metric: metricMarketValueBase, Value: totalMV},
		{Bucket: bucketTotal, Metric: metricPositionCount, Value: decimal.NewFromInt(int64(positionCount(holdings)))},
		{Bucket: bucketTotal, Metric: metricReturnYTD, Value: ytd},
	}
	rows = append(rows, assetClassRows(holdings, totalMV)...)
	return s.response(scope, rows)
}

// fetchInputs calls both upstreams concurrently. A status >= 400 yields an empty payload.
func (s *Service) fetchInputs(ctx context.Context, scope domain.AggregationScope) (map[string]any, map[string]any) {
	var snapshot, returns map[string]any
	var g errgroup.Group
	g.Go(func() error {
		snapshot = okPayload(ctx, "core snapshot",
			s.snapshots.CoreSnapshot(ctx, scope.PortfolioID, scope.AsOfDate, snapshotSections))
		return nil
	})
	g.Go(func() error {
		returns = okPayload(ctx, "period returns",
			s.returns.PeriodReturns(ctx, scope.PortfolioID, scope.AsOfDate, returnPeriods))
		return nil
	})
	_ = g.Wait()
	return snapshot, returns
}

func okPayload(ctx context.Context, name string, resp upstream.Response) map[string]any {
	if !resp.OK() {
		slog.WarnContext(ctx, "aggregation: upstream unavailable, using fallbacks",
			"upstream", name, "status", resp.Status, "detail", resp.Detail())
		return map[string]any{}
	}
	return resp.Payload
}

func holdingsByAssetClass(snapshot map[string]any) map[string]any {
	m, _ := payload.Get(snapshot, "$.snapshot.holdings.holdingsByAssetClass").(map[string]any)
	return m
}

func positionCount(holdings map[string]any) int {
	return lo.SumBy(lo.Values(holdings), func(v any) int {
		return lo.CountBy(payload.List(v), func(p any) bool {
			_, ok := p.(map[string]any)
			return ok
		})
	})
}

// quantized resolves path in doc and rounds it with quantize. Absent or
// non-numeric values report false; excess fractional digits are rounded away.
func quantized(doc any, path string, quantize func(decimal.Decimal) decimal.Decimal) (decimal.Decimal, bool) {
	d, ok := payload.Decimal(doc, path)
	if !ok {
		return decimal.Zero, false
	}
	return quantize(d), true
}

// marketValue returns the first usable field of position in priority order, at money scale.
func marketValue(position map[string]any) (decimal.Decimal, bool) {
	for _, path := range marketValueFields {
		if mv, ok := quantized(position, path, precision.QuantizeMoney); ok {
			return mv, true
		}
	}
	return decimal.Zero, false
}

func assetClassRows(holdings map[string]any, totalMV decimal.Decimal) []domain.AggregationRow {
	if !totalMV.IsPositive() {
		return nil
	}

	var rows []domain.AggregationRow
	for assetClass, positions := range holdings {
		classMV := decimal.Zero
		for _, p := range payload.List(positions) {
			position, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if mv, ok := marketValue(position); ok {
				classMV = classMV.Add(mv)
			}
		}
		if !classMV.IsPositive() {
			continue
		}
		weight := classMV.DivRound(totalMV, 16).Mul(hundred)
		rows = append(rows, domain.AggregationRow{
			Bucket: assetClass,
			Metric: metricWeight,
			Value:  precision.QuantizePerformance(weight),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Bucket < rows[j].Bucket })
	return rows
}

func (s *Service) response(scope domain.AggregationScope, rows []domain.AggregationRow) domain.AggregationResponse {
	return domain.AggregationResponse{
		SourceService: s.sourceService,
		Scope:         scope,
		GeneratedAt:   s.now().UTC(),
		Rows:          rows,
	}
}
