package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
)

// AggregationScope identifies the portfolio and business date an aggregation covers.
type AggregationScope struct {
	PortfolioID string `json:"portfolioId"`
	AsOfDate    string `json:"asOfDate"`
}

// AggregationRow is a single (bucket, metric, value) cell of an aggregation.
type AggregationRow struct {
	Bucket string
	Metric string
	Value  decimal.Decimal
}

// MarshalJSON emits Value as an exact JSON number.
func (r AggregationRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Bucket string      `json:"bucket"`
		Metric string      `json:"metric"`
		Value  json.Number `json:"value"`
	}{r.Bucket, r.Metric, precision.JSONNumber(r.Value)})
}

// AggregationResponse is the aggregation read model.
type AggregationResponse struct {
	SourceService string           `json:"sourceService"`
	Scope         AggregationScope `json:"scope"`
	GeneratedAt   time.Time        `json:"generatedAt"`
	Rows          []AggregationRow `json:"rows"`
}
