package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
)

func TestWriteWorkbook(t *testing.T) {
	resp := domain.AggregationResponse{
		SourceService: "lotus-report",
		Scope:         domain.AggregationScope{PortfolioID: "P1", AsOfDate: "2026-02-24"},
		GeneratedAt:   time.Date(2026, 2, 24, 10, 30, 0, 0, time.UTC),
		Rows: []domain.AggregationRow{
			{Bucket: "TOTAL", Metric: "market_value_base", Value: decimal.RequireFromString("1250000.00")},
			{Bucket: "EQUITY", Metric: "weight_pct", Value: decimal.RequireFromString("45.2")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, resp))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("ROWS")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Bucket", "Metric", "Value"}, rows[0])
	assert.Equal(t, []string{"TOTAL", "market_value_base", "1250000.00"}, rows[1])
	assert.Equal(t, []string{"EQUITY", "weight_pct", "45.2"}, rows[2])

	scope, err := f.GetRows("SCOPE")
	require.NoError(t, err)
	assert.Contains(t, scope, []string{"portfolioId", "P1"})
	assert.Contains(t, scope, []string{"generatedAt", "2026-02-24T10:30:00Z"})
	assert.Contains(t, scope, []string{"roundingPolicyVersion", "1.1.0"})
}

func TestBuildRowsKeepsExactDigits(t *testing.T) {
	data := buildRows(domain.AggregationResponse{Rows: []domain.AggregationRow{
		{Bucket: "EQUITY", Metric: "weight_pct", Value: decimal.RequireFromString("60.004000")},
		{Bucket: "TOTAL", Metric: "market_value_base", Value: decimal.RequireFromString("1000.10")},
	}})
	require.Len(t, data, 3)
	assert.Equal(t, "60.004000", data[1][2])
	assert.Equal(t, "1000.10", data[2][2])
}

func TestBuildRowsHeaderOnly(t *testing.T) {
	data := buildRows(domain.AggregationResponse{})
	assert.Equal(t, [][]any{{"Bucket", "Metric", "Value"}}, data)
}
