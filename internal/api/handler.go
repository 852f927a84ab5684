package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
	"github.com/sgajbi/reporting-aggregation-service/internal/export"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
	"github.com/sgajbi/reporting-aggregation-service/internal/reporting"
)

const maxBodyBytes = 1 << 20

// AggregationService builds aggregation read models.
type AggregationService interface {
	Static(scope domain.AggregationScope) domain.AggregationResponse
	Live(ctx context.Context, scope domain.AggregationScope) domain.AggregationResponse
}

// ReadService builds summary and review read models.
type ReadService interface {
	Summary(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error)
	Review(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error)
}

// ReportService issues report records.
type ReportService interface {
	Generate(req domain.ReportRequest) (domain.ReportResponse, error)
}

// Handler provides HTTP endpoints for the reporting API.
type Handler struct {
	aggregations AggregationService
	reads        ReadService
	reports      ReportService
}

// NewHandler creates a new API handler.
func NewHandler(aggregations AggregationService, reads ReadService, reports ReportService) *Handler {
	return &Handler{aggregations: aggregations, reads: reads, reports: reports}
}

// GetAggregation handles GET /aggregations/portfolios/{portfolioId}.
func (h *Handler) GetAggregation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.aggregate(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAggregationWorkbook handles GET /aggregations/portfolios/{portfolioId}/workbook.
func (h *Handler) GetAggregationWorkbook(w http.ResponseWriter, r *http.Request) {
	resp, err := h.aggregate(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, resp); err != nil {
		writeServiceError(w, r, err)
		return
	}
	filename := fmt.Sprintf("aggregation_%s_%s.xlsx", resp.Scope.PortfolioID, resp.Scope.AsOfDate)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
	}
}

func (h *Handler) aggregate(r *http.Request) (domain.AggregationResponse, error) {
	asOfDate := r.URL.Query().Get("asOfDate")
	if _, err := time.Parse(time.DateOnly, asOfDate); err != nil {
		return domain.AggregationResponse{}, &domain.ValidationError{
			Field:   "asOfDate",
			Message: "asOfDate is required in YYYY-MM-DD format",
		}
	}
	live := true
	if raw := r.URL.Query().Get("live"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.AggregationResponse{}, &domain.ValidationError{Field: "live", Message: "live must be true or false"}
		}
		live = v
	}

	scope := domain.AggregationScope{PortfolioID: r.PathValue("portfolioId"), AsOfDate: asOfDate}
	if live {
		return h.aggregations.Live(r.Context(), scope), nil
	}
	return h.aggregations.Static(scope), nil
}

// PortfolioSummary handles POST /reports/portfolios/{portfolioId}/summary.
func (h *Handler) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	h.readModel(w, r, h.reads.Summary)
}

// PortfolioReview handles POST /reports/portfolios/{portfolioId}/review.
func (h *Handler) PortfolioReview(w http.ResponseWriter, r *http.Request) {
	h.readModel(w, r, h.reads.Review)
}

type readFunc func(ctx context.Context, portfolioID string, body map[string]any) (map[string]any, error)

func (h *Handler) readModel(w http.ResponseWriter, r *http.Request, read readFunc) {
	limit, err := reporting.ParseSectionLimit(r.URL.Query().Get("sectionLimit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	body, err := decodeObject(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp, err := read(r.Context(), r.PathValue("portfolioId"), reporting.ApplySectionLimit(body, limit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GenerateReport handles POST /reports.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req domain.ReportRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeServiceError(w, r, &domain.ValidationError{Message: "request body must be a report request object"})
		return
	}

	resp, err := h.reports.Generate(req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeObject reads the request body as a JSON object, keeping numbers exact.
func decodeObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		return nil, &domain.ValidationError{Message: "request body must be a JSON object"}
	}
	return body, nil
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *domain.ValidationError
		numericErr    *precision.NumericError
		notFoundErr   *domain.NotFoundError
		upstreamErr   *domain.UpstreamError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &numericErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": notFoundErr.Detail})
	case errors.As(err, &upstreamErr):
		slog.WarnContext(r.Context(), "upstream dependency failed", "upstream", upstreamErr.Upstream, "status", upstreamErr.Status)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"detail":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
