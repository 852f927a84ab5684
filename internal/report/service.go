// Package report issues report metadata records.
package report

import (
	"strings"
	"time"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
	"github.com/sgajbi/reporting-aggregation-service/internal/id"
)

// Service validates report requests and issues report records.
type Service struct {
	downloadBaseURL string
	newID           func() string
	now             func() time.Time
}

// NewService creates a new report Service. PDF reports are downloadable under downloadBaseURL.
func NewService(downloadBaseURL string) *Service {
	return &Service{
		downloadBaseURL: strings.TrimRight(downloadBaseURL, "/"),
		newID:           id.NewGenerator().Report,
		now:             time.Now,
	}
}

// Generate issues a READY report record for req.
func (s *Service) Generate(req domain.ReportRequest) (domain.ReportResponse, error) {
	if err := validate(&req); err != nil {
		return domain.ReportResponse{}, err
	}

	reportID := s.newID()
	resp := domain.ReportResponse{
		ReportID:     reportID,
		Status:       domain.ReportStatusReady,
		ReportType:   req.ReportType,
		OutputFormat: req.OutputFormat,
		GeneratedAt:  s.now().UTC(),
	}
	if req.OutputFormat == domain.OutputFormatPDF {
		url := s.downloadBaseURL + "/" + reportID + "/download"
		resp.DownloadURL = &url
	}
	return resp, nil
}

func validate(req *domain.ReportRequest) error {
	if strings.TrimSpace(req.PortfolioID) == "" {
		return &domain.ValidationError{Field: "portfolioId"}
	}
	if _, err := time.Parse(time.DateOnly, req.AsOfDate); err != nil {
		return &domain.ValidationError{Field: "asOfDate", Message: "asOfDate must be a date in YYYY-MM-DD format"}
	}
	switch req.ReportType {
	case domain.ReportTypePortfolioSnapshot, domain.ReportTypePerformanceSummary:
	default:
		return &domain.ValidationError{Field: "reportType", Message: "reportType must be PORTFOLIO_SNAPSHOT or PERFORMANCE_SUMMARY"}
	}
	switch req.OutputFormat {
	case "":
		req.OutputFormat = domain.OutputFormatJSON
	case domain.OutputFormatJSON, domain.OutputFormatPDF:
	default:
		return &domain.ValidationError{Field: "outputFormat", Message: "outputFormat must be JSON or PDF"}
	}
	return nil
}
