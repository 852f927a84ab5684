package domain

import "time"

// ReportType is the kind of generated report.
type ReportType string

const (
	ReportTypePortfolioSnapshot  ReportType = "PORTFOLIO_SNAPSHOT"
	ReportTypePerformanceSummary ReportType = "PERFORMANCE_SUMMARY"
)

// OutputFormat is the rendering of a generated report.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "JSON"
	OutputFormatPDF  OutputFormat = "PDF"
)

// ReportStatusReady marks a report whose artefact can be fetched.
const ReportStatusReady = "READY"

// ReportRequest asks for a report to be generated.
type ReportRequest struct {
	PortfolioID  string       `json:"portfolioId"`
	AsOfDate     string       `json:"asOfDate"`
	ReportType   ReportType   `json:"reportType"`
	OutputFormat OutputFormat `json:"outputFormat"`
}

// ReportResponse is the metadata record of a generated report.
type ReportResponse struct {
	ReportID     string       `json:"reportId"`
	Status       string       `json:"status"`
	ReportType   ReportType   `json:"reportType"`
	OutputFormat OutputFormat `json:"outputFormat"`
	GeneratedAt  time.Time    `json:"generatedAt"`
	DownloadURL  *string      `json:"downloadUrl"`
}

// Feature is a named capability flag.
type Feature struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

// Workflow is a named consumer workflow flag.
type Workflow struct {
	WorkflowKey string `json:"workflow_key"`
	Enabled     bool   `json:"enabled"`
}

// Capabilities describes what this service offers to integrating systems.
type Capabilities struct {
	SourceService         string     `json:"sourceService"`
	ContractVersion       string     `json:"contractVersion"`
	PolicyVersion         string     `json:"policyVersion"`
	RoundingPolicyVersion string     `json:"roundingPolicyVersion"`
	Features              []Feature  `json:"features"`
	Workflows             []Workflow `json:"workflows"`
	SupportedInputModes   []string   `json:"supportedInputModes"`
}
