package api

import (
	"net/http"
	"sync/atomic"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
)

// Health reports liveness and readiness. Readiness fails once draining starts.
type Health struct {
	draining atomic.Bool
}

// SetDraining marks the service as shutting down.
func (h *Health) SetDraining() {
	h.draining.Store(true)
}

func (h *Health) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Health) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

func (h *Health) ready(w http.ResponseWriter, _ *http.Request) {
	if h.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// CapabilitiesConfig names the service identity advertised to integrators.
type CapabilitiesConfig struct {
	SourceService   string
	ContractVersion string
	PolicyVersion   string
}

var (
	capabilityFeatures = []domain.Feature{
		{Key: "lotus-report.reporting.portfolio_summary", Enabled: true},
		{Key: "lotus-report.reporting.portfolio_review", Enabled: true},
		{Key: "lotus-report.aggregation.portfolio_snapshot", Enabled: true},
	}
	capabilityWorkflows = []domain.Workflow{
		{WorkflowKey: "portfolio_reporting", Enabled: true},
		{WorkflowKey: "portfolio_review_reporting", Enabled: true},
	}
)

// capabilities handles GET /integration/capabilities. consumerSystem and
// tenantId are accepted but do not change the answer.
func capabilities(cfg CapabilitiesConfig) http.HandlerFunc {
	resp := domain.Capabilities{
		SourceService:         cfg.SourceService,
		ContractVersion:       cfg.ContractVersion,
		PolicyVersion:         cfg.PolicyVersion,
		RoundingPolicyVersion: precision.RoundingPolicyVersion,
		Features:              capabilityFeatures,
		Workflows:             capabilityWorkflows,
		SupportedInputModes:   []string{"pas_ref"},
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
