// Package handler provides HTTP handlers for the MoodRoute API.
package handler

import (
	"net/http"
	"time"

	"github.com/moodroute/moodroute/internal/api/models"
	"github.com/moodroute/moodroute/internal/api/response"
	"github.com/moodroute/moodroute/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service holds no state, so it
// is ready once its upstream clients are registered.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	providers := 0
	if h.registry != nil {
		providers = h.registry.ProviderCount()
	}

	status, code := models.HealthStatusOK, http.StatusOK
	if providers == 0 {
		status, code = models.HealthStatusFail, http.StatusServiceUnavailable
	}

	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: map[string]any{"providers": providers},
	})
}

// SystemStatus handles GET /v1/ops/status - upstream provider health from the
// circuit breakers. Any open or half-open circuit degrades the overall status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}

	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			ps := providerStatus(health)
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(health *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            health.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        health.CircuitState.String(),
		Requests:            health.Counts.Requests,
		ConsecutiveFailures: health.Counts.ConsecutiveFailures,
		LastOperation:       health.LastOperation,
	}

	switch {
	case health.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case health.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}

	if health.LastSuccessAt != nil {
		ts := models.Timestamp(*health.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if health.LastFailureAt != nil {
		ts := models.Timestamp(*health.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if health.LastError != "" {
		msg := health.LastError
		ps.Message = &msg
	}
	if len(health.Operations) > 0 {
		ps.Operations = make(map[string]models.OperationStatus, len(health.Operations))
		for op, stats := range health.Operations {
			ps.Operations[op] = models.OperationStatus{Successes: stats.Successes, Failures: stats.Failures}
		}
	}
	return ps
}
