// Package handler provides HTTP handlers for the GrainGuard API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/grainguard/grainguard/internal/api/models"
	"github.com/grainguard/grainguard/internal/api/response"
	"github.com/grainguard/grainguard/internal/provider/resilience"
)

// ReadinessCheckFunc probes one dependency; a non-nil error marks the
// service not ready.
type ReadinessCheckFunc func(ctx context.Context) error

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	readiness map[string]ReadinessCheckFunc
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, readiness map[string]ReadinessCheckFunc) *OpsHandler {
	if registry == nil {
		registry = resilience.GlobalRegistry
	}
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		readiness: readiness,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now(),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	details := make(map[string]interface{}, len(h.readiness))
	status := models.HealthStatusOK
	for name, check := range h.readiness {
		if err := check(ctx); err != nil {
			details[name] = err.Error()
			status = models.HealthStatusDown
		} else {
			details[name] = models.HealthStatusOK
		}
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    time.Now(),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status - upstream provider health.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	all := h.registry.GetAllHealth()

	status := models.HealthStatusOK
	providers := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		ps := models.ProviderStatus{
			Provider:      p.Name,
			Status:        models.HealthStatusOK,
			LastSuccessAt: p.LastSuccessAt,
			LastError:     p.LastError,
		}
		switch {
		case p.IsUnhealthy():
			ps.Status = models.HealthStatusDown
			status = models.HealthStatusDegraded
		case p.IsDegraded():
			ps.Status = models.HealthStatusDegraded
			status = models.HealthStatusDegraded
		}
		providers = append(providers, ps)
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:    status,
		Time:      time.Now(),
		Providers: providers,
	})
}
