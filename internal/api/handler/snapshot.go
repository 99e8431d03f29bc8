package handler

import (
	"errors"
	"net/http"

	"github.com/grainguard/grainguard/internal/api/models"
	"github.com/grainguard/grainguard/internal/api/response"
	"github.com/grainguard/grainguard/internal/fusion"
	"github.com/grainguard/grainguard/internal/location"
)

// SnapshotHandler exposes the environmental snapshot and its fetch cycle.
type SnapshotHandler struct {
	orch *fusion.Orchestrator
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(orch *fusion.Orchestrator) *SnapshotHandler {
	return &SnapshotHandler{orch: orch}
}

// GetSnapshot handles GET /v1/snapshot. The first call triggers a fetch
// cycle; later calls serve the latest snapshot.
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.orch.Snapshot()
	if snap == nil {
		fetched, err := h.orch.Fetch(r.Context())
		if err != nil {
			h.writeFetchError(w, r, err)
			return
		}
		snap = fetched
	}

	response.JSON(w, r, http.StatusOK, h.toAPISnapshot(snap))
}

// Refresh handles POST /v1/snapshot/refresh: clears the location cache and
// runs a fresh fetch cycle.
func (h *SnapshotHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.Refresh(r.Context())
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.toAPISnapshot(snap))
}

// Retry handles POST /v1/snapshot/retry: re-runs the fetch cycle while the
// retry budget allows.
func (h *SnapshotHandler) Retry(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.Retry(r.Context())
	if err != nil {
		if errors.Is(err, fusion.ErrRetryLimitReached) {
			response.BadRequest(w, r, "retry limit reached; refresh to start a new fetch session", nil)
			return
		}
		h.writeFetchError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.toAPISnapshot(snap))
}

// writeFetchError maps a failed fetch cycle to the explicit cannot-assess
// response rather than a default-valued snapshot.
func (h *SnapshotHandler) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		response.LocationUnavailable(w, r, "cannot assess: check location permission")
	case errors.Is(err, location.ErrTimeout),
		errors.Is(err, location.ErrPositionUnavailable),
		errors.Is(err, location.ErrUnsupported):
		response.LocationUnavailable(w, r, "cannot assess: no location fix available")
	default:
		response.InternalError(w, r, "fetch cycle failed")
	}
}

func (h *SnapshotHandler) toAPISnapshot(snap *fusion.Snapshot) models.Snapshot {
	out := models.Snapshot{
		State:      string(h.orch.State()),
		FetchedAt:  snap.FetchedAt,
		RetryCount: snap.RetryCount,
		CanRetry:   h.orch.CanRetry(),
		HasData:    snap.HasData(),
	}

	if !snap.Location.IsZero() {
		out.Location = &models.LocationFix{
			Lat:            snap.Location.Lat,
			Lon:            snap.Location.Lon,
			AccuracyMeters: snap.Location.AccuracyMeters,
			CapturedAt:     snap.Location.CapturedAt,
		}
	}

	if snap.Weather.OK() {
		obs := snap.Weather.Value
		out.Weather = models.SignalResult{
			Status: models.SignalStatusOK,
			Data: models.WeatherReading{
				TemperatureC: obs.Temperature,
				HumidityPct:  obs.Humidity,
				RainfallMM:   obs.RainfallMM,
				Condition:    string(obs.Condition),
				MoldRisk:     string(obs.GetMoldRisk()),
				ObservedAt:   obs.ObservedAt,
			},
		}
	} else {
		out.Weather = failedSignal(snap.Weather.Err)
	}

	if snap.Vegetation.OK() {
		idx := snap.Vegetation.Value
		out.Vegetation = models.SignalResult{
			Status: models.SignalStatusOK,
			Data: models.VegetationReading{
				NDVI:       idx.Value,
				Health:     string(idx.Health()),
				ObservedAt: idx.ObservedAt,
			},
		}
	} else {
		out.Vegetation = failedSignal(snap.Vegetation.Err)
	}

	if snap.Soil.OK() {
		m := snap.Soil.Value
		out.Soil = models.SignalResult{
			Status: models.SignalStatusOK,
			Data: models.SoilReading{
				MoisturePct:  m.Percent,
				SurfaceTempC: m.SurfaceTempC,
				Condition:    string(m.Condition()),
				ObservedAt:   m.ObservedAt,
			},
		}
	} else {
		out.Soil = failedSignal(snap.Soil.Err)
	}

	return out
}

func failedSignal(err error) models.SignalResult {
	reason := "not fetched"
	if err != nil {
		reason = err.Error()
	}
	return models.SignalResult{
		Status: models.SignalStatusFailed,
		Reason: reason,
	}
}
