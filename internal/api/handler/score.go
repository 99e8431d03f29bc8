package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grainguard/grainguard/internal/api/middleware"
	"github.com/grainguard/grainguard/internal/api/models"
	"github.com/grainguard/grainguard/internal/api/response"
	"github.com/grainguard/grainguard/internal/assessment"
	"github.com/grainguard/grainguard/internal/detection"
	"github.com/grainguard/grainguard/internal/risk"
)

// ScoreHandler scores batches and persists the result.
type ScoreHandler struct {
	svc *assessment.Service
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(svc *assessment.Service) *ScoreHandler {
	return &ScoreHandler{svc: svc}
}

// ScoreInsights handles POST /v1/score/insights.
func (h *ScoreHandler) ScoreInsights(w http.ResponseWriter, r *http.Request) {
	var req models.InsightScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())

	a, err := h.svc.CreateInsight(r.Context(), operatorID, risk.QualitativeInput{
		SoilHealth:        risk.Rating(req.SoilHealth),
		WaterAvailability: risk.Rating(req.WaterAvailability),
		PestStatus:        risk.Rating(req.PestStatus),
		Fertilization:     risk.Rating(req.Fertilization),
		TemperatureC:      req.TemperatureC,
		HumidityPct:       req.HumidityPct,
		VegetationIndex:   req.VegetationIndex,
		SoilMoisturePct:   req.SoilMoisturePct,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/assessments/"+a.ID, toAPIAssessment(a))
}

// ScoreDetections handles POST /v1/score/detections.
func (h *ScoreHandler) ScoreDetections(w http.ResponseWriter, r *http.Request) {
	var req models.DetectionScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())

	in := risk.DetectionInput{
		Counts:             detection.Counts{Healthy: req.Healthy, Contaminated: req.Contaminated},
		TransportCondition: req.TransportCondition,
		StorageCondition:   req.StorageCondition,
		GrainMoisturePct:   req.GrainMoisturePct,
		TemperatureC:       req.TemperatureC,
		HumidityPct:        req.HumidityPct,
	}

	var a *assessment.Assessment
	var err error
	if req.BatchID != "" {
		// Counts come from the configured detector backend, not the request.
		a, err = h.svc.CreateDetectionFromBatch(r.Context(), operatorID, req.BatchID, in)
	} else {
		a, err = h.svc.CreateDetection(r.Context(), operatorID, in)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/assessments/"+a.ID, toAPIAssessment(a))
}

func (h *ScoreHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, assessment.ErrNoDetector) {
		response.BadRequest(w, r, "batch scoring requires a detector backend", nil)
		return
	}
	var vErr *assessment.ValidationError
	if errors.As(err, &vErr) {
		fieldErrors := make([]models.FieldError, 0, len(vErr.Errors))
		for field, msg := range vErr.Errors {
			fieldErrors = append(fieldErrors, models.FieldError{Field: field, Message: msg})
		}
		response.BadRequest(w, r, "invalid scoring input", fieldErrors)
		return
	}
	response.InternalError(w, r, "failed to score batch")
}

func toAPIAssessment(a *assessment.Assessment) models.Assessment {
	return models.Assessment{
		ID:   a.ID,
		Mode: string(a.Mode),
		Result: models.RiskResult{
			Score:               a.Score,
			Level:               string(a.Level),
			ContributingFactors: a.Factors,
			Recommendations:     a.Recommendations,
		},
		Lat:       a.Lat,
		Lon:       a.Lon,
		CreatedAt: a.CreatedAt,
	}
}
