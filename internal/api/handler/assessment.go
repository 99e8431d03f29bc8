package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/grainguard/grainguard/internal/api/middleware"
	"github.com/grainguard/grainguard/internal/api/models"
	"github.com/grainguard/grainguard/internal/api/response"
	"github.com/grainguard/grainguard/internal/assessment"
)

// AssessmentHandler serves persisted assessments.
type AssessmentHandler struct {
	svc *assessment.Service
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(svc *assessment.Service) *AssessmentHandler {
	return &AssessmentHandler{svc: svc}
}

// ListAssessments handles GET /v1/assessments.
func (h *AssessmentHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	result, err := h.svc.List(r.Context(), operatorID, assessment.ListOptions{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		response.InternalError(w, r, "failed to list assessments")
		return
	}

	items := make([]models.Assessment, 0, len(result.Items))
	for _, a := range result.Items {
		items = append(items, toAPIAssessment(a))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	response.JSON(w, r, http.StatusOK, models.PagedAssessments{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	})
}

// GetAssessment handles GET /v1/assessments/{assessmentId}.
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	id := chi.URLParam(r, "assessmentId")

	a, err := h.svc.Get(r.Context(), operatorID, id)
	if err != nil {
		if errors.Is(err, assessment.ErrAssessmentNotFound) {
			response.NotFound(w, r, "assessment not found")
			return
		}
		response.InternalError(w, r, "failed to get assessment")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIAssessment(a))
}

// DeleteAssessment handles DELETE /v1/assessments/{assessmentId}.
func (h *AssessmentHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	id := chi.URLParam(r, "assessmentId")

	if err := h.svc.Delete(r.Context(), operatorID, id); err != nil {
		if errors.Is(err, assessment.ErrAssessmentNotFound) {
			response.NotFound(w, r, "assessment not found")
			return
		}
		response.InternalError(w, r, "failed to delete assessment")
		return
	}

	response.NoContent(w, r)
}
