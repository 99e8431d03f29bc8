package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/grainguard/grainguard/internal/api/response"
	"github.com/grainguard/grainguard/internal/featureflags"
)

// FeatureFlagsHandler manages runtime feature flags.
type FeatureFlagsHandler struct {
	svc *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(svc *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{svc: svc}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.svc.GetAllFlags(r.Context())

	items := make([]featureflags.Flag, 0, len(flags))
	for _, f := range flags {
		items = append(items, *f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	response.JSON(w, r, http.StatusOK, featureflags.FlagList{Items: items})
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if len(req.Updates) == 0 {
		response.BadRequest(w, r, "updates must not be empty", nil)
		return
	}

	flags := make([]*featureflags.Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		if u.Key == "" {
			response.BadRequest(w, r, "flag key must not be empty", nil)
			return
		}
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value})
	}

	if err := h.svc.SetFlags(r.Context(), flags); err != nil {
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	h.ListFeatureFlags(w, r)
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.svc.InvalidateCache()
	response.NoContent(w, r)
}
