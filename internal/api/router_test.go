package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainguard/grainguard/internal/api"
	"github.com/grainguard/grainguard/internal/api/models"
	"github.com/grainguard/grainguard/internal/assessment"
	"github.com/grainguard/grainguard/internal/fusion"
	"github.com/grainguard/grainguard/internal/location"
	"github.com/grainguard/grainguard/internal/risk"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
)

var testSecret = []byte("test-secret-key-for-testing-only")

// generateTestToken generates a valid HS256 operator token.
func generateTestToken(t *testing.T, operatorID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   operatorID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zerolog.New(io.Discard)

	loc := location.NewProvider(location.ProviderConfig{
		Source: &location.StaticSource{Lat: 0.5143, Lon: 35.2698, AccuracyMeters: 10},
		Logger: logger,
		Clock:  clockwork.NewRealClock(),
	})

	orch := fusion.NewOrchestrator(fusion.OrchestratorConfig{
		Location: loc,
		Weather: &weather.StaticProvider{Observation: weather.Observation{
			Temperature: 26, Humidity: 72, ObservedAt: time.Now(),
		}},
		Vegetation: &vegetation.StaticProvider{Index: vegetation.Index{
			Value: 0.55, ObservedAt: time.Now(),
		}},
		Soil: &soil.StaticProvider{Moisture: soil.Moisture{
			Percent: 42, ObservedAt: time.Now(),
		}},
		Logger: logger,
	})

	engine, err := risk.NewEngine(risk.EngineConfig{})
	require.NoError(t, err)

	assessments := assessment.NewService(assessment.ServiceConfig{
		Repository:   assessment.NewInMemoryRepository(),
		Engine:       engine,
		Orchestrator: orch,
		Logger:       logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:        "test",
		BuildTime:      "2026-01-01T00:00:00Z",
		Logger:         logger,
		OperatorSecret: testSecret,
		Orchestrator:   orch,
		Assessments:    assessments,
	})
}

func authedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, "op_test1"))
	return req
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ScoreRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/score/insights", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_InvalidToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/", http.NoBody)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ScoreInsights(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(models.InsightScoreRequest{
		SoilHealth:        "poor",
		WaterAvailability: "average",
		PestStatus:        "excellent",
		Fertilization:     "poor",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v1/score/insights", body))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var a models.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "insight", a.Mode)
	assert.NotEmpty(t, a.Result.Recommendations)
}

func TestRouter_ScoreInsights_InvalidRating(t *testing.T) {
	router := newTestRouter(t)

	body := []byte(`{"soilHealth":"fine","waterAvailability":"average","pestStatus":"excellent","fertilization":"poor"}`)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v1/score/insights", body))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "soilHealth", problem.Errors[0].Field)
}

func TestRouter_ScoreDetections(t *testing.T) {
	router := newTestRouter(t)

	moisture := 18.0
	body, err := json.Marshal(models.DetectionScoreRequest{
		Healthy:            80,
		Contaminated:       20,
		TransportCondition: "open-truck",
		StorageCondition:   "dry-warehouse",
		GrainMoisturePct:   &moisture,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v1/score/detections", body))

	require.Equal(t, http.StatusCreated, w.Code)

	var a models.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "detection", a.Mode)
	assert.Equal(t, 29.75, a.Result.Score)
	assert.Equal(t, "Moderate", a.Result.Level)
}

func TestRouter_SnapshotLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/v1/snapshot/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "complete", snap.State)
	assert.True(t, snap.HasData)
	require.NotNil(t, snap.Location)
	assert.InDelta(t, 0.5143, snap.Location.Lat, 1e-9)
	assert.Equal(t, models.SignalStatusOK, snap.Weather.Status)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v1/snapshot/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AssessmentCRUD(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(models.DetectionScoreRequest{Healthy: 95, Contaminated: 5})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v1/score/detections", body))
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/v1/assessments/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var page models.PagedAssessments
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/v1/assessments/"+created.ID+"/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodDelete, "/v1/assessments/"+created.ID+"/", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/v1/assessments/"+created.ID+"/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AssessmentsScopedToOperator(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(models.DetectionScoreRequest{Healthy: 10})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/v1/score/detections", body))
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// A different operator cannot see it.
	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/"+created.ID+"/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, "op_other"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
