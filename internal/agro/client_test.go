package agro_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainguard/grainguard/internal/agro"
	"github.com/grainguard/grainguard/internal/provider/resilience"
	"github.com/grainguard/grainguard/internal/vegetation"
)

// agroServer fakes the polygon, NDVI and soil endpoints.
type agroServer struct {
	polygonCreates int64
	ndviEntries    []map[string]interface{}
	soilMoisture   float64
	soilT0Kelvin   float64
}

func (s *agroServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/polygons", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.polygonCreates, 1)

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":   "poly_1",
			"name": body["name"],
			"area": 0.8,
		})
	})

	mux.HandleFunc("/ndvi/history", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("polyid") != "poly_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.ndviEntries)
	})

	mux.HandleFunc("/soil", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"dt":       time.Now().Unix(),
			"t0":       s.soilT0Kelvin,
			"t10":      s.soilT0Kelvin - 2,
			"moisture": s.soilMoisture,
		})
	})

	return mux
}

func newTestClient(t *testing.T, s *agroServer) (*agro.Client, func()) {
	t.Helper()

	server := httptest.NewServer(s.handler())
	client := agro.NewClient(agro.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})
	return client, server.Close
}

func TestClient_GetIndex(t *testing.T) {
	now := time.Now().Unix()
	srv := &agroServer{
		ndviEntries: []map[string]interface{}{
			{"dt": now - 86400, "data": map[string]float64{"mean": 0.41}},
			{"dt": now, "data": map[string]float64{"mean": 0.58}},
		},
	}
	client, closeFn := newTestClient(t, srv)
	defer closeFn()

	idx, err := client.GetIndex(context.Background(), 1.0157, 35.0062)
	require.NoError(t, err)
	require.NotNil(t, idx)

	// Newest scene wins.
	assert.Equal(t, 0.58, idx.Value)
	assert.Equal(t, 1.0157, idx.Lat)
	assert.Equal(t, 35.0062, idx.Lon)
	assert.Equal(t, int64(1), atomic.LoadInt64(&srv.polygonCreates))
}

func TestClient_GetIndex_NoData(t *testing.T) {
	srv := &agroServer{ndviEntries: []map[string]interface{}{}}
	client, closeFn := newTestClient(t, srv)
	defer closeFn()

	_, err := client.GetIndex(context.Background(), 1.0157, 35.0062)
	assert.ErrorIs(t, err, vegetation.ErrNoDataForLocation)
}

func TestClient_GetMoisture(t *testing.T) {
	srv := &agroServer{
		soilMoisture: 0.42,
		soilT0Kelvin: 295.15,
	}
	client, closeFn := newTestClient(t, srv)
	defer closeFn()

	m, err := client.GetMoisture(context.Background(), -0.3031, 36.08)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.InDelta(t, 42.0, m.Percent, 1e-9)
	assert.InDelta(t, 22.0, m.SurfaceTempC, 1e-9)
}

func TestClient_PolygonReusedForNearbyPoints(t *testing.T) {
	srv := &agroServer{
		ndviEntries: []map[string]interface{}{
			{"dt": time.Now().Unix(), "data": map[string]float64{"mean": 0.5}},
		},
	}
	client, closeFn := newTestClient(t, srv)
	defer closeFn()

	ctx := context.Background()

	// Two points in the same grid cell share one polygon.
	_, err := client.GetIndex(ctx, 1.0151, 35.0061)
	require.NoError(t, err)
	_, err = client.GetIndex(ctx, 1.0153, 35.0063)
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&srv.polygonCreates))
}

func TestClient_GetIndex_InvalidCoordinates(t *testing.T) {
	client := agro.NewClient(agro.ClientConfig{
		APIKey:     "****",
		BaseURL:    "http://unused",
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	_, err := client.GetIndex(context.Background(), 91, 0)
	assert.ErrorIs(t, err, vegetation.ErrInvalidCoordinates)
}

func TestClient_Name(t *testing.T) {
	client := agro.NewClient(agro.ClientConfig{APIKey: "****"})
	assert.Equal(t, "agromonitoring", client.Name())
}
