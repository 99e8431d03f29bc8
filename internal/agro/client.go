// Package agro implements the vegetation and soil providers against the
// Agro API (agromonitoring.com). Both signals are served per polygon, so the
// client maintains a small cache of polygons created around requested points.
package agro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/grainguard/grainguard/internal/provider/resilience"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "agromonitoring"

	// DefaultBaseURL is the Agro API base URL.
	DefaultBaseURL = "https://api.agromonitoring.com/agro/1.0"

	// polygonHalfSize is half the side of the sampling square in degrees
	// (~0.9 km at the equator), small enough to represent a single field.
	polygonHalfSize = 0.004

	// ndviLookback is how far back to search for the latest NDVI scene.
	ndviLookback = 30 * 24 * time.Hour
)

// ClientConfig holds configuration for the Agro API client.
type ClientConfig struct {
	// APIKey is the Agro API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// PolygonGridSize is the grid cell size in degrees used to reuse
	// polygons for nearby points (default: 0.01, ~1.1km).
	PolygonGridSize float64

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Agro API client implementing vegetation.Provider and
// soil.Provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	gridSize   float64
	logger     zerolog.Logger

	mu       sync.Mutex
	polygons map[string]string // grid cell -> polygon ID
}

// NewClient creates a new Agro API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	gridSize := cfg.PolygonGridSize
	if gridSize == 0 {
		gridSize = 0.01
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		gridSize:   gridSize,
		logger:     cfg.Logger,
		polygons:   make(map[string]string),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetIndex fetches the latest NDVI reading for a location.
func (c *Client) GetIndex(ctx context.Context, lat, lon float64) (*vegetation.Index, error) {
	if err := vegetation.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	polyID, err := c.polygonFor(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.Add(-ndviLookback)
	url := fmt.Sprintf("%s/ndvi/history?polyid=%s&start=%d&end=%d&appid=%s",
		c.baseURL, polyID, start.Unix(), end.Unix(), c.apiKey)

	var entries []ndviHistoryEntry
	if err := c.getJSON(ctx, url, &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, vegetation.ErrNoDataForLocation
	}

	// Entries are chronological; take the newest scene.
	latest := entries[len(entries)-1]
	for _, e := range entries {
		if e.Dt > latest.Dt {
			latest = e
		}
	}

	return &vegetation.Index{
		Lat:        lat,
		Lon:        lon,
		Value:      latest.Data.Mean,
		ObservedAt: time.Unix(latest.Dt, 0),
		FetchedAt:  time.Now(),
	}, nil
}

// GetMoisture fetches the current soil moisture for a location.
func (c *Client) GetMoisture(ctx context.Context, lat, lon float64) (*soil.Moisture, error) {
	if err := soil.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	polyID, err := c.polygonFor(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/soil?polyid=%s&appid=%s", c.baseURL, polyID, c.apiKey)

	var resp soilResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	return &soil.Moisture{
		Lat:          lat,
		Lon:          lon,
		Percent:      resp.Moisture * 100, // m3/m3 -> percent
		SurfaceTempC: resp.T0 - 273.15,    // Kelvin -> Celsius
		ObservedAt:   time.Unix(resp.Dt, 0),
		FetchedAt:    time.Now(),
	}, nil
}

// polygonFor returns the polygon ID covering the given point, creating one
// when the grid cell has not been seen before. Nearby points share a polygon.
func (c *Client) polygonFor(ctx context.Context, lat, lon float64) (string, error) {
	key := c.gridKey(lat, lon)

	c.mu.Lock()
	if id, ok := c.polygons[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := c.createPolygon(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.polygons[key] = id
	c.mu.Unlock()

	c.logger.Debug().
		Str("polygon_id", id).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("created sampling polygon")

	return id, nil
}

func (c *Client) gridKey(lat, lon float64) string {
	gridLat := math.Floor(lat/c.gridSize) * c.gridSize
	gridLon := math.Floor(lon/c.gridSize) * c.gridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// createPolygon registers a small square sampling polygon around the point.
func (c *Client) createPolygon(ctx context.Context, lat, lon float64) (string, error) {
	ring := [][]float64{
		{lon - polygonHalfSize, lat - polygonHalfSize},
		{lon + polygonHalfSize, lat - polygonHalfSize},
		{lon + polygonHalfSize, lat + polygonHalfSize},
		{lon - polygonHalfSize, lat + polygonHalfSize},
		{lon - polygonHalfSize, lat - polygonHalfSize},
	}

	reqBody := polygonRequest{
		Name: fmt.Sprintf("site_%.4f_%.4f", lat, lon),
		GeoJSON: geoJSONFeature{
			Type: "Feature",
			Geometry: geoJSONGeometry{
				Type:        "Polygon",
				Coordinates: [][][]float64{ring},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding polygon request: %w", err)
	}

	url := fmt.Sprintf("%s/polygons?appid=%s&duplicated=true", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var polyResp polygonResponse
	if err := json.NewDecoder(resp.Body).Decode(&polyResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return polyResp.ID, nil
}

// getJSON performs a GET request and decodes the JSON response body.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Agro API request/response structures.

type polygonRequest struct {
	Name    string         `json:"name"`
	GeoJSON geoJSONFeature `json:"geo_json"`
}

type geoJSONFeature struct {
	Type     string          `json:"type"`
	Geometry geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

type polygonResponse struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Center []float64 `json:"center"`
	Area   float64   `json:"area"`
}

type ndviHistoryEntry struct {
	Dt   int64 `json:"dt"`
	Data struct {
		Mean float64 `json:"mean"`
		Min  float64 `json:"min"`
		Max  float64 `json:"max"`
	} `json:"data"`
}

type soilResponse struct {
	Dt       int64   `json:"dt"`
	T10      float64 `json:"t10"`
	Moisture float64 `json:"moisture"`
	T0       float64 `json:"t0"`
}
