package travel

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Coord is a WGS84 coordinate pair
type Coord struct {
	Lat float64
	Lon float64
}

// Estimator estimates door-to-door travel time between two coordinates.
// Implementations must be deterministic for identical inputs within a call;
// the engine treats the estimate as advisory, not binding.
type Estimator interface {
	EstimateMinutes(ctx context.Context, from, to Coord, departAt time.Time) (float64, error)
}

// Fixed returns the same estimate for every trip. Used in tests and as a
// conservative fallback when no travel service is configured.
type Fixed struct {
	Minutes float64
}

func (f Fixed) EstimateMinutes(ctx context.Context, from, to Coord, departAt time.Time) (float64, error) {
	return f.Minutes, nil
}

// Haversine estimates travel time proportional to great-circle distance at a
// configured average speed. Deterministic and offline.
type Haversine struct {
	SpeedKmh float64
}

func (h Haversine) EstimateMinutes(ctx context.Context, from, to Coord, departAt time.Time) (float64, error) {
	speed := h.SpeedKmh
	if speed <= 0 {
		speed = 30
	}
	return distanceKm(from, to) / speed * 60, nil
}

const earthRadiusKm = 6371.0

func distanceKm(a, b Coord) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Client calls an external routing service over HTTP
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

type estimateRequest struct {
	FromLat  float64 `json:"from_lat"`
	FromLon  float64 `json:"from_lon"`
	ToLat    float64 `json:"to_lat"`
	ToLon    float64 `json:"to_lon"`
	DepartAt string  `json:"depart_at"`
}

type estimateResponse struct {
	Minutes float64 `json:"minutes"`
	Error   string  `json:"error,omitempty"`
}

// NewClient creates a routing service client with retries and timeouts
func NewClient(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// EstimateMinutes requests a travel-time estimate from the routing service
func (c *Client) EstimateMinutes(ctx context.Context, from, to Coord, departAt time.Time) (float64, error) {
	request := estimateRequest{
		FromLat:  from.Lat,
		FromLon:  from.Lon,
		ToLat:    to.Lat,
		ToLon:    to.Lon,
		DepartAt: departAt.Format(time.RFC3339),
	}

	var response estimateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/v1/estimate")
	if err != nil {
		return 0, fmt.Errorf("failed to call routing service: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("routing service returned status %d", resp.StatusCode())
	}
	if response.Error != "" {
		return 0, fmt.Errorf("routing service error: %s", response.Error)
	}

	c.logger.Debug("Travel estimate received",
		zap.Float64("minutes", response.Minutes),
		zap.Float64("from_lat", from.Lat),
		zap.Float64("from_lon", from.Lon),
		zap.Float64("to_lat", to.Lat),
		zap.Float64("to_lon", to.Lon))

	return response.Minutes, nil
}
