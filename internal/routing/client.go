// Package routing builds renderable route geometry for an ordered point
// list: a routed polyline from the OpenRouteService directions API when the
// service cooperates, straight dashed segments when it does not.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/waymarkhq/waymark/internal/domain"
)

// DefaultBaseURL is the public OpenRouteService endpoint.
const DefaultBaseURL = "https://api.openrouteservice.org"

// profiles maps a route mode to its directions-service profile identifier.
var profiles = map[domain.RouteMode]string{
	domain.ModeWalking: "foot-walking",
	domain.ModeDriving: "driving-car",
	domain.ModeCycling: "cycling-regular",
}

// fallbackProfile is used for unknown modes, matching the editor's default.
const fallbackProfile = "driving-car"

// Profile returns the directions-service profile for a mode.
func Profile(mode domain.RouteMode) string {
	if p, ok := profiles[mode]; ok {
		return p
	}
	return fallbackProfile
}

// modeColors maps a route mode to its line color.
var modeColors = map[domain.RouteMode]string{
	domain.ModeWalking: "#48bb78",
	domain.ModeDriving: "#2563eb",
	domain.ModeCycling: "#f59e0b",
}

// Color returns the render color for a mode, defaulting to the driving blue.
func Color(mode domain.RouteMode) string {
	if c, ok := modeColors[mode]; ok {
		return c
	}
	return modeColors[domain.ModeDriving]
}

// Client calls the OpenRouteService directions API. Authentication is a
// static bearer credential passed in the Authorization header.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a directions client. baseURL may be empty to use the
// public endpoint; httpClient may be nil to use http.DefaultClient (no
// client-side timeout — the caller's context is the cancellation mechanism).
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

// directionsRequest is the JSON body for POST /v2/directions/{profile}/geojson.
// Coordinates are [lng, lat] pairs, the order the service expects.
type directionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Instructions bool         `json:"instructions"`
	Preference   string       `json:"preference"`
	Units        string       `json:"units"`
}

// directionsResponse is the subset of the GeoJSON response we consume.
type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Directions requests a routed polyline through the given points for the
// profile. The returned coordinates are converted to lat/lng order.
func (c *Client) Directions(ctx context.Context, points []domain.Point, profile string) ([]domain.LatLng, error) {
	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Lng, p.Lat}
	}

	body, err := json.Marshal(directionsRequest{
		Coordinates:  coords,
		Instructions: false,
		Preference:   "recommended",
		Units:        "km",
	})
	if err != nil {
		return nil, fmt.Errorf("routing.Client.Directions: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("routing.Client.Directions: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing.Client.Directions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("routing.Client.Directions: HTTP %d: %s", resp.StatusCode, detail)
	}

	var parsed directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("routing.Client.Directions: decode: %w", err)
	}
	if len(parsed.Features) == 0 || len(parsed.Features[0].Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("routing.Client.Directions: response has no route geometry")
	}

	line := make([]domain.LatLng, 0, len(parsed.Features[0].Geometry.Coordinates))
	for _, c := range parsed.Features[0].Geometry.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("routing.Client.Directions: malformed coordinate in response")
		}
		line = append(line, domain.LatLng{Lat: c[1], Lng: c[0]})
	}
	return line, nil
}
