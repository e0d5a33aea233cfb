package handler

import (
	"encoding/json"
	"net/http"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/editor"
)

// directionsRequest is the body of the directions endpoints: an ordered
// waypoint list plus the travel mode that picks the profile and line style.
type directionsRequest struct {
	RouteType string               `json:"route_type"`
	Waypoints []directionsWaypoint `json:"waypoints"`
}

type directionsWaypoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// optimizeResponse carries the reordered waypoints and the recomputed total.
type optimizeResponse struct {
	Waypoints     []domain.Point `json:"waypoints"`
	TotalDistance float64        `json:"total_distance"`
}

func (req directionsRequest) points() []domain.Point {
	pts := make([]domain.Point, len(req.Waypoints))
	for i, wp := range req.Waypoints {
		pts[i] = domain.Point{Name: wp.Name, Lat: wp.Lat, Lng: wp.Lng}
	}
	return pts
}

func (req directionsRequest) mode() domain.RouteMode {
	mode := domain.RouteMode(req.RouteType)
	if mode == "" {
		mode = domain.ModeDriving
	}
	return mode
}

// BuildDirections handles POST /api/directions/.
// It returns the route geometry for the waypoints: a routed polyline when the
// directions service answers, a dashed straight-line fallback otherwise. A
// build already in flight yields 409.
func (s *Server) BuildDirections(w http.ResponseWriter, r *http.Request) {
	if s.geometry == nil {
		respondServiceUnavailable(w, "directions are not configured")
		return
	}

	var req directionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed request body")
		return
	}
	if !req.mode().Valid() {
		respondBadRequest(w, "unknown route type "+req.RouteType)
		return
	}

	geom, err := s.geometry.Build(r.Context(), req.points(), req.mode())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, geom)
}

// OptimizeWaypoints handles POST /api/directions/optimize/.
// First and last waypoints stay fixed; the interior is reordered by ascending
// distance from the start. Routes with fewer than three waypoints come back
// unchanged as 422.
func (s *Server) OptimizeWaypoints(w http.ResponseWriter, r *http.Request) {
	var req directionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed request body")
		return
	}
	if !req.mode().Valid() {
		respondBadRequest(w, "unknown route type "+req.RouteType)
		return
	}

	// A headless editing session: no map view, no address resolution, no
	// geometry rebuild. Optimize is the only mutation it runs.
	session := editor.NewSession(req.points(), req.mode(), nil, nil, nil, s.log)
	if err := session.Optimize(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, optimizeResponse{
		Waypoints:     session.Points(),
		TotalDistance: session.TotalDistance(),
	})
}
