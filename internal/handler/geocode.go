package handler

import (
	"net/http"

	"github.com/waymarkhq/waymark/internal/geo"
	"github.com/waymarkhq/waymark/internal/geocode"
)

// placeResult is one search hit, enriched with the category icon the client
// shows in the dropdown.
type placeResult struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Type        string  `json:"type"`
	Icon        string  `json:"icon"`
}

// SearchPlaces handles GET /api/places/search?q=.
// Queries shorter than three characters return an empty list without touching
// the geocoder.
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := s.places.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}

	results := make([]placeResult, 0, len(places))
	for _, p := range places {
		lat, _ := geo.Normalize(p.Lat)
		lng, _ := geo.Normalize(p.Lon)
		results = append(results, placeResult{
			DisplayName: p.DisplayName,
			Lat:         lat,
			Lng:         lng,
			Type:        p.Type,
			Icon:        geocode.PlaceIcon(p),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// ReverseGeocode handles GET /api/places/reverse?lat=&lng=.
// Coordinates go through the usual normalization, so comma decimals work.
func (s *Server) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, okLat := geo.Normalize(q.Get("lat"))
	lng, okLng := geo.Normalize(q.Get("lng"))
	if !okLat || !okLng {
		respondBadRequest(w, "lat and lng are required")
		return
	}

	address, err := s.places.Reverse(r.Context(), lat, lng)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"address": address})
}
