package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/domain"
)

// saveRouteResponse is the body returned by the create and update endpoints.
// The web client keys on the success flag and the returned route id.
type saveRouteResponse struct {
	Success bool   `json:"success"`
	RouteID string `json:"route_id"`
}

// listRoutesResponse wraps a page of route summaries.
type listRoutesResponse struct {
	Routes []domain.Route `json:"routes"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// CreateRoute handles POST /routes/api/routes/.
// The body is the route aggregate with its waypoints inline.
func (s *Server) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var route domain.Route
	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
		respondBadRequest(w, "malformed request body")
		return
	}

	saved, err := s.routes.Create(r.Context(), route)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saveRouteResponse{Success: true, RouteID: saved.ID.String()})
}

// GetRoute handles GET /routes/api/routes/{routeID}/.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}
	route, err := s.routes.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, route)
}

// ListRoutes handles GET /routes/api/routes/?page=&limit=.
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	p := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	routes, total, err := s.routes.List(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listRoutesResponse{
		Routes: routes,
		Total:  total,
		Page:   p.Page,
		Limit:  p.Limit,
	})
}

// UpdateRoute handles POST /routes/api/routes/{routeID}/.
// The client uses POST rather than PUT for saves of existing routes.
func (s *Server) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}

	var route domain.Route
	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
		respondBadRequest(w, "malformed request body")
		return
	}
	route.ID = id

	saved, err := s.routes.Update(r.Context(), route)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saveRouteResponse{Success: true, RouteID: saved.ID.String()})
}

// DeleteRoute handles DELETE /routes/api/routes/{routeID}/.
func (s *Server) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "routeID")
	if !ok {
		return
	}
	if err := s.routes.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathUUID parses a UUID URL parameter, writing a 400 response on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondBadRequest(w, "malformed "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, returning nil when
// absent or malformed.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
