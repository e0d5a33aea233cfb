// Package handler implements the HTTP handlers for the Waymark API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (route.go, audio.go, etc.) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/audio"
	"github.com/waymarkhq/waymark/internal/chat"
	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/geocode"
)

// RouteServicer defines the business operations the route handler depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type RouteServicer interface {
	Create(ctx context.Context, route domain.Route) (domain.Route, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Route, int64, error)
	Update(ctx context.Context, route domain.Route) (domain.Route, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExportServicer assembles and renders route exports.
type ExportServicer interface {
	Export(ctx context.Context, routeID uuid.UUID) ([]domain.ExportRow, error)
	WriteGPX(w io.Writer, rows []domain.ExportRow) error
	WriteCSV(w io.Writer, rows []domain.ExportRow) error
	WriteJSON(w io.Writer, rows []domain.ExportRow) error
}

// AudioGenerator runs text-to-speech for a saved point.
type AudioGenerator interface {
	Generate(ctx context.Context, pointID uuid.UUID, text string, voice domain.VoiceType, lang domain.AudioLanguage) (audio.Asset, error)
}

// PlaceSearcher proxies forward and reverse geocoding.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]geocode.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// ChatHistory loads persisted chat messages for the history endpoint.
type ChatHistory interface {
	ListRecent(ctx context.Context, chatPath string, limit int) ([]domain.ChatMessage, error)
}

// GeometryBuilder produces the renderable route line for an ordered point
// list. The routing.Builder satisfies this.
type GeometryBuilder interface {
	Build(ctx context.Context, points []domain.Point, mode domain.RouteMode) (domain.Geometry, error)
}

// Deps bundles the Server's collaborators. The optional ones (Audio, Chat,
// Store, Broker, Geometry) may be nil; their routes then respond 503.
// Chat serves the REST history endpoint and Store persists websocket sessions;
// in the server both are the chat message repo, but they are separate seams.
type Deps struct {
	Routes   RouteServicer
	Export   ExportServicer
	Audio    AudioGenerator
	Places   PlaceSearcher
	Chat     ChatHistory
	Store    chat.HistoryStore
	Broker   chat.Broker
	Geometry GeometryBuilder
	Log      *slog.Logger
}

// Server holds the dependencies for all API endpoints.
type Server struct {
	routes   RouteServicer
	export   ExportServicer
	audio    AudioGenerator
	places   PlaceSearcher
	chat     ChatHistory
	store    chat.HistoryStore
	broker   chat.Broker
	geometry GeometryBuilder
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Server{
		routes:   d.Routes,
		export:   d.Export,
		audio:    d.Audio,
		places:   d.Places,
		chat:     d.Chat,
		store:    d.Store,
		broker:   d.Broker,
		geometry: d.Geometry,
		log:      d.Log,
	}
}

// Routes mounts every endpoint on a fresh chi router. The URL shapes match
/// the web client: route CRUD under /routes/api/routes/, audio generation
// under /api/ai-audio/, place search under /api/places/.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Route("/routes/api/routes", func(r chi.Router) {
		r.Get("/", s.ListRoutes)
		r.Post("/", s.CreateRoute)
		r.Route("/{routeID}", func(r chi.Router) {
			r.Get("/", s.GetRoute)
			r.Post("/", s.UpdateRoute)
			r.Delete("/", s.DeleteRoute)
			r.Get("/export", s.ExportRoute)
		})
	})

	r.Post("/api/ai-audio/generate/{pointID}/", s.GenerateAudio)

	r.Route("/api/places", func(r chi.Router) {
		r.Get("/search", s.SearchPlaces)
		r.Get("/reverse", s.ReverseGeocode)
	})

	r.Route("/api/directions", func(r chi.Router) {
		r.Post("/", s.BuildDirections)
		r.Post("/optimize/", s.OptimizeWaypoints)
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Get("/history", s.ChatHistoryList)
		r.Get("/ws", s.ChatWebSocket)
	})

	return r
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
