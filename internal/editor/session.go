// Package editor implements the route editing session: the ordered point
// list, its undo/redo history, and the synchronization of markers and route
// geometry with a map view collaborator.
//
// A Session is the sole owner of its point list. Other components (the point
// dialog, the audio generator) communicate intended changes back through the
// Session's entry points and never mutate list entries directly.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/geo"
)

// addressPending is the placeholder shown while reverse geocoding resolves
// a freshly added point's address.
const addressPending = "Resolving address…"

// MapView receives rendering updates whenever the session's state changes.
// Implementations push marker and geometry view models to whatever surface
// renders the map (a websocket client, a test recorder).
type MapView interface {
	SetMarkers(markers []Marker)
	SetGeometry(geom domain.Geometry)
	ClearGeometry()
}

// GeometryBuilder produces the route line for the ordered points. The
// routing.Builder satisfies this; it degrades to a straight-line fallback on
// service failure and returns domain.ErrBusy while a build is in flight.
type GeometryBuilder interface {
	Build(ctx context.Context, points []domain.Point, mode domain.RouteMode) (domain.Geometry, error)
}

// AddressResolver resolves a coordinate to a display address. The geocode
// client satisfies this.
type AddressResolver interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Session owns the ordered point list and keeps the map view consistent
// with it. Marker and point lists stay in 1:1 index correspondence.
//
// Methods are safe for concurrent use; the background address resolution
// goroutine re-enters through the same mutex.
type Session struct {
	mu      sync.Mutex
	points  []domain.Point
	history *History
	mode    domain.RouteMode

	view     MapView
	builder  GeometryBuilder
	resolver AddressResolver
	log      *slog.Logger
}

// NewSession constructs a Session. view, builder, and resolver may each be
// nil for headless use (tests, distance-only callers); nil collaborators
// disable the corresponding side effect.
func NewSession(initial []domain.Point, mode domain.RouteMode, view MapView, builder GeometryBuilder, resolver AddressResolver, log *slog.Logger) *Session {
	if !mode.Valid() {
		mode = domain.ModeWalking
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		points:   domain.ClonePoints(initial),
		history:  NewHistory(initial),
		mode:     mode,
		view:     view,
		builder:  builder,
		resolver: resolver,
		log:      log,
	}
}

// Points returns a deep copy of the current ordered point list.
func (s *Session) Points() []domain.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ClonePoints(s.points)
}

// Mode returns the current route mode.
func (s *Session) Mode() domain.RouteMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the travel profile and rebuilds the route geometry,
// since the directions profile and line style both depend on it.
func (s *Session) SetMode(ctx context.Context, mode domain.RouteMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown route mode %q", domain.ErrValidation, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	s.render(ctx)
	return nil
}

// AddPoint appends a point to the route. The point's coordinates are
// normalized, the mutation is recorded in history, markers re-render, and
// the route geometry rebuilds once at least two points exist.
//
// When the point arrives without an address (a raw map click), a background
// reverse-geocode fills it in later; failures degrade silently to the
// placeholder. Index stability between add and resolution is assumed.
func (s *Session) AddPoint(ctx context.Context, p domain.Point) {
	p.Lat, _ = geo.Normalize(p.Lat)
	p.Lng, _ = geo.Normalize(p.Lng)

	s.mu.Lock()
	needsAddress := p.Address == ""
	if needsAddress {
		p.Address = addressPending
	}
	s.points = append(s.points, p.Clone())
	s.history.Record(s.points)
	index := len(s.points) - 1
	s.mu.Unlock()

	s.render(ctx)

	if needsAddress && s.resolver != nil {
		go s.resolveAddress(ctx, index, p.Lat, p.Lng)
	}
}

// resolveAddress fills in the address of the point at index once reverse
// geocoding completes. Late completion after subsequent edits overwrites the
// field by index — an accepted eventually-consistent overwrite, never a
// structural change to the list.
func (s *Session) resolveAddress(ctx context.Context, index int, lat, lng float64) {
	addr, err := s.resolver.Reverse(ctx, lat, lng)
	if err != nil || addr == "" {
		s.log.Debug("address resolution failed", "index", index, "error", err)
		return
	}

	s.mu.Lock()
	if index < len(s.points) {
		s.points[index].Address = addr
	}
	s.mu.Unlock()
	s.renderMarkers()
}

// PointUpdate carries the editable fields of a point. Nil fields are left
// untouched by UpdatePoint, giving merge semantics.
type PointUpdate struct {
	Name        *string
	Lat         *float64
	Lng         *float64
	Address     *string
	Description *string
	Category    *domain.Category
	HintAuthor  *string
	Tags        *[]string
	Photos      *[]domain.Photo
	AudioURL    *string
}

// UpdatePoint merges the non-nil fields of upd into the point at index,
// recording history first. Returns domain.ErrNotFound for an out-of-range
// index.
func (s *Session) UpdatePoint(ctx context.Context, index int, upd PointUpdate) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.points) {
		s.mu.Unlock()
		return fmt.Errorf("editor.Session.UpdatePoint: %w", domain.ErrNotFound)
	}

	p := &s.points[index]
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Lat != nil {
		p.Lat, _ = geo.Normalize(*upd.Lat)
	}
	if upd.Lng != nil {
		p.Lng, _ = geo.Normalize(*upd.Lng)
	}
	if upd.Address != nil {
		p.Address = *upd.Address
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.HintAuthor != nil {
		p.HintAuthor = *upd.HintAuthor
	}
	if upd.Tags != nil {
		p.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.Photos != nil {
		p.Photos = append([]domain.Photo(nil), (*upd.Photos)...)
	}
	if upd.AudioURL != nil {
		p.AudioURL = *upd.AudioURL
	}
	s.history.Record(s.points)
	s.mu.Unlock()

	s.render(ctx)
	return nil
}

// DeletePoint removes the point at index. Confirmation is the calling UI
// layer's concern; by the time this runs the user has already confirmed.
func (s *Session) DeletePoint(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.points) {
		s.mu.Unlock()
		return fmt.Errorf("editor.Session.DeletePoint: %w", domain.ErrNotFound)
	}
	s.points = append(s.points[:index], s.points[index+1:]...)
	s.history.Record(s.points)
	s.mu.Unlock()

	s.render(ctx)
	return nil
}

// Reset clears the entire point list (after UI confirmation).
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.points = nil
	s.history.Record(s.points)
	s.mu.Unlock()

	s.render(ctx)
}

// Optimize reorders the interior points by ascending great-circle distance
// from the first point, keeping the first and last fixed. This is a greedy
// nearest-to-start heuristic, not a TSP solver. Requires at least three
// points, else domain.ErrTooFewPoints and no change.
func (s *Session) Optimize(ctx context.Context) error {
	s.mu.Lock()
	if len(s.points) < 3 {
		s.mu.Unlock()
		return fmt.Errorf("editor.Session.Optimize: %w", domain.ErrTooFewPoints)
	}

	first := s.points[0]
	last := s.points[len(s.points)-1]
	interior := domain.ClonePoints(s.points[1 : len(s.points)-1])

	sortByDistanceFrom(first, interior)

	reordered := make([]domain.Point, 0, len(s.points))
	reordered = append(reordered, first)
	reordered = append(reordered, interior...)
	reordered = append(reordered, last)
	s.points = reordered
	s.history.Record(s.points)
	s.mu.Unlock()

	s.render(ctx)
	return nil
}

// Undo restores the previous history snapshot. Returns false at the bottom
// of the stack.
func (s *Session) Undo(ctx context.Context) bool {
	s.mu.Lock()
	snap, ok := s.history.Undo()
	if ok {
		s.points = snap
	}
	s.mu.Unlock()

	if ok {
		s.render(ctx)
	}
	return ok
}

// Redo restores the next history snapshot. Returns false at the top of the
// stack.
func (s *Session) Redo(ctx context.Context) bool {
	s.mu.Lock()
	snap, ok := s.history.Redo()
	if ok {
		s.points = snap
	}
	s.mu.Unlock()

	if ok {
		s.render(ctx)
	}
	return ok
}

// CanUndo reports whether Undo would succeed (UI button state).
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// TotalDistance returns the sum of consecutive pairwise great-circle
// distances in kilometres, rounded to two decimals. Zero for fewer than two
// points.
func (s *Session) TotalDistance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalDistance(s.points)
}

// SetPointAudio attaches (or with url == "" drops) the generated audio asset
// on the point at index. Called by the audio generator through the
// PointAudioStore seam; not a history-recorded mutation since it reflects a
// backend-owned association, not an edit.
func (s *Session) SetPointAudio(index int, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("editor.Session.SetPointAudio: %w", domain.ErrNotFound)
	}
	s.points[index].AudioURL = url
	return nil
}

// render pushes markers and rebuilt geometry to the map view.
func (s *Session) render(ctx context.Context) {
	s.renderMarkers()
	s.rebuildGeometry(ctx)
}

func (s *Session) renderMarkers() {
	if s.view == nil {
		return
	}
	s.mu.Lock()
	markers := buildMarkers(s.points)
	s.mu.Unlock()
	s.view.SetMarkers(markers)
}

// rebuildGeometry requests a fresh route line. It is idempotent: the view
// replaces (or clears) any previously rendered geometry every time. A build
// already in flight (domain.ErrBusy) is simply skipped, not queued.
func (s *Session) rebuildGeometry(ctx context.Context) {
	if s.view == nil && s.builder == nil {
		return
	}

	s.mu.Lock()
	points := domain.ClonePoints(s.points)
	mode := s.mode
	s.mu.Unlock()

	if len(points) < 2 {
		if s.view != nil {
			s.view.ClearGeometry()
		}
		return
	}
	if s.builder == nil {
		return
	}

	geom, err := s.builder.Build(ctx, points, mode)
	if err != nil {
		if !errors.Is(err, domain.ErrBusy) {
			s.log.Warn("route geometry build failed", "error", err)
		}
		return
	}
	if geom.Fallback {
		s.log.Warn("directions service unavailable, using straight-line fallback")
	}
	if s.view != nil {
		s.view.SetGeometry(geom)
	}
}

// sortByDistanceFrom orders points by ascending haversine distance from origin.
// Stable so equidistant points keep their relative order.
func sortByDistanceFrom(origin domain.Point, points []domain.Point) {
	sort.SliceStable(points, func(i, j int) bool {
		di := geo.Distance(origin.Lat, origin.Lng, points[i].Lat, points[i].Lng)
		dj := geo.Distance(origin.Lat, origin.Lng, points[j].Lat, points[j].Lng)
		return di < dj
	})
}

// totalDistance sums consecutive pairwise distances, rounded to 2 decimals.
func totalDistance(points []domain.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		total += geo.Distance(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
	}
	return geo.Round2(total)
}
