// Package service contains the business logic for the Waymark API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/geo"
	"github.com/waymarkhq/waymark/internal/repo"
)

// RouteService implements business logic for route operations.
// It owns input normalization: coordinates are coerced to finite floats, tag
// slugs are lowercased and hyphenated, and the total distance is recomputed
// from the point list on every write.
type RouteService struct {
	routes repo.RouteRepo
}

// NewRouteService constructs a RouteService backed by the provided RouteRepo.
func NewRouteService(routes repo.RouteRepo) *RouteService {
	return &RouteService{routes: routes}
}

// Create validates, normalizes, and persists a new route.
// Returns domain.ErrValidation if input violates business rules.
func (s *RouteService) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	route, err := prepareRoute(route)
	if err != nil {
		return domain.Route{}, err
	}
	result, err := s.routes.Create(ctx, route)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single route with its points.
// Returns domain.ErrNotFound if no route with that ID exists.
func (s *RouteService) GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	result, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.GetByID: %w", err)
	}
	return result, nil
}

// List returns one page of route summaries and the total route count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *RouteService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Route, int64, error) {
	routes, total, err := s.routes.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.RouteService.List: %w", err)
	}
	if routes == nil {
		routes = []domain.Route{}
	}
	return routes, total, nil
}

// Update validates, normalizes, and persists changes to an existing route.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// route does not exist.
func (s *RouteService) Update(ctx context.Context, route domain.Route) (domain.Route, error) {
	prepared, err := prepareRoute(route)
	if err != nil {
		return domain.Route{}, err
	}
	prepared.ID = route.ID
	result, err := s.routes.Update(ctx, prepared)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a route by ID.
// Returns domain.ErrNotFound if the route does not exist.
func (s *RouteService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.RouteService.Delete: %w", err)
	}
	return nil
}

// prepareRoute enforces business rules common to Create and Update and
// returns the normalized copy:
//   - Name must be non-empty (whitespace-only names are rejected).
//   - At least one point is required; point names must be non-empty.
//   - Mode defaults to driving, privacy to private; unknown values are rejected.
//   - Coordinates are run through geo.Normalize so nothing non-finite is stored.
//   - Tags are slugified and deduplicated per point.
//   - TotalDistance and HasAudioGuide are derived from the point list.
func prepareRoute(route domain.Route) (domain.Route, error) {
	route.Name = strings.TrimSpace(route.Name)
	if route.Name == "" {
		return domain.Route{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(route.Points) == 0 {
		return domain.Route{}, fmt.Errorf("%w: at least one point is required", domain.ErrValidation)
	}

	if route.Mode == "" {
		route.Mode = domain.ModeDriving
	}
	if !route.Mode.Valid() {
		return domain.Route{}, fmt.Errorf("%w: unknown route type %q", domain.ErrValidation, route.Mode)
	}
	switch route.Privacy {
	case "":
		route.Privacy = domain.PrivacyPrivate
	case domain.PrivacyPublic, domain.PrivacyUnlisted, domain.PrivacyPrivate:
	default:
		return domain.Route{}, fmt.Errorf("%w: unknown privacy %q", domain.ErrValidation, route.Privacy)
	}

	points := domain.ClonePoints(route.Points)
	hasAudio := false
	for i := range points {
		points[i].Name = strings.TrimSpace(points[i].Name)
		if points[i].Name == "" {
			return domain.Route{}, fmt.Errorf("%w: point %d: name is required", domain.ErrValidation, i)
		}
		points[i].Lat, _ = geo.Normalize(points[i].Lat)
		points[i].Lng, _ = geo.Normalize(points[i].Lng)
		points[i].Tags = NormalizeTags(points[i].Tags)
		if points[i].AudioURL != "" {
			hasAudio = true
		}
	}
	route.Points = points
	route.HasAudioGuide = hasAudio
	route.TotalDistance = totalDistance(points)

	if route.DurationMinutes < 0 {
		return domain.Route{}, fmt.Errorf("%w: duration must not be negative", domain.ErrValidation)
	}
	return route, nil
}

// totalDistance sums the leg distances between consecutive points in km,
// rounded to two decimals.
func totalDistance(points []domain.Point) float64 {
	var km float64
	for i := 1; i < len(points); i++ {
		km += geo.Distance(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	return geo.Round2(km)
}

// NormalizeTags slugifies each tag and drops duplicates and empties,
// preserving first-seen order. Tag identity is determined by slug, which is
// always lowercase and hyphenated.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		slug := Slugify(tag)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Slugify lowercases a tag name and reduces it to letters, digits, and single
// hyphens. "Night  Walks!" becomes "night-walks". Non-Latin letters are kept,
// so Cyrillic tags survive.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
