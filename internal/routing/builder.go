package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/waymarkhq/waymark/internal/domain"
)

// DirectionsClient is the seam the Builder depends on. *Client satisfies it;
// tests inject a double.
type DirectionsClient interface {
	Directions(ctx context.Context, points []domain.Point, profile string) ([]domain.LatLng, error)
}

// Builder turns an ordered point list into renderable geometry. At most one
// build runs at a time; a concurrent call gets domain.ErrBusy and is
// dropped, not queued.
//
// Build is naturally idempotent — callers replace any previously rendered
// geometry with the result — and it never surfaces a directions-service
// failure as an error: any failure (network, non-2xx, malformed response)
// degrades to straight dashed segments with Fallback set, which the caller
// reports as a non-fatal warning.
type Builder struct {
	client DirectionsClient
	busy   atomic.Bool
	log    *slog.Logger
}

// NewBuilder constructs a Builder. client may be nil, in which case every
// build yields the straight-line fallback (useful without an API key).
func NewBuilder(client DirectionsClient, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{client: client, log: log}
}

// Build produces geometry for the points under the given mode.
// Returns domain.ErrValidation for fewer than two points and domain.ErrBusy
// while another build is in flight.
func (b *Builder) Build(ctx context.Context, points []domain.Point, mode domain.RouteMode) (domain.Geometry, error) {
	if len(points) < 2 {
		return domain.Geometry{}, fmt.Errorf("%w: a route needs at least two points", domain.ErrValidation)
	}
	if !b.busy.CompareAndSwap(false, true) {
		return domain.Geometry{}, fmt.Errorf("routing.Builder.Build: %w", domain.ErrBusy)
	}
	defer b.busy.Store(false)

	if b.client != nil {
		line, err := b.client.Directions(ctx, points, Profile(mode))
		if err == nil {
			return domain.Geometry{
				Coords:    line,
				Color:     Color(mode),
				FitBounds: true,
			}, nil
		}
		b.log.Warn("directions request failed, falling back to straight segments", "error", err)
	}

	return straightLine(points, mode), nil
}

// straightLine connects consecutive points directly, rendered dashed.
func straightLine(points []domain.Point, mode domain.RouteMode) domain.Geometry {
	coords := make([]domain.LatLng, len(points))
	for i, p := range points {
		coords[i] = domain.LatLng{Lat: p.Lat, Lng: p.Lng}
	}
	return domain.Geometry{
		Coords:   coords,
		Color:    Color(mode),
		Dashed:   true,
		Fallback: true,
	}
}
