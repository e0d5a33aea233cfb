// Package repo contains all database access logic for the Waymark API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/waymarkhq/waymark/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is the optional transaction-starting side of a db. Both
// *pgxpool.Pool and pgx.Tx implement it (the latter via savepoints), so
// multi-statement writes stay atomic in production and in tests alike.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx runs fn inside a transaction when d can start one, and directly
// against d otherwise.
func withTx(ctx context.Context, d db, fn func(db) error) error {
	b, ok := d.(beginner)
	if !ok {
		return fn(d)
	}
	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RouteRepo defines the persistence operations for routes and their points.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type RouteRepo interface {
	// Create inserts a new route together with its points and returns the
	// persisted record (with DB-generated ids and timestamps populated).
	Create(ctx context.Context, route domain.Route) (domain.Route, error)

	// GetByID retrieves a single route with its points ordered by position.
	// Returns domain.ErrNotFound if no route with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error)

	// List returns one page of route summaries (points omitted) ordered by
	// created_at descending, plus the total count of routes.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Route, int64, error)

	// Update overwrites the mutable fields of a route and replaces its point
	// list wholesale. Returns domain.ErrNotFound if the route does not exist.
	Update(ctx context.Context, route domain.Route) (domain.Route, error)

	// Delete removes a route and its points. Returns domain.ErrNotFound if
	// it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AttachAudio stores the audio-guide URL on a point.
	// Returns domain.ErrNotFound if the point does not exist.
	AttachAudio(ctx context.Context, pointID uuid.UUID, url string) error

	// DropAudio clears the audio-guide URL on a point.
	DropAudio(ctx context.Context, pointID uuid.UUID) error
}

// pgRouteRepo is the Postgres implementation of RouteRepo.
type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

const routeColumns = `id, name, short_description, description, route_type, privacy,
	mood, theme, duration_minutes, total_distance, has_audio_guide,
	is_elderly_friendly, is_active, created_at, updated_at`

// Create inserts the route row and its points in one transaction.
func (r *pgRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	var result domain.Route
	err := withTx(ctx, r.db, func(d db) error {
		const q = `
			INSERT INTO routes (name, short_description, description, route_type, privacy,
				mood, theme, duration_minutes, total_distance, has_audio_guide,
				is_elderly_friendly, is_active)
			VALUES (@name, @short_description, @description, @route_type, @privacy,
				@mood, @theme, @duration_minutes, @total_distance, @has_audio_guide,
				@is_elderly_friendly, @is_active)
			RETURNING ` + routeColumns

		row := d.QueryRow(ctx, q, routeArgs(route))
		saved, err := scanRoute(row)
		if err != nil {
			return err
		}

		saved.Points, err = insertPoints(ctx, d, saved.ID, route.Points)
		if err != nil {
			return err
		}
		result = saved
		return nil
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a route and its points by primary key.
func (r *pgRouteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	const q = `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	route, err := scanRoute(row)
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: %w", err)
	}

	route.Points, err = listPoints(ctx, r.db, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: %w", err)
	}
	return route, nil
}

// List returns one page of route summaries ordered by created_at descending.
// Points are not loaded; use GetByID for the full aggregate.
func (r *pgRouteRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Route, int64, error) {
	const q = `
		SELECT ` + routeColumns + `, count(*) OVER () AS total
		FROM routes
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.RouteRepo.List: %w", err)
	}
	defer rows.Close()

	routes := []domain.Route{}
	var total int64
	for rows.Next() {
		route, err := scanRouteWithTotal(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.RouteRepo.List: scan: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.RouteRepo.List: rows: %w", err)
	}

	if total == 0 && p.Offset() > 0 {
		// Page past the end — the window function returned no rows, so fall
		// back to a plain count.
		row := r.db.QueryRow(ctx, `SELECT count(*) FROM routes`)
		if err := row.Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("repo.RouteRepo.List: count: %w", err)
		}
	}
	return routes, total, nil
}

// Update overwrites the route row and replaces the point list wholesale.
// Replacing rather than diffing keeps positions consistent with the editor's
// ordered list.
func (r *pgRouteRepo) Update(ctx context.Context, route domain.Route) (domain.Route, error) {
	var result domain.Route
	err := withTx(ctx, r.db, func(d db) error {
		const q = `
			UPDATE routes
			SET name                = @name,
			    short_description   = @short_description,
			    description         = @description,
			    route_type          = @route_type,
			    privacy             = @privacy,
			    mood                = @mood,
			    theme               = @theme,
			    duration_minutes    = @duration_minutes,
			    total_distance      = @total_distance,
			    has_audio_guide     = @has_audio_guide,
			    is_elderly_friendly = @is_elderly_friendly,
			    is_active           = @is_active,
			    updated_at          = now()
			WHERE id = @id
			RETURNING ` + routeColumns

		args := routeArgs(route)
		args["id"] = route.ID

		row := d.QueryRow(ctx, q, args)
		saved, err := scanRoute(row)
		if err != nil {
			return err
		}

		if _, err := d.Exec(ctx, `DELETE FROM route_points WHERE route_id = @route_id`,
			pgx.NamedArgs{"route_id": route.ID}); err != nil {
			return fmt.Errorf("clear points: %w", err)
		}
		saved.Points, err = insertPoints(ctx, d, saved.ID, route.Points)
		if err != nil {
			return err
		}
		result = saved
		return nil
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a route by primary key. Points go with it via ON DELETE CASCADE.
func (r *pgRouteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM routes WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// AttachAudio stores the audio-guide URL on a point and marks the owning
// route as having an audio guide.
func (r *pgRouteRepo) AttachAudio(ctx context.Context, pointID uuid.UUID, url string) error {
	return withTxErr(ctx, r.db, "repo.RouteRepo.AttachAudio", func(d db) error {
		const q = `UPDATE route_points SET audio_url = @url WHERE id = @id`

		tag, err := d.Exec(ctx, q, pgx.NamedArgs{"id": pointID, "url": url})
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		const mark = `
			UPDATE routes
			SET has_audio_guide = true, updated_at = now()
			WHERE id = (SELECT route_id FROM route_points WHERE id = @id)`
		_, err = d.Exec(ctx, mark, pgx.NamedArgs{"id": pointID})
		return err
	})
}

// DropAudio clears the audio-guide URL on a point. Clearing a point that has
// no audio is a no-op, not an error.
func (r *pgRouteRepo) DropAudio(ctx context.Context, pointID uuid.UUID) error {
	return withTxErr(ctx, r.db, "repo.RouteRepo.DropAudio", func(d db) error {
		const q = `UPDATE route_points SET audio_url = '' WHERE id = @id`
		if _, err := d.Exec(ctx, q, pgx.NamedArgs{"id": pointID}); err != nil {
			return err
		}

		// has_audio_guide stays true only while some point still has audio.
		const mark = `
			UPDATE routes r
			SET has_audio_guide = EXISTS (
				SELECT 1 FROM route_points p
				WHERE p.route_id = r.id AND p.audio_url <> ''
			), updated_at = now()
			WHERE r.id = (SELECT route_id FROM route_points WHERE id = @id)`
		_, err := d.Exec(ctx, mark, pgx.NamedArgs{"id": pointID})
		return err
	})
}

// withTxErr wraps withTx and prefixes errors with the operation name.
func withTxErr(ctx context.Context, d db, op string, fn func(db) error) error {
	if err := withTx(ctx, d, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ---- point rows ------------------------------------------------------------

// insertPoints writes the ordered point list for a route and returns the
// persisted records with their DB-generated ids.
func insertPoints(ctx context.Context, d db, routeID uuid.UUID, points []domain.Point) ([]domain.Point, error) {
	const q = `
		INSERT INTO route_points (route_id, position, name, lat, lng, address,
			description, category, hint_author, audio_url, photos, tags)
		VALUES (@route_id, @position, @name, @lat, @lng, @address,
			@description, @category, @hint_author, @audio_url, @photos::jsonb, @tags)
		RETURNING id`

	out := make([]domain.Point, 0, len(points))
	for i, p := range points {
		photos, err := json.Marshal(p.Photos)
		if err != nil {
			return nil, fmt.Errorf("marshal photos: %w", err)
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}

		args := pgx.NamedArgs{
			"route_id":    routeID,
			"position":    i,
			"name":        p.Name,
			"lat":         p.Lat,
			"lng":         p.Lng,
			"address":     p.Address,
			"description": p.Description,
			"category":    string(p.Category),
			"hint_author": p.HintAuthor,
			"audio_url":   p.AudioURL,
			"photos":      photos,
			"tags":        tags,
		}

		var id pgtype.UUID
		if err := d.QueryRow(ctx, q, args).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert point %d: %w", i, err)
		}
		p.ID = uuid.UUID(id.Bytes)
		out = append(out, p)
	}
	return out, nil
}

// listPoints loads the ordered point list for a route.
func listPoints(ctx context.Context, d db, routeID uuid.UUID) ([]domain.Point, error) {
	const q = `
		SELECT id, name, lat, lng, address, description, category,
			hint_author, audio_url, photos, tags
		FROM route_points
		WHERE route_id = @route_id
		ORDER BY position`

	rows, err := d.Query(ctx, q, pgx.NamedArgs{"route_id": routeID})
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	defer rows.Close()

	points := []domain.Point{}
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("points: scan: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("points: rows: %w", err)
	}
	return points, nil
}

// ---- scanning --------------------------------------------------------------

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

func routeArgs(route domain.Route) pgx.NamedArgs {
	return pgx.NamedArgs{
		"name":                route.Name,
		"short_description":   route.ShortDescription,
		"description":         route.Description,
		"route_type":          string(route.Mode),
		"privacy":             string(route.Privacy),
		"mood":                route.Mood,
		"theme":               route.Theme,
		"duration_minutes":    route.DurationMinutes,
		"total_distance":      route.TotalDistance,
		"has_audio_guide":     route.HasAudioGuide,
		"is_elderly_friendly": route.IsElderlyFriendly,
		"is_active":           route.IsActive,
	}
}

// scanRoute maps a single database row into a domain.Route (points excluded).
func scanRoute(s scanner) (domain.Route, error) {
	var (
		r  domain.Route
		id pgtype.UUID
	)
	err := s.Scan(&id, &r.Name, &r.ShortDescription, &r.Description, &r.Mode,
		&r.Privacy, &r.Mood, &r.Theme, &r.DurationMinutes, &r.TotalDistance,
		&r.HasAudioGuide, &r.IsElderlyFriendly, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, err
	}
	r.ID = uuid.UUID(id.Bytes)
	return r, nil
}

// scanRouteWithTotal scans a route row that carries a trailing window-function
// count column.
func scanRouteWithTotal(s scanner, total *int64) (domain.Route, error) {
	var (
		r  domain.Route
		id pgtype.UUID
	)
	err := s.Scan(&id, &r.Name, &r.ShortDescription, &r.Description, &r.Mode,
		&r.Privacy, &r.Mood, &r.Theme, &r.DurationMinutes, &r.TotalDistance,
		&r.HasAudioGuide, &r.IsElderlyFriendly, &r.IsActive, &r.CreatedAt,
		&r.UpdatedAt, total)
	if err != nil {
		return domain.Route{}, err
	}
	r.ID = uuid.UUID(id.Bytes)
	return r, nil
}

// scanPoint maps a single route_points row into a domain.Point.
func scanPoint(s scanner) (domain.Point, error) {
	var (
		p  domain.Point
		id pgtype.UUID
	)
	err := s.Scan(&id, &p.Name, &p.Lat, &p.Lng, &p.Address, &p.Description,
		&p.Category, &p.HintAuthor, &p.AudioURL, &p.Photos, &p.Tags)
	if err != nil {
		return domain.Point{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	return p, nil
}
