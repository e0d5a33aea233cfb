package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/waymarkhq/waymark/internal/domain"
)

// AudioRepo defines the persistence operations for audio generation records.
// It satisfies audio.Recorder so the generator can track each run through
// queued, processing, and its terminal status.
type AudioRepo interface {
	// Create inserts a new generation record and returns it with the
	// DB-generated id and timestamps populated.
	Create(ctx context.Context, g domain.AudioGeneration) (domain.AudioGeneration, error)

	// Update overwrites the status, audio_url, filename, and error fields.
	// Returns domain.ErrNotFound if the record does not exist.
	Update(ctx context.Context, g domain.AudioGeneration) (domain.AudioGeneration, error)

	// ListByPoint returns all generation records for a point, newest first.
	ListByPoint(ctx context.Context, pointID uuid.UUID) ([]domain.AudioGeneration, error)
}

// pgAudioRepo is the Postgres implementation of AudioRepo.
type pgAudioRepo struct {
	db db
}

// NewAudioRepo constructs an AudioRepo backed by the provided db connection.
func NewAudioRepo(db db) AudioRepo {
	return &pgAudioRepo{db: db}
}

const audioColumns = `id, point_id, text, voice_type, language, status,
	audio_url, filename, error, created_at, updated_at`

// Create inserts a new generation record.
func (r *pgAudioRepo) Create(ctx context.Context, g domain.AudioGeneration) (domain.AudioGeneration, error) {
	const q = `
		INSERT INTO audio_generations (point_id, text, voice_type, language, status)
		VALUES (@point_id, @text, @voice_type, @language, @status)
		RETURNING ` + audioColumns

	args := pgx.NamedArgs{
		"point_id":   g.PointID,
		"text":       g.Text,
		"voice_type": string(g.Voice),
		"language":   string(g.Language),
		"status":     string(g.Status),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAudioGeneration(row)
	if err != nil {
		return domain.AudioGeneration{}, fmt.Errorf("repo.AudioRepo.Create: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable fields of a generation record.
func (r *pgAudioRepo) Update(ctx context.Context, g domain.AudioGeneration) (domain.AudioGeneration, error) {
	const q = `
		UPDATE audio_generations
		SET status     = @status,
		    audio_url  = @audio_url,
		    filename   = @filename,
		    error      = @error,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + audioColumns

	args := pgx.NamedArgs{
		"id":        g.ID,
		"status":    string(g.Status),
		"audio_url": g.AudioURL,
		"filename":  g.Filename,
		"error":     g.Error,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAudioGeneration(row)
	if err != nil {
		return domain.AudioGeneration{}, fmt.Errorf("repo.AudioRepo.Update: %w", err)
	}
	return result, nil
}

// ListByPoint returns all generation records for a point, newest first.
func (r *pgAudioRepo) ListByPoint(ctx context.Context, pointID uuid.UUID) ([]domain.AudioGeneration, error) {
	const q = `
		SELECT ` + audioColumns + `
		FROM audio_generations
		WHERE point_id = @point_id
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"point_id": pointID})
	if err != nil {
		return nil, fmt.Errorf("repo.AudioRepo.ListByPoint: %w", err)
	}
	defer rows.Close()

	gens := []domain.AudioGeneration{}
	for rows.Next() {
		g, err := scanAudioGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AudioRepo.ListByPoint: scan: %w", err)
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AudioRepo.ListByPoint: rows: %w", err)
	}
	return gens, nil
}

// scanAudioGeneration maps a single database row into a domain.AudioGeneration.
func scanAudioGeneration(s scanner) (domain.AudioGeneration, error) {
	var (
		g       domain.AudioGeneration
		id      pgtype.UUID
		pointID pgtype.UUID
	)
	err := s.Scan(&id, &pointID, &g.Text, &g.Voice, &g.Language, &g.Status,
		&g.AudioURL, &g.Filename, &g.Error, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AudioGeneration{}, domain.ErrNotFound
		}
		return domain.AudioGeneration{}, err
	}
	g.ID = uuid.UUID(id.Bytes)
	g.PointID = uuid.UUID(pointID.Bytes)
	return g, nil
}
