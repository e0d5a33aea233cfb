package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/waymarkhq/waymark/internal/domain"
)

// ChatMessageRepo defines the persistence operations for chat messages.
// It satisfies chat.HistoryStore so a session can load history on open.
type ChatMessageRepo interface {
	// Create stores a message. Inserting an id that already exists is a
	// no-op — message ids are client-generated and the same message may
	// arrive via both the send path and the broker echo.
	Create(ctx context.Context, msg domain.ChatMessage) error

	// ListRecent returns up to limit most recent messages for a chat path,
	// newest first. Callers re-sort ascending for display.
	ListRecent(ctx context.Context, chatPath string, limit int) ([]domain.ChatMessage, error)
}

// pgChatMessageRepo is the Postgres implementation of ChatMessageRepo.
type pgChatMessageRepo struct {
	db db
}

// NewChatMessageRepo constructs a ChatMessageRepo backed by the provided db connection.
func NewChatMessageRepo(db db) ChatMessageRepo {
	return &pgChatMessageRepo{db: db}
}

// Create stores a message, ignoring duplicate ids.
func (r *pgChatMessageRepo) Create(ctx context.Context, msg domain.ChatMessage) error {
	const q = `
		INSERT INTO chat_messages (id, chat_path, content, sender_id, sender_name,
			type, media_url, sent_at)
		VALUES (@id, @chat_path, @content, @sender_id, @sender_name,
			@type, @media_url, @sent_at)
		ON CONFLICT (id) DO NOTHING`

	args := pgx.NamedArgs{
		"id":          msg.ID,
		"chat_path":   msg.ChatPath,
		"content":     msg.Content,
		"sender_id":   msg.SenderID,
		"sender_name": msg.SenderName,
		"type":        string(msg.Type),
		"media_url":   msg.MediaURL,
		"sent_at":     msg.Timestamp,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ChatMessageRepo.Create: %w", err)
	}
	return nil
}

// ListRecent returns up to limit most recent messages for a chat path, newest first.
func (r *pgChatMessageRepo) ListRecent(ctx context.Context, chatPath string, limit int) ([]domain.ChatMessage, error) {
	const q = `
		SELECT id, chat_path, content, sender_id, sender_name, type, media_url, sent_at
		FROM chat_messages
		WHERE chat_path = @chat_path
		ORDER BY sent_at DESC, id
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"chat_path": chatPath, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.ChatMessageRepo.ListRecent: %w", err)
	}
	defer rows.Close()

	msgs := []domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		err := rows.Scan(&m.ID, &m.ChatPath, &m.Content, &m.SenderID,
			&m.SenderName, &m.Type, &m.MediaURL, &m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("repo.ChatMessageRepo.ListRecent: scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ChatMessageRepo.ListRecent: rows: %w", err)
	}
	return msgs, nil
}
