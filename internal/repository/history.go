package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Play is one track that started playing in a guild.
type Play struct {
	ID        string
	SessionID string
	GuildID   string
	Title     string
	URL       string
	PlayedAt  time.Time
}

type PlayRecorder interface {
	Save(ctx context.Context, play Play) error
}

type PlayLister interface {
	List(ctx context.Context, guildID string, limit int) ([]Play, error)
}

type PostgresPlayHistoryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPlayHistoryRepository(db *pgxpool.Pool) *PostgresPlayHistoryRepository {
	return &PostgresPlayHistoryRepository{db: db}
}

func PlayToRowParams(play Play) []any {
	return []any{
		play.ID,
		play.SessionID,
		play.GuildID,
		play.Title,
		play.URL,
		play.PlayedAt,
	}
}

// Save inserts play. Saving the same ID twice keeps the first row, so
// redelivered events are harmless.
func (r *PostgresPlayHistoryRepository) Save(ctx context.Context, play Play) error {
	const query = `
	INSERT INTO play_history (id, session_id, guild_id, title, url, played_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, PlayToRowParams(play)...); err != nil {
		return fmt.Errorf("failed to save play: %w", err)
	}
	return nil
}

// List returns the guild's most recent plays, newest first.
func (r *PostgresPlayHistoryRepository) List(ctx context.Context, guildID string, limit int) ([]Play, error) {
	const query = `
	SELECT id, session_id, guild_id, title, url, played_at
	FROM play_history
	WHERE guild_id = $1
	ORDER BY played_at DESC, id
	LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plays: %w", err)
	}

	plays, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Play, error) {
		var p Play
		err := row.Scan(&p.ID, &p.SessionID, &p.GuildID, &p.Title, &p.URL, &p.PlayedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan plays: %w", err)
	}
	return plays, nil
}

var _ PlayRecorder = (*PostgresPlayHistoryRepository)(nil)
var _ PlayLister = (*PostgresPlayHistoryRepository)(nil)
