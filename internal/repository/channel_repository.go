package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/velvetqueue/velvetqueue/internal/models"
)

type ChannelRepository interface {
	GetActiveByPlatform(ctx context.Context, platform string) (*models.Channel, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Channel, error)
	List(ctx context.Context) ([]*models.Channel, error)
	Upsert(ctx context.Context, channel *models.Channel) (int64, error)
}

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

const channelColumns = `id, platform, name, account_id, access_token, is_active, created_at, updated_at`

func (r *channelRepository) GetActiveByPlatform(ctx context.Context, platform string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE platform = $1 AND is_active = true ORDER BY id ASC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, platform)

	var ch models.Channel
	err := row.Scan(&ch.ID, &ch.Platform, &ch.Name, &ch.AccountID, &ch.AccessToken, &ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ch, nil
}

func (r *channelRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectChannels(rows)
}

func (r *channelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectChannels(rows)
}

// Upsert inserts a channel or refreshes the stored credentials for an
// existing (platform, name) pair. Safe to call on every publish attempt.
func (r *channelRepository) Upsert(ctx context.Context, channel *models.Channel) (int64, error) {
	query := `
		INSERT INTO channels (platform, name, account_id, access_token, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (platform, name)
		DO UPDATE SET account_id = EXCLUDED.account_id,
			access_token = EXCLUDED.access_token,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		channel.Platform,
		channel.Name,
		channel.AccountID,
		channel.AccessToken,
		channel.IsActive,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func collectChannels(rows *sql.Rows) ([]*models.Channel, error) {
	var channels []*models.Channel
	for rows.Next() {
		var ch models.Channel
		err := rows.Scan(&ch.ID, &ch.Platform, &ch.Name, &ch.AccountID, &ch.AccessToken, &ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}
