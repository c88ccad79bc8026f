package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/velvetqueue/velvetqueue/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Post, error)
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	ListCalendar(ctx context.Context, start, end time.Time, statuses []string) ([]*models.Post, error)
	Claim(ctx context.Context, id int64, fromStatuses []string) (bool, error)
	MarkPublished(ctx context.Context, id int64, remoteMediaID string) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
	Schedule(ctx context.Context, id int64, scheduledTime time.Time) (bool, error)
	ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
}

type postRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const postColumns = `id, content, media_assets, channels, platform_settings, status, scheduled_time, last_error, remote_media_id, last_attempt_at, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (content, media_assets, channels, platform_settings, status, scheduled_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	settings, err := json.Marshal(post.PlatformSettings)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		post.Content,
		pq.Array(post.MediaAssets),
		pq.Array(post.Channels),
		settings,
		post.Status,
		post.ScheduledTime,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 ORDER BY scheduled_time ASC NULLS LAST, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) ListAll(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY scheduled_time ASC NULLS LAST, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1 AND scheduled_time IS NOT NULL AND scheduled_time <= $2
		ORDER BY scheduled_time ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) ListCalendar(ctx context.Context, start, end time.Time, statuses []string) ([]*models.Post, error) {
	builder := r.sb.
		Select(postColumns).
		From("posts").
		Where(sq.GtOrEq{"scheduled_time": start}).
		Where(sq.LtOrEq{"scheduled_time": end}).
		OrderBy("scheduled_time ASC", "id ASC")

	if len(statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": statuses})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// Claim moves a post into the publishing state only when its current status
// is one of fromStatuses. The single UPDATE makes the check and the
// transition atomic, so concurrent callers cannot both win a claim.
func (r *postRepository) Claim(ctx context.Context, id int64, fromStatuses []string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, last_attempt_at = $2, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now().UTC(), id, pq.Array(fromStatuses))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id int64, remoteMediaID string) error {
	query := `
		UPDATE posts
		SET status = $1, remote_media_id = $2, last_error = '', updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, remoteMediaID, time.Now().UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	query := `
		UPDATE posts
		SET status = $1, last_error = $2, updated_at = $3
		WHERE id = $4 AND status <> $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, lastError, time.Now().UTC(), id, models.PostStatusPublished)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Schedule moves a post into the scheduled state. Posts that are publishing
// or already published are left untouched and the call reports false.
func (r *postRepository) Schedule(ctx context.Context, id int64, scheduledTime time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, scheduled_time = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)
	`
	from := []string{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed}
	res, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, scheduledTime, time.Now().UTC(), id, pq.Array(from))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n == 1, nil
}

// ReleaseStaleClaims fails posts that have sat in the publishing state since
// before cutoff. A claim that old means the process died mid-attempt; without
// this the post could never be retried.
func (r *postRepository) ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE posts
		SET status = $1, last_error = $2, updated_at = $3
		WHERE status = $4 AND last_attempt_at IS NOT NULL AND last_attempt_at < $5
	`
	res, err := r.db.ExecContext(ctx, query,
		models.PostStatusFailed,
		"publish attempt interrupted before completion",
		time.Now().UTC(),
		models.PostStatusPublishing,
		cutoff,
	)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return res.RowsAffected()
}

// Update applies a partial field update. Values for media_assets and channels
// must already be pq.Array wrapped and platform_settings JSON encoded by the
// caller.
func (r *postRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	builder := r.sb.Update("posts").Where(sq.Eq{"id": id}).Set("updated_at", time.Now().UTC())
	for column, value := range fields {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post          models.Post
		mediaAssets   pq.Int64Array
		channels      pq.Int64Array
		settings      []byte
		scheduledTime sql.NullTime
		lastError     sql.NullString
		remoteMediaID sql.NullString
		lastAttemptAt sql.NullTime
	)

	err := row.Scan(
		&post.ID,
		&post.Content,
		&mediaAssets,
		&channels,
		&settings,
		&post.Status,
		&scheduledTime,
		&lastError,
		&remoteMediaID,
		&lastAttemptAt,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.MediaAssets = []int64(mediaAssets)
	post.Channels = []int64(channels)
	post.LastError = lastError.String
	post.RemoteMediaID = remoteMediaID.String
	if scheduledTime.Valid {
		t := scheduledTime.Time
		post.ScheduledTime = &t
	}
	if lastAttemptAt.Valid {
		t := lastAttemptAt.Time
		post.LastAttemptAt = &t
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &post.PlatformSettings); err != nil {
			return nil, err
		}
	}

	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
