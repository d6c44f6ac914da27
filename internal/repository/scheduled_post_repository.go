package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/creatoraide/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	// Update replaces an editable (pending or draft) post; ErrNoRowsAffected otherwise.
	Update(ctx context.Context, post *models.ScheduledPost) error
	// Claim moves the post to publishing if its status is one of from. It
	// returns nil when the post is missing or was not claimable.
	Claim(ctx context.Context, id int64, from ...string) (*models.ScheduledPost, error)
	// ClaimIfDue claims one pending post scheduled at or before now. It
	// returns nil when the post is missing, not pending or not due yet.
	ClaimIfDue(ctx context.Context, id int64, now time.Time) (*models.ScheduledPost, error)
	// ClaimDue claims up to limit pending posts scheduled at or before now.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error)
	// FailStale marks posts claimed before cutoff and never finished as failed,
	// with one failed result per platform. It returns the number of posts changed.
	FailStale(ctx context.Context, cutoff, now time.Time, message string) (int64, error)
	SaveResults(ctx context.Context, id int64, status string, results []models.PublishResult, publishedAt time.Time) error
	Remove(ctx context.Context, id int64) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, user_id, title, description, content, thumbnail_url, platforms, scheduled_for,
	time_zone, status, content_draft_id, media_file_id, platform_settings, repeat_schedule,
	last_published_at, publish_results, optimal_time_applied, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledPost(row rowScanner) (*models.ScheduledPost, error) {
	var (
		post        models.ScheduledPost
		draftID     sql.NullInt64
		mediaID     sql.NullInt64
		publishedAt sql.NullTime
		results     models.PublishResults
	)

	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Description,
		&post.Content,
		&post.ThumbnailURL,
		pq.Array(&post.Platforms),
		&post.ScheduledFor,
		&post.TimeZone,
		&post.Status,
		&draftID,
		&mediaID,
		&post.PlatformSettings,
		&post.RepeatSchedule,
		&publishedAt,
		&results,
		&post.OptimalTimeApplied,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if draftID.Valid {
		post.ContentDraftID = &draftID.Int64
	}
	if mediaID.Valid {
		post.MediaFileID = &mediaID.Int64
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		post.LastPublishedAt = &t
	}
	post.PublishResults = []models.PublishResult(results)
	if post.PublishResults == nil {
		post.PublishResults = []models.PublishResult{}
	}

	return &post, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (user_id, title, description, content, thumbnail_url, platforms,
			scheduled_for, time_zone, status, content_draft_id, media_file_id, platform_settings,
			repeat_schedule, publish_results, optimal_time_applied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID,
		post.Title,
		post.Description,
		post.Content,
		post.ThumbnailURL,
		pq.Array(post.Platforms),
		post.ScheduledFor,
		post.TimeZone,
		post.Status,
		post.ContentDraftID,
		post.MediaFileID,
		post.PlatformSettings,
		post.RepeatSchedule,
		models.PublishResults(post.PublishResults),
		post.OptimalTimeApplied,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	post.ID = id
	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *scheduledPostRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = $1 ORDER BY scheduled_for, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func collectScheduledPosts(rows *sql.Rows) ([]*models.ScheduledPost, error) {
	posts := []*models.ScheduledPost{}
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *scheduledPostRepository) Update(ctx context.Context, post *models.ScheduledPost) error {
	query := `
		UPDATE scheduled_posts
		SET title = $1,
			description = $2,
			content = $3,
			thumbnail_url = $4,
			platforms = $5,
			scheduled_for = $6,
			time_zone = $7,
			status = $8,
			content_draft_id = $9,
			media_file_id = $10,
			platform_settings = $11,
			repeat_schedule = $12,
			optimal_time_applied = $13,
			updated_at = $14
		WHERE id = $15 AND status IN ('pending', 'draft')
	`

	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Description,
		post.Content,
		post.ThumbnailURL,
		pq.Array(post.Platforms),
		post.ScheduledFor,
		post.TimeZone,
		post.Status,
		post.ContentDraftID,
		post.MediaFileID,
		post.PlatformSettings,
		post.RepeatSchedule,
		post.OptimalTimeApplied,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return checkAffected(result)
}

func (r *scheduledPostRepository) Claim(ctx context.Context, id int64, from ...string) (*models.ScheduledPost, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
		RETURNING ` + scheduledPostColumns

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, models.PostStatusPublishing, time.Now().UTC(), id, pq.Array(from)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *scheduledPostRepository) ClaimIfDue(ctx context.Context, id int64, now time.Time) (*models.ScheduledPost, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND scheduled_for <= $2
		RETURNING ` + scheduledPostColumns

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, models.PostStatusPublishing, now.UTC(), id, models.PostStatusPending))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *scheduledPostRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	// SKIP LOCKED keeps concurrent sweepers from claiming the same rows.
	query := `
		UPDATE scheduled_posts
		SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM scheduled_posts
			WHERE status = $3 AND scheduled_for <= $4
			ORDER BY scheduled_for
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + scheduledPostColumns

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPublishing, now.UTC(), models.PostStatusPending, now.UTC(), limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func (r *scheduledPostRepository) FailStale(ctx context.Context, cutoff, now time.Time, message string) (int64, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			publish_results = (
				SELECT COALESCE(jsonb_agg(jsonb_build_object(
					'platform', p,
					'success', false,
					'simulated', false,
					'timestamp', $2::timestamptz,
					'message', $3::text
				)), '[]'::jsonb)
				FROM unnest(platforms) AS p
			),
			last_published_at = $2,
			updated_at = $2
		WHERE status = $4 AND updated_at < $5
	`

	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, now.UTC(), message, models.PostStatusPublishing, cutoff.UTC())
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}

func (r *scheduledPostRepository) SaveResults(ctx context.Context, id int64, status string, results []models.PublishResult, publishedAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			publish_results = $2,
			last_published_at = $3,
			updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, status, models.PublishResults(results), publishedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return checkAffected(result)
}

func (r *scheduledPostRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affectedRows, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affectedRows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
