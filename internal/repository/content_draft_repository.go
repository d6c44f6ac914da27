package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/creatoraide/internal/models"
)

type ContentDraftRepository interface {
	Create(ctx context.Context, d *models.ContentDraft) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ContentDraft, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ContentDraft, error)
	Update(ctx context.Context, d *models.ContentDraft) error
	Remove(ctx context.Context, id int64) error
}

type contentDraftRepository struct {
	db *sql.DB
}

func NewContentDraftRepository(db *sql.DB) ContentDraftRepository {
	return &contentDraftRepository{db: db}
}

const contentDraftColumns = `id, user_id, idea_id, title, content, hook, structure, audio, visual, cta, status, created_at, updated_at`

func scanContentDraft(row rowScanner) (*models.ContentDraft, error) {
	var d models.ContentDraft
	var ideaID sql.NullInt64
	err := row.Scan(&d.ID, &d.UserID, &ideaID, &d.Title, &d.Content, &d.Hook, &d.Structure, &d.Audio, &d.Visual, &d.CTA, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ideaID.Valid {
		d.IdeaID = &ideaID.Int64
	}
	return &d, nil
}

func (r *contentDraftRepository) Create(ctx context.Context, d *models.ContentDraft) (int64, error) {
	query := `
		INSERT INTO content_drafts (user_id, idea_id, title, content, hook, structure, audio, visual, cta, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, d.UserID, d.IdeaID, d.Title, d.Content, d.Hook, d.Structure, d.Audio, d.Visual, d.CTA, d.Status, d.CreatedAt, d.UpdatedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	d.ID = id
	return id, nil
}

func (r *contentDraftRepository) GetByID(ctx context.Context, id int64) (*models.ContentDraft, error) {
	query := `SELECT ` + contentDraftColumns + ` FROM content_drafts WHERE id = $1`

	d, err := scanContentDraft(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return d, nil
}

func (r *contentDraftRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ContentDraft, error) {
	query := `SELECT ` + contentDraftColumns + ` FROM content_drafts WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	drafts := []*models.ContentDraft{}
	for rows.Next() {
		d, err := scanContentDraft(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		drafts = append(drafts, d)
	}

	return drafts, rows.Err()
}

func (r *contentDraftRepository) Update(ctx context.Context, d *models.ContentDraft) error {
	query := `
		UPDATE content_drafts
		SET idea_id = $1, title = $2, content = $3, hook = $4, structure = $5,
			audio = $6, visual = $7, cta = $8, status = $9, updated_at = $10
		WHERE id = $11
	`

	result, err := r.db.ExecContext(ctx, query, d.IdeaID, d.Title, d.Content, d.Hook, d.Structure, d.Audio, d.Visual, d.CTA, d.Status, d.UpdatedAt, d.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return checkAffected(result)
}

func (r *contentDraftRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM content_drafts WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return checkAffected(result)
}
