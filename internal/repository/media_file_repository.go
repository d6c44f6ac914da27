package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/creatoraide/internal/models"
)

type MediaFileRepository interface {
	Create(ctx context.Context, m *models.MediaFile) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaFile, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.MediaFile, error)
	Remove(ctx context.Context, id int64) error
}

type mediaFileRepository struct {
	db *sql.DB
}

func NewMediaFileRepository(db *sql.DB) MediaFileRepository {
	return &mediaFileRepository{db: db}
}

const mediaFileColumns = `id, user_id, draft_id, file_name, file_type, file_size, file_url, thumbnail_url, duration, width, height, uploaded_at`

func scanMediaFile(row rowScanner) (*models.MediaFile, error) {
	var (
		m        models.MediaFile
		draftID  sql.NullInt64
		duration sql.NullFloat64
		width    sql.NullInt32
		height   sql.NullInt32
	)

	err := row.Scan(&m.ID, &m.UserID, &draftID, &m.FileName, &m.FileType, &m.FileSize, &m.FileURL, &m.ThumbnailURL, &duration, &width, &height, &m.UploadedAt)
	if err != nil {
		return nil, err
	}

	if draftID.Valid {
		m.DraftID = &draftID.Int64
	}
	if duration.Valid {
		m.Duration = &duration.Float64
	}
	if width.Valid {
		w := int(width.Int32)
		m.Width = &w
	}
	if height.Valid {
		h := int(height.Int32)
		m.Height = &h
	}

	return &m, nil
}

func (r *mediaFileRepository) Create(ctx context.Context, m *models.MediaFile) (int64, error) {
	query := `
		INSERT INTO media_files (user_id, draft_id, file_name, file_type, file_size, file_url, thumbnail_url, duration, width, height, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, m.UserID, m.DraftID, m.FileName, m.FileType, m.FileSize, m.FileURL, m.ThumbnailURL, m.Duration, m.Width, m.Height, m.UploadedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	m.ID = id
	return id, nil
}

func (r *mediaFileRepository) GetByID(ctx context.Context, id int64) (*models.MediaFile, error) {
	query := `SELECT ` + mediaFileColumns + ` FROM media_files WHERE id = $1`

	m, err := scanMediaFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return m, nil
}

func (r *mediaFileRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaFile, error) {
	query := `SELECT ` + mediaFileColumns + ` FROM media_files WHERE user_id = $1 ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	files := []*models.MediaFile{}
	for rows.Next() {
		m, err := scanMediaFile(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		files = append(files, m)
	}

	return files, rows.Err()
}

func (r *mediaFileRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return checkAffected(result)
}
