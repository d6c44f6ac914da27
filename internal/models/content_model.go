package models

import "time"

type ContentDraft struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	IdeaID    *int64    `db:"idea_id" json:"idea_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Hook      string    `db:"hook" json:"hook,omitempty"`
	Structure string    `db:"structure" json:"structure,omitempty"`
	Audio     string    `db:"audio" json:"audio,omitempty"`
	Visual    string    `db:"visual" json:"visual,omitempty"`
	CTA       string    `db:"cta" json:"cta,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	DraftStatusDraft    = "draft"
	DraftStatusReady    = "ready"
	DraftStatusArchived = "archived"
)

type MediaFile struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	DraftID      *int64    `db:"draft_id" json:"draft_id,omitempty"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Duration     *float64  `db:"duration" json:"duration,omitempty"`
	Width        *int      `db:"width" json:"width,omitempty"`
	Height       *int      `db:"height" json:"height,omitempty"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// IsVideo reports whether the file is a video by its MIME type.
func (m *MediaFile) IsVideo() bool {
	return len(m.FileType) >= 6 && m.FileType[:6] == "video/"
}
