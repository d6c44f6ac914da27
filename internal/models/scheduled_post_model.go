package models

import "time"

type ScheduledPost struct {
	ID                 int64            `db:"id" json:"id"`
	UserID             int64            `db:"user_id" json:"user_id"`
	Title              string           `db:"title" json:"title"`
	Description        string           `db:"description" json:"description,omitempty"`
	Content            string           `db:"content" json:"content,omitempty"`
	ThumbnailURL       string           `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Platforms          []string         `db:"platforms" json:"platforms"`
	ScheduledFor       time.Time        `db:"scheduled_for" json:"scheduled_for"`
	TimeZone           string           `db:"time_zone" json:"time_zone"`
	Status             string           `db:"status" json:"status"`
	ContentDraftID     *int64           `db:"content_draft_id" json:"content_draft_id,omitempty"`
	MediaFileID        *int64           `db:"media_file_id" json:"media_file_id,omitempty"`
	PlatformSettings   PlatformSettings `db:"platform_settings" json:"platform_settings"`
	RepeatSchedule     string           `db:"repeat_schedule" json:"repeat_schedule,omitempty"`
	LastPublishedAt    *time.Time       `db:"last_published_at" json:"last_published_at,omitempty"`
	PublishResults     []PublishResult  `db:"publish_results" json:"publish_results"`
	OptimalTimeApplied bool             `db:"optimal_time_applied" json:"optimal_time_applied"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate it without touching stored state.
func (p *ScheduledPost) Clone() *ScheduledPost {
	if p == nil {
		return nil
	}
	c := *p
	c.Platforms = append([]string(nil), p.Platforms...)
	c.PublishResults = append([]PublishResult(nil), p.PublishResults...)
	c.PlatformSettings = p.PlatformSettings.Clone()
	if p.ContentDraftID != nil {
		v := *p.ContentDraftID
		c.ContentDraftID = &v
	}
	if p.MediaFileID != nil {
		v := *p.MediaFileID
		c.MediaFileID = &v
	}
	if p.LastPublishedAt != nil {
		v := *p.LastPublishedAt
		c.LastPublishedAt = &v
	}
	return &c
}

type PublishResult struct {
	Platform  string    `json:"platform"`
	Success   bool      `json:"success"`
	Simulated bool      `json:"simulated"`
	Timestamp time.Time `json:"timestamp"`
	PostURL   string    `json:"post_url,omitempty"`
	Message   string    `json:"message"`
}

const (
	PostStatusDraft              = "draft"
	PostStatusPending            = "pending"
	PostStatusPublishing         = "publishing"
	PostStatusPublished          = "published"
	PostStatusPartiallyPublished = "partially_published"
	PostStatusFailed             = "failed"
)

// Editable reports whether a post in this status may still be changed or published.
func Editable(status string) bool {
	return status == PostStatusPending || status == PostStatusDraft
}

const (
	PlatformTiktok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformYoutube   = "youtube"
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
)

// Platforms is the allow-list of platform identifiers accepted anywhere in the API.
var Platforms = []string{
	PlatformTiktok,
	PlatformInstagram,
	PlatformYoutube,
	PlatformFacebook,
	PlatformTwitter,
}

func IsPlatform(p string) bool {
	for _, v := range Platforms {
		if v == p {
			return true
		}
	}
	return false
}
