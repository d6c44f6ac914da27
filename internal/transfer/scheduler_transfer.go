package transfer

import (
	"errors"
	"fmt"
	"time"

	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/maheshrc27/creatoraide/internal/models"
)

// scheduledTimeLayouts are tried in order; the zone-less layouts are read in the post's time zone.
var scheduledTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseScheduledTime parses a scheduled timestamp. Values without an offset
// are interpreted in timeZone (UTC when empty). The result is in UTC.
func ParseScheduledTime(value, timeZone string) (time.Time, error) {
	loc, err := LoadTimeZone(timeZone)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range scheduledTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid scheduled time %q", value)
}

func LoadTimeZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return loc, nil
}

type ScheduledPostCreation struct {
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Content          string                  `json:"content"`
	ThumbnailURL     string                  `json:"thumbnail_url"`
	Platforms        []string                `json:"platforms"`
	ScheduledFor     string                  `json:"scheduled_for"`
	TimeZone         string                  `json:"time_zone"`
	Status           string                  `json:"status"`
	ContentDraftID   *int64                  `json:"content_draft_id"`
	MediaFileID      *int64                  `json:"media_file_id"`
	PlatformSettings models.PlatformSettings `json:"platform_settings"`
	RepeatSchedule   string                  `json:"repeat_schedule"`
	UseOptimalTime   bool                    `json:"use_optimal_time"`
}

func (p ScheduledPostCreation) Validate() error {
	return v.ValidateStruct(&p,
		v.Field(&p.Title, v.Required, v.Length(1, 200)),
		v.Field(&p.Description, v.Length(0, 2200)),
		v.Field(&p.ThumbnailURL, is.URL),
		v.Field(&p.Platforms, v.Required, v.Each(v.In(platformValues()...)), v.By(uniqueStrings)),
		v.Field(&p.TimeZone, v.By(validTimeZone)),
		v.Field(&p.ScheduledFor, v.Required, v.By(validScheduledTime(p.TimeZone))),
		v.Field(&p.Status, v.In(models.PostStatusPending, models.PostStatusDraft)),
		v.Field(&p.ContentDraftID, v.Min(int64(1))),
		v.Field(&p.MediaFileID, v.Min(int64(1))),
		v.Field(&p.PlatformSettings, v.By(SettingsForPlatforms(p.Platforms))),
		v.Field(&p.RepeatSchedule, v.Length(0, 100)),
	)
}

// ScheduledPostUpdate is a partial update; nil fields are left unchanged.
type ScheduledPostUpdate struct {
	Title            *string                  `json:"title"`
	Description      *string                  `json:"description"`
	Content          *string                  `json:"content"`
	ThumbnailURL     *string                  `json:"thumbnail_url"`
	Platforms        *[]string                `json:"platforms"`
	ScheduledFor     *string                  `json:"scheduled_for"`
	TimeZone         *string                  `json:"time_zone"`
	Status           *string                  `json:"status"`
	ContentDraftID   *int64                   `json:"content_draft_id"`
	MediaFileID      *int64                   `json:"media_file_id"`
	PlatformSettings *models.PlatformSettings `json:"platform_settings"`
	RepeatSchedule   *string                  `json:"repeat_schedule"`
}

func (u ScheduledPostUpdate) Validate() error {
	tz := ""
	if u.TimeZone != nil {
		tz = *u.TimeZone
	}
	return v.ValidateStruct(&u,
		v.Field(&u.Title, v.NilOrNotEmpty, v.Length(1, 200)),
		v.Field(&u.Description, v.Length(0, 2200)),
		v.Field(&u.ThumbnailURL, is.URL),
		v.Field(&u.Platforms, v.NilOrNotEmpty, v.By(knownPlatforms), v.By(uniqueStrings)),
		v.Field(&u.TimeZone, v.By(validTimeZone)),
		v.Field(&u.ScheduledFor, v.NilOrNotEmpty, v.By(validScheduledTime(tz))),
		v.Field(&u.Status, v.In(models.PostStatusPending, models.PostStatusDraft)),
		v.Field(&u.ContentDraftID, v.Min(int64(1))),
		v.Field(&u.MediaFileID, v.Min(int64(1))),
		v.Field(&u.RepeatSchedule, v.Length(0, 100)),
	)
}

type PublishResponse struct {
	Success bool                   `json:"success"`
	Status  string                 `json:"status"`
	Results []models.PublishResult `json:"results"`
}

type BestTimesResponse struct {
	Platform  string `json:"platform"`
	BestTimes []int  `json:"best_times"`
}

// SettingsForPlatforms rejects settings blocks for platforms the post does not target
// and checks enum fields of each block.
func SettingsForPlatforms(platforms []string) v.RuleFunc {
	return func(value interface{}) error {
		// v.Indirect would turn the settings into their driver.Value JSON
		var settings models.PlatformSettings
		switch val := value.(type) {
		case models.PlatformSettings:
			settings = val
		case *models.PlatformSettings:
			if val == nil {
				return nil
			}
			settings = *val
		default:
			return fmt.Errorf("unexpected platform settings type %T", value)
		}
		targets := make(map[string]bool, len(platforms))
		for _, p := range platforms {
			targets[p] = true
		}
		for _, p := range settings.Platforms() {
			if !targets[p] {
				return fmt.Errorf("settings given for %s which is not a target platform", p)
			}
		}
		if settings.Tiktok != nil {
			if err := v.Validate(settings.Tiktok.PrivacyLevel, v.In(
				models.TiktokPrivacyPublic,
				models.TiktokPrivacyFollowers,
				models.TiktokPrivacyFriends,
				models.TiktokPrivacySelf,
			)); err != nil {
				return fmt.Errorf("tiktok privacy_level: %w", err)
			}
			if settings.Tiktok.VideoCoverTimestampMs < 0 {
				return errors.New("tiktok video_cover_timestamp_ms must not be negative")
			}
		}
		if settings.Youtube != nil {
			if err := v.Validate(settings.Youtube.PrivacyStatus, v.In("public", "unlisted", "private")); err != nil {
				return fmt.Errorf("youtube privacy_status: %w", err)
			}
		}
		return nil
	}
}

func platformValues() []interface{} {
	out := make([]interface{}, len(models.Platforms))
	for i, p := range models.Platforms {
		out[i] = p
	}
	return out
}

func stringList(value interface{}) []string {
	switch val := value.(type) {
	case []string:
		return val
	case *[]string:
		if val != nil {
			return *val
		}
	}
	return nil
}

// knownPlatforms is v.Each(v.In(...)) for optional lists, which Each cannot validate.
func knownPlatforms(value interface{}) error {
	for _, p := range stringList(value) {
		if !models.IsPlatform(p) {
			return fmt.Errorf("unsupported platform %q", p)
		}
	}
	return nil
}

func uniqueStrings(value interface{}) error {
	list := stringList(value)
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		if seen[s] {
			return fmt.Errorf("duplicate value %q", s)
		}
		seen[s] = true
	}
	return nil
}

func validTimeZone(value interface{}) error {
	iv, _ := v.Indirect(value)
	s, _ := iv.(string)
	if s == "" {
		return nil
	}
	_, err := LoadTimeZone(s)
	return err
}

func validScheduledTime(timeZone string) v.RuleFunc {
	return func(value interface{}) error {
		iv, _ := v.Indirect(value)
		s, _ := iv.(string)
		if s == "" {
			return nil
		}
		if _, err := LoadTimeZone(timeZone); err != nil {
			// reported on the time_zone field
			return nil
		}
		_, err := ParseScheduledTime(s, timeZone)
		return err
	}
}
