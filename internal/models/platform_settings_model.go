package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// PlatformSettings holds the per-platform publish options of a scheduled post.
// Only platforms listed on the post may carry a block.
type PlatformSettings struct {
	Tiktok    *TiktokSettings    `json:"tiktok,omitempty"`
	Youtube   *YoutubeSettings   `json:"youtube,omitempty"`
	Instagram *InstagramSettings `json:"instagram,omitempty"`
}

type TiktokSettings struct {
	PrivacyLevel          string `json:"privacy_level"`
	DisableComment        bool   `json:"disable_comment"`
	DisableDuet           bool   `json:"disable_duet"`
	DisableStitch         bool   `json:"disable_stitch"`
	VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
	BrandContentToggle    bool   `json:"brand_content_toggle"`
	IsAIGC                bool   `json:"is_aigc"`
}

type YoutubeSettings struct {
	PrivacyStatus string `json:"privacy_status"`
	CategoryID    string `json:"category_id"`
	MadeForKids   bool   `json:"made_for_kids"`
}

type InstagramSettings struct {
	ShareToFeed bool `json:"share_to_feed"`
}

const (
	TiktokPrivacyPublic    = "PUBLIC_TO_EVERYONE"
	TiktokPrivacyFollowers = "FOLLOWER_OF_CREATOR"
	TiktokPrivacyFriends   = "MUTUAL_FOLLOW_FRIENDS"
	TiktokPrivacySelf      = "SELF_ONLY"
)

// Platforms returns the platforms that carry a settings block.
func (s PlatformSettings) Platforms() []string {
	var out []string
	if s.Tiktok != nil {
		out = append(out, PlatformTiktok)
	}
	if s.Youtube != nil {
		out = append(out, PlatformYoutube)
	}
	if s.Instagram != nil {
		out = append(out, PlatformInstagram)
	}
	return out
}

func (s PlatformSettings) Clone() PlatformSettings {
	var c PlatformSettings
	if s.Tiktok != nil {
		v := *s.Tiktok
		c.Tiktok = &v
	}
	if s.Youtube != nil {
		v := *s.Youtube
		c.Youtube = &v
	}
	if s.Instagram != nil {
		v := *s.Instagram
		c.Instagram = &v
	}
	return c
}

// TiktokOrDefault returns the TikTok block, falling back to public posting.
func (s PlatformSettings) TiktokOrDefault() TiktokSettings {
	if s.Tiktok != nil {
		return *s.Tiktok
	}
	return TiktokSettings{PrivacyLevel: TiktokPrivacyPublic, VideoCoverTimestampMs: 1000}
}

func (s PlatformSettings) YoutubeOrDefault() YoutubeSettings {
	if s.Youtube != nil {
		return *s.Youtube
	}
	return YoutubeSettings{PrivacyStatus: "public", CategoryID: "22"}
}

// Value encodes as a string; lib/pq would send []byte as bytea.
func (s PlatformSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *PlatformSettings) Scan(src any) error {
	return scanJSON(src, s)
}

// PublishResults is the jsonb column form of a post's publish results.
type PublishResults []PublishResult

func (r PublishResults) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]PublishResult(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *PublishResults) Scan(src any) error {
	return scanJSON(src, r)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported jsonb source type")
	}
}
