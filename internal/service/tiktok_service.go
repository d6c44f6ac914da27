package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/creatoraide/configs"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/internal/transfer"
	"github.com/maheshrc27/creatoraide/pkg/utils"
)

const (
	tiktokAPIBaseURL = "https://open.tiktokapis.com"
	tiktokAuthURL    = "https://www.tiktok.com/v2/auth/authorize/"
	tiktokScopes     = "user.info.basic,user.info.profile,video.publish,video.upload"
)

type TiktokService interface {
	Publisher
	AccountConnector
}

type tiktokService struct {
	cfg    config.Config
	sa     repository.SocialAccountRepository
	client *resty.Client
}

func NewTiktokService(cfg config.Config, sa repository.SocialAccountRepository) TiktokService {
	return newTiktokService(cfg, sa, tiktokAPIBaseURL)
}

func newTiktokService(cfg config.Config, sa repository.SocialAccountRepository, baseURL string) *tiktokService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json; charset=UTF-8")
	return &tiktokService{cfg: cfg, sa: sa, client: client}
}

func (s *tiktokService) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_key", s.cfg.TiktokClientKey)
	params.Add("scope", tiktokScopes)
	params.Add("response_type", "code")
	params.Add("redirect_uri", s.cfg.TiktokRedirectURI)
	params.Add("state", state)
	return fmt.Sprintf("%s?%s", tiktokAuthURL, params.Encode())
}

func (s *tiktokService) Connect(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := s.requestToken(ctx, map[string]string{
		"code":         code,
		"grant_type":   "authorization_code",
		"redirect_uri": s.cfg.TiktokRedirectURI,
	})
	if err != nil {
		return err
	}

	var info transfer.TikTokResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetQueryParam("fields", "open_id,avatar_url,display_name,username").
		SetResult(&info).
		Get("/v2/user/info/")
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("fetching tiktok user info: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("tiktok user info returned %d: %s", resp.StatusCode(), info.Error.Message)
	}

	accessToken, err := utils.Encrypt(token.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}
	refreshToken, err := utils.Encrypt(token.RefreshToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	_, err = s.sa.Upsert(ctx, &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformTiktok,
		AccountID:       info.Data.User.OpenID,
		AccountName:     info.Data.User.DisplayName,
		AccountUsername: info.Data.User.Username,
		ProfilePicture:  info.Data.User.AvatarURL,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		TokenExpiresAt:  expiresAt(token.ExpiresIn),
		AccountStatus:   models.AccountStatusActive,
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (s *tiktokService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(acc.RefreshToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	token, err := s.requestToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		return err
	}

	encryptedAccess, err := utils.Encrypt(token.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}
	encryptedRefresh, err := utils.Encrypt(token.RefreshToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, acc.ID, encryptedAccess, encryptedRefresh, expiresAt(token.ExpiresIn))
}

func (s *tiktokService) requestToken(ctx context.Context, form map[string]string) (*transfer.TiktokTokenResponse, error) {
	form["client_key"] = s.cfg.TiktokClientKey
	form["client_secret"] = s.cfg.TiktokClientSecret

	var token transfer.TiktokTokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&token).
		Post("/v2/oauth/token/")
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("tiktok token request failed: %w", err)
	}
	if resp.IsError() || token.AccessToken == "" {
		slog.Info("tiktok token endpoint rejected the request", "status", resp.StatusCode())
		return nil, fmt.Errorf("tiktok token endpoint returned %d", resp.StatusCode())
	}
	return &token, nil
}

func (s *tiktokService) Revoke(ctx context.Context, acc *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_key":    s.cfg.TiktokClientKey,
			"client_secret": s.cfg.TiktokClientSecret,
			"token":         accessToken,
		}).
		Post("/v2/oauth/revoke/")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode())
	}
	return nil
}

// Publish posts the media file as a TikTok video or photo by letting TikTok
// pull it from its public URL.
func (s *tiktokService) Publish(ctx context.Context, req PublishRequest) (*Receipt, error) {
	if req.Media == nil {
		return nil, postErrorf("tiktok posts need a media file")
	}

	accessToken, err := utils.Decrypt(req.Account.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return nil, postErrorf("decrypting tiktok token: %w", err)
	}

	creator, err := s.queryCreatorInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	settings := req.Post.PlatformSettings.TiktokOrDefault()
	if !allowsPrivacy(creator.PrivacyLevelOptions, settings.PrivacyLevel) {
		return nil, postErrorf("privacy level %s is not available for this account", settings.PrivacyLevel)
	}

	var body any
	endpoint := "/v2/post/publish/video/init/"
	if req.Media.IsVideo() {
		body = transfer.VideoUploadRequest{
			PostInfo: transfer.VideoPostInfo{
				Title:                 caption(req.Post),
				PrivacyLevel:          settings.PrivacyLevel,
				DisableDuet:           settings.DisableDuet || creator.DuetDisabled,
				DisableComment:        settings.DisableComment || creator.CommentDisabled,
				DisableStitch:         settings.DisableStitch || creator.StitchDisabled,
				VideoCoverTimestampMs: settings.VideoCoverTimestampMs,
				BrandContentToggle:    settings.BrandContentToggle,
				IsAIGC:                settings.IsAIGC,
			},
			SourceInfo: transfer.VideoSourceInfo{
				Source:   "PULL_FROM_URL",
				VideoURL: req.Media.FileURL,
			},
		}
	} else {
		endpoint = "/v2/post/publish/content/init/"
		body = transfer.PhotoUploadRequest{
			PostInfo: transfer.PhotoPostInfo{
				Title:              req.Post.Title,
				Description:        caption(req.Post),
				PrivacyLevel:       settings.PrivacyLevel,
				DisableComment:     settings.DisableComment || creator.CommentDisabled,
				AutoAddMusic:       true,
				BrandContentToggle: settings.BrandContentToggle,
			},
			SourceInfo: transfer.PhotoSourceInfo{
				Source:          "PULL_FROM_URL",
				PhotoCoverIndex: 0,
				PhotoImages:     []string{req.Media.FileURL},
			},
			PostMode:  "DIRECT_POST",
			MediaType: "PHOTO",
		}
	}

	var result transfer.TikTokUploadResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() || (result.Error.Code != "" && result.Error.Code != "ok") {
		return nil, tiktokRejection(resp.StatusCode(), fmt.Errorf("tiktok rejected the post: %s", result.Error.Message))
	}

	slog.Info("tiktok publish accepted", "post_id", req.Post.ID, "publish_id", result.Data.PublishID)

	return &Receipt{
		Message: fmt.Sprintf("Sent to TikTok (publish id %s)", result.Data.PublishID),
	}, nil
}

func (s *tiktokService) queryCreatorInfo(ctx context.Context, accessToken string) (*transfer.TiktokCreatorInfo, error) {
	var result transfer.TiktokCreatorInfoResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&result).
		SetError(&result).
		Post("/v2/post/publish/creator_info/query/")
	if err != nil {
		return nil, fmt.Errorf("querying tiktok creator info: %w", err)
	}
	if resp.IsError() || (result.Error.Code != "" && result.Error.Code != "ok") {
		return nil, tiktokRejection(resp.StatusCode(), fmt.Errorf("tiktok creator info: %s", result.Error.Message))
	}
	return &result.Data, nil
}

// tiktokRejection treats an error code in a successful response like a 4xx.
func tiktokRejection(status int, err error) error {
	if status < 400 {
		return &PostError{Err: err}
	}
	return rejection(status, err)
}

func allowsPrivacy(options []string, level string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == level {
			return true
		}
	}
	return false
}

// caption prefers the post body and falls back to its title.
func caption(post *models.ScheduledPost) string {
	if post.Content != "" {
		return post.Content
	}
	if post.Description != "" {
		return post.Description
	}
	return post.Title
}

func expiresAt(expiresIn int) time.Time {
	return time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
}
