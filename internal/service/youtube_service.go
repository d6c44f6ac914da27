package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/creatoraide/configs"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

type YoutubeService interface {
	Publisher
	AccountConnector
}

type youtubeService struct {
	cfg    config.Config
	sa     repository.SocialAccountRepository
	oauth  *oauth2.Config
	client *resty.Client
}

func NewYoutubeService(cfg config.Config, sa repository.SocialAccountRepository) YoutubeService {
	return &youtubeService{
		cfg: cfg,
		sa:  sa,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.YoutubeRedirectURI,
			Scopes: []string{
				googleoauth.UserinfoEmailScope,
				googleoauth.UserinfoProfileScope,
				youtube.YoutubeUploadScope,
			},
			Endpoint: google.Endpoint,
		},
		client: resty.New(),
	}
}

func (s *youtubeService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *youtubeService) Connect(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}
	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if token.RefreshToken == "" {
		err = errors.New("refresh token is empty")
		slog.Info(err.Error())
		return err
	}

	userInfo, err := googleUserInfo(ctx, s.oauth.Client(ctx, token))
	if err != nil {
		return err
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
		Platform:        models.PlatformYoutube,
		AccountID:       userInfo.Id,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Email,
		ProfilePicture:  userInfo.Picture,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		TokenExpiresAt:  token.Expiry.UTC(),
		AccountStatus:   models.AccountStatusActive,
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (s *youtubeService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(acc.RefreshToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	token, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccess, err := utils.Encrypt(token.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}
	// Google keeps the refresh token unless it rotates it
	encryptedRefresh := acc.RefreshToken
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		if encryptedRefresh, err = utils.Encrypt(token.RefreshToken, s.cfg.SecretKey); err != nil {
			return err
		}
	}

	return s.sa.SetToken(ctx, acc.ID, encryptedAccess, encryptedRefresh, token.Expiry.UTC())
}

func (s *youtubeService) Revoke(ctx context.Context, acc *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"token": accessToken}).
		Post(googleRevokeURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode())
	}
	return nil
}

// Publish uploads the post's video by streaming it from object storage into
// the YouTube upload API.
func (s *youtubeService) Publish(ctx context.Context, req PublishRequest) (*Receipt, error) {
	if req.Media == nil || !req.Media.IsVideo() {
		return nil, postErrorf("youtube posts need a video file")
	}

	accessToken, err := utils.Decrypt(req.Account.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return nil, postErrorf("decrypting youtube token: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	yt, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	download, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(req.Media.FileURL)
	if err != nil {
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	body := download.RawBody()
	defer body.Close()
	if download.StatusCode() != http.StatusOK {
		return nil, rejection(download.StatusCode(), fmt.Errorf("downloading media: unexpected status %d", download.StatusCode()))
	}

	settings := req.Post.PlatformSettings.YoutubeOrDefault()
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Post.Title,
			Description: caption(req.Post),
			CategoryId:  settings.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           settings.PrivacyStatus,
			SelfDeclaredMadeForKids: settings.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	uploaded, err := yt.Videos.Insert([]string{"snippet", "status"}, video).
		Media(body).
		Context(ctx).
		Do()
	if err != nil {
		slog.Info(err.Error())
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, rejection(apiErr.Code, err)
		}
		return nil, err
	}

	return &Receipt{
		PostURL: fmt.Sprintf("https://youtu.be/%s", uploaded.Id),
		Message: "Uploaded to YouTube",
	}, nil
}

func googleUserInfo(ctx context.Context, client *http.Client) (*googleoauth.Userinfo, error) {
	svc, err := googleoauth.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	return info, nil
}
