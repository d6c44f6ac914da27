package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	config "github.com/maheshrc27/creatoraide/configs"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
)

type AuthService interface {
	LoginURL(state string) string
	LoginCallback(ctx context.Context, code string) (int64, error)
}

type authService struct {
	u     repository.UserRepository
	oauth *oauth2.Config
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		u: u,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
	}
}

func (s *authService) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// LoginCallback exchanges the Google code and returns the id of the matching
// user, creating one on first login.
func (s *authService) LoginCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return 0, err
	}
	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	info, err := googleUserInfo(ctx, s.oauth.Client(ctx, token))
	if err != nil {
		return 0, err
	}

	return s.upsertUser(ctx, info)
}

func (s *authService) upsertUser(ctx context.Context, info *googleoauth.Userinfo) (int64, error) {
	user, exists, err := s.u.GetByEmail(ctx, info.Email)
	if err != nil {
		return 0, err
	}

	if exists {
		if user.GoogleID == "" || user.Name != info.Name || user.ProfilePicture != info.Picture {
			user.GoogleID = info.Id
			user.Name = info.Name
			user.ProfilePicture = info.Picture
			user.UpdatedAt = time.Now().UTC()
			if err := s.u.Update(ctx, user); err != nil {
				slog.Info(err.Error())
				return 0, err
			}
		}
		return user.ID, nil
	}

	userID, err := s.u.Create(ctx, &models.User{
		GoogleID:       info.Id,
		Email:          info.Email,
		Name:           info.Name,
		ProfilePicture: info.Picture,
	})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	slog.Info("user registered", "user_id", userID)
	return userID, nil
}
