package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
)

// AccountConnector links, refreshes and unlinks a user's account on one platform.
type AccountConnector interface {
	AuthURL(state string) string
	Connect(ctx context.Context, code string, userID int64) error
	RefreshToken(ctx context.Context, acc *models.SocialAccount) error
	Revoke(ctx context.Context, acc *models.SocialAccount) error
}

type PlatformService interface {
	GetAuthURL(platform, state string) (string, error)
	Callback(ctx context.Context, platform, code string, userID int64) error
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
	RefreshExpiring(ctx context.Context, window time.Duration) (int, error)
}

type platformService struct {
	sa         repository.SocialAccountRepository
	connectors map[string]AccountConnector
}

func NewPlatformService(sa repository.SocialAccountRepository, connectors map[string]AccountConnector) PlatformService {
	return &platformService{
		sa:         sa,
		connectors: connectors,
	}
}

func (s *platformService) connector(platform string) (AccountConnector, error) {
	c, ok := s.connectors[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	return c, nil
}

func (s *platformService) GetAuthURL(platform, state string) (string, error) {
	c, err := s.connector(platform)
	if err != nil {
		return "", err
	}
	return c.AuthURL(state), nil
}

func (s *platformService) Callback(ctx context.Context, platform, code string, userID int64) error {
	c, err := s.connector(platform)
	if err != nil {
		return err
	}
	if err := c.Connect(ctx, code, userID); err != nil {
		return fmt.Errorf("connecting %s account: %w", platform, err)
	}
	slog.Info("social account connected", "platform", platform, "user_id", userID)
	return nil
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("listing social accounts: %w", err)
	}
	return accounts, nil
}

func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	acc, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if acc == nil {
		return ErrNotFound
	}
	if acc.UserID != userID {
		return ErrForbidden
	}

	// unlinking must not depend on the platform accepting the revoke
	if c, ok := s.connectors[acc.Platform]; ok {
		if err := c.Revoke(ctx, acc); err != nil {
			slog.Info("revoking platform access failed", "platform", acc.Platform, "error", err)
		}
	}

	if err := s.sa.Remove(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return fmt.Errorf("removing social account: %w", err)
	}
	return nil
}

// RefreshExpiring refreshes tokens that expire within window. Accounts whose
// refresh fails are marked expired so publishing stops using them.
func (s *platformService) RefreshExpiring(ctx context.Context, window time.Duration) (int, error) {
	accounts, err := s.sa.ListExpiring(ctx, time.Now().UTC().Add(window))
	if err != nil {
		slog.Error("listing expiring accounts failed", "error", err)
		return 0, err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)
	semaphore := make(chan struct{}, 10)

	for _, acc := range accounts {
		c, ok := s.connectors[acc.Platform]
		if !ok {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(acc *models.SocialAccount, c AccountConnector) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.RefreshToken(ctx, acc); err != nil {
				slog.Info("token refresh failed", "account_id", acc.ID, "platform", acc.Platform, "error", err)
				if err := s.sa.SetStatus(ctx, acc.ID, models.AccountStatusExpired); err != nil {
					slog.Info(err.Error())
				}
				return
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(acc, c)
	}

	wg.Wait()
	return refreshed, nil
}
