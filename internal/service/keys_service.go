package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/internal/transfer"
	"github.com/maheshrc27/creatoraide/pkg/utils"
)

const maxApiKeys = 5

type ApiKeyService interface {
	Create(ctx context.Context, userID int64) (*transfer.ApiKeyCreated, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	RemoveAPIKey(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

// Create issues a new key. The plain key is only returned here; the store keeps its hash.
func (s *apiKeyService) Create(ctx context.Context, userID int64) (*transfer.ApiKeyCreated, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(keys) >= maxApiKeys {
		slog.Info("api key limit reached", "user_id", userID)
		return nil, ErrApiKeyLimit
	}

	key, err := utils.GenerateApiKey(24)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("generating api key: %w", err)
	}

	apiKey := &models.ApiKey{
		UserID:  userID,
		KeyHash: utils.HashApiKey(key),
		Prefix:  key[:8],
	}
	id, err := s.k.Create(ctx, apiKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("saving api key: %w", err)
	}

	return &transfer.ApiKeyCreated{ID: id, ApiKey: key}, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	key, err := s.k.GetByHash(ctx, utils.HashApiKey(apiKey))
	if err != nil {
		return 0, err
	}
	if key == nil {
		return 0, ErrNotFound
	}
	return key.UserID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return keys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID int64) error {
	if err := s.k.Remove(ctx, keyID, userID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
