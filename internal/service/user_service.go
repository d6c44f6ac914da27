package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, exists, err := s.u.GetByID(ctx, id)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("getting user info: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}
