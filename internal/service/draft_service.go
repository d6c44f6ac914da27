package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/internal/transfer"
)

type DraftService interface {
	List(ctx context.Context, userID int64) ([]*models.ContentDraft, error)
	Get(ctx context.Context, id int64) (*models.ContentDraft, error)
	Create(ctx context.Context, userID int64, in *transfer.DraftCreation) (*models.ContentDraft, error)
	Update(ctx context.Context, id int64, patch *transfer.DraftUpdate) (*models.ContentDraft, error)
	Delete(ctx context.Context, id int64) error
}

type draftService struct {
	d repository.ContentDraftRepository
}

func NewDraftService(d repository.ContentDraftRepository) DraftService {
	return &draftService{d: d}
}

func (s *draftService) List(ctx context.Context, userID int64) ([]*models.ContentDraft, error) {
	drafts, err := s.d.ListByUserID(ctx, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

func (s *draftService) Get(ctx context.Context, id int64) (*models.ContentDraft, error) {
	draft, err := s.d.GetByID(ctx, id)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("getting draft %d: %w", id, err)
	}
	if draft == nil {
		return nil, ErrNotFound
	}
	return draft, nil
}

func (s *draftService) Create(ctx context.Context, userID int64, in *transfer.DraftCreation) (*models.ContentDraft, error) {
	if err := in.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	status := in.Status
	if status == "" {
		status = models.DraftStatusDraft
	}
	now := time.Now().UTC()
	draft := &models.ContentDraft{
		UserID:    userID,
		IdeaID:    in.IdeaID,
		Title:     in.Title,
		Content:   in.Content,
		Hook:      in.Hook,
		Structure: in.Structure,
		Audio:     in.Audio,
		Visual:    in.Visual,
		CTA:       in.CTA,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.d.Create(ctx, draft); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	return draft, nil
}

func (s *draftService) Update(ctx context.Context, id int64, patch *transfer.DraftUpdate) (*models.ContentDraft, error) {
	if err := patch.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	draft, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&draft.Title, patch.Title)
	set(&draft.Content, patch.Content)
	set(&draft.Hook, patch.Hook)
	set(&draft.Structure, patch.Structure)
	set(&draft.Audio, patch.Audio)
	set(&draft.Visual, patch.Visual)
	set(&draft.CTA, patch.CTA)
	set(&draft.Status, patch.Status)
	draft.UpdatedAt = time.Now().UTC()

	if err := s.d.Update(ctx, draft); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating draft %d: %w", id, err)
	}
	return draft, nil
}

func (s *draftService) Delete(ctx context.Context, id int64) error {
	if err := s.d.Remove(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting draft %d: %w", id, err)
	}
	return nil
}
