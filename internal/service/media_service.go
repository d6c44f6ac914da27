package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpg": {}, "png": {}, "webp": {},
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, draftID *int64, data []byte) (*models.MediaFile, error)
	List(ctx context.Context, userID int64) ([]*models.MediaFile, error)
	Get(ctx context.Context, id int64) (*models.MediaFile, error)
	Delete(ctx context.Context, id int64) error
}

type mediaService struct {
	m       repository.MediaFileRepository
	d       repository.ContentDraftRepository
	storage ObjectStorage
}

// NewMediaService returns a media service. Uploads fail with ErrStorageDisabled
// when storage is nil; listing and lookups still work.
func NewMediaService(m repository.MediaFileRepository, d repository.ContentDraftRepository, storage ObjectStorage) MediaService {
	return &mediaService{m: m, d: d, storage: storage}
}

func (s *mediaService) Upload(ctx context.Context, userID int64, draftID *int64, data []byte) (*models.MediaFile, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedMedia)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, ErrUnsupportedMedia
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, kind.Extension)
	}

	if draftID != nil {
		draft, err := s.d.GetByID(ctx, *draftID)
		if err != nil {
			return nil, err
		}
		if draft == nil || draft.UserID != userID {
			return nil, &ReferenceError{Kind: DraftNotFound, ID: *draftID}
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("%s.%s", id, kind.Extension)

	url, err := s.storage.Put(ctx, key, data, kind.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("uploading media: %w", err)
	}

	media := &models.MediaFile{
		UserID:     userID,
		DraftID:    draftID,
		FileName:   key,
		FileType:   kind.MIME.Value,
		FileSize:   int64(len(data)),
		FileURL:    url,
		UploadedAt: time.Now().UTC(),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		w, h := cfg.Width, cfg.Height
		media.Width, media.Height = &w, &h
	}

	if _, err := s.m.Create(ctx, media); err != nil {
		slog.Info(err.Error())
		if derr := s.storage.Delete(ctx, key); derr != nil {
			slog.Info("removing orphaned upload failed", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("saving media file: %w", err)
	}

	slog.Info("media uploaded", "media_id", media.ID, "user_id", userID, "type", media.FileType)
	return media, nil
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.MediaFile, error) {
	files, err := s.m.ListByUserID(ctx, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("listing media files: %w", err)
	}
	return files, nil
}

func (s *mediaService) Get(ctx context.Context, id int64) (*models.MediaFile, error) {
	media, err := s.m.GetByID(ctx, id)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("getting media file %d: %w", id, err)
	}
	if media == nil {
		return nil, ErrNotFound
	}
	return media, nil
}

func (s *mediaService) Delete(ctx context.Context, id int64) error {
	media, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.m.Remove(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting media file %d: %w", id, err)
	}
	if s.storage != nil {
		if err := s.storage.Delete(ctx, media.FileName); err != nil {
			slog.Info("removing stored object failed", "key", media.FileName, "error", err)
		}
	}
	return nil
}
