package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "https://media.example.com/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type brokenMediaRepository struct {
	repository.MediaFileRepository
}

func (brokenMediaRepository) Create(ctx context.Context, m *models.MediaFile) (int64, error) {
	return 0, errors.New("connection reset")
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestMediaUpload(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	media := repository.NewMemoryMediaFileRepository()
	s := NewMediaService(media, repository.NewMemoryContentDraftRepository(), storage)

	file, err := s.Upload(ctx, 1, nil, testPNG(t, 64, 32))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if file.FileType != "image/png" {
		t.Errorf("file type = %q", file.FileType)
	}
	if !strings.HasSuffix(file.FileName, ".png") {
		t.Errorf("object key %q has no png extension", file.FileName)
	}
	if file.FileURL != "https://media.example.com/"+file.FileName {
		t.Errorf("url = %q", file.FileURL)
	}
	if file.Width == nil || *file.Width != 64 || file.Height == nil || *file.Height != 32 {
		t.Errorf("dimensions = %v x %v, want 64 x 32", file.Width, file.Height)
	}
	if storage.count() != 1 {
		t.Errorf("expected 1 stored object, got %d", storage.count())
	}

	files, err := s.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("expected 1 media file, got %d", len(files))
	}

	if err := s.Delete(ctx, file.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if storage.count() != 0 {
		t.Errorf("stored object was not removed")
	}
	if _, err := s.Get(ctx, file.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMediaUploadErrors(t *testing.T) {
	ctx := context.Background()
	drafts := repository.NewMemoryContentDraftRepository()
	foreign := &models.ContentDraft{UserID: 2, Title: "theirs"}
	if _, err := drafts.Create(ctx, foreign); err != nil {
		t.Fatal(err)
	}

	t.Run("storage disabled", func(t *testing.T) {
		s := NewMediaService(repository.NewMemoryMediaFileRepository(), drafts, nil)
		if _, err := s.Upload(ctx, 1, nil, testPNG(t, 1, 1)); !errors.Is(err, ErrStorageDisabled) {
			t.Errorf("expected ErrStorageDisabled, got %v", err)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		s := NewMediaService(repository.NewMemoryMediaFileRepository(), drafts, newFakeStorage())
		if _, err := s.Upload(ctx, 1, nil, []byte("just some text")); !errors.Is(err, ErrUnsupportedMedia) {
			t.Errorf("expected ErrUnsupportedMedia, got %v", err)
		}
	})

	t.Run("foreign draft", func(t *testing.T) {
		s := NewMediaService(repository.NewMemoryMediaFileRepository(), drafts, newFakeStorage())
		_, err := s.Upload(ctx, 1, &foreign.ID, testPNG(t, 1, 1))
		var rerr *ReferenceError
		if !errors.As(err, &rerr) || rerr.Kind != DraftNotFound {
			t.Errorf("expected draft ReferenceError, got %v", err)
		}
	})

	t.Run("database failure removes the object", func(t *testing.T) {
		storage := newFakeStorage()
		broken := brokenMediaRepository{repository.NewMemoryMediaFileRepository()}
		s := NewMediaService(broken, drafts, storage)
		if _, err := s.Upload(ctx, 1, nil, testPNG(t, 1, 1)); err == nil {
			t.Fatal("expected an error")
		}
		if storage.count() != 0 {
			t.Errorf("orphaned object left in storage")
		}
	})
}
