package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maheshrc27/creatoraide/internal/repository"
)

func TestApiKeys(t *testing.T) {
	ctx := context.Background()
	s := NewApiKeyService(repository.NewMemoryApiKeyRepository())

	created, err := s.Create(ctx, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	userID, err := s.GetUserID(ctx, created.ApiKey)
	if err != nil || userID != 1 {
		t.Fatalf("GetUserID = %d, %v", userID, err)
	}
	if _, err := s.GetUserID(ctx, "not-a-key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown key: expected ErrNotFound, got %v", err)
	}

	keys, err := s.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	if !strings.HasPrefix(created.ApiKey, keys[0].Prefix) {
		t.Errorf("prefix %q does not match key", keys[0].Prefix)
	}
	if keys[0].KeyHash == created.ApiKey {
		t.Error("key stored in plain text")
	}

	if err := s.RemoveAPIKey(ctx, 2, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign remove: expected ErrNotFound, got %v", err)
	}
	if err := s.RemoveAPIKey(ctx, 1, created.ID); err != nil {
		t.Fatalf("RemoveAPIKey: %v", err)
	}
	if _, err := s.GetUserID(ctx, created.ApiKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("removed key still resolves: %v", err)
	}
}

func TestApiKeyLimit(t *testing.T) {
	ctx := context.Background()
	s := NewApiKeyService(repository.NewMemoryApiKeyRepository())

	for i := 0; i < maxApiKeys; i++ {
		if _, err := s.Create(ctx, 1); err != nil {
			t.Fatalf("key %d: %v", i, err)
		}
	}
	if _, err := s.Create(ctx, 1); !errors.Is(err, ErrApiKeyLimit) {
		t.Errorf("expected ErrApiKeyLimit, got %v", err)
	}
	if _, err := s.Create(ctx, 2); err != nil {
		t.Errorf("limit must be per user: %v", err)
	}
}
