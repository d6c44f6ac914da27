package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/creatoraide/internal/models"
)

// memTable is a mutex-guarded id->record map. Records are copied on the way
// in and out so callers never share memory with the table.
type memTable[T any] struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*T
	clone  func(*T) *T
}

func newMemTable[T any](clone func(*T) *T) *memTable[T] {
	return &memTable[T]{rows: make(map[int64]*T), clone: clone}
}

func (t *memTable[T]) insert(v *T, setID func(*T, int64)) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	setID(v, t.nextID)
	t.rows[t.nextID] = t.clone(v)
	return t.nextID
}

func (t *memTable[T]) get(id int64) *T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		return nil
	}
	return t.clone(v)
}

func (t *memTable[T]) filter(keep func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := []*T{}
	for _, v := range t.rows {
		if keep(v) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

// mutate applies fn to the stored record under the write lock.
func (t *memTable[T]) mutate(id int64, fn func(*T) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return false
	}
	return fn(v)
}

func (t *memTable[T]) replace(id int64, v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNoRowsAffected
	}
	t.rows[id] = t.clone(v)
	return nil
}

func (t *memTable[T]) remove(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNoRowsAffected
	}
	delete(t.rows, id)
	return nil
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

type memoryScheduledPostRepository struct {
	t *memTable[models.ScheduledPost]
}

func NewMemoryScheduledPostRepository() ScheduledPostRepository {
	return &memoryScheduledPostRepository{t: newMemTable(func(p *models.ScheduledPost) *models.ScheduledPost { return p.Clone() })}
}

func sortPosts(posts []*models.ScheduledPost) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].ScheduledFor.Equal(posts[j].ScheduledFor) {
			return posts[i].ScheduledFor.Before(posts[j].ScheduledFor)
		}
		return posts[i].ID < posts[j].ID
	})
}

func (r *memoryScheduledPostRepository) Create(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	return r.t.insert(post, func(p *models.ScheduledPost, id int64) { p.ID = id }), nil
}

func (r *memoryScheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	return r.t.get(id), nil
}

func (r *memoryScheduledPostRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	posts := r.t.filter(func(p *models.ScheduledPost) bool { return p.UserID == userID })
	sortPosts(posts)
	return posts, nil
}

func (r *memoryScheduledPostRepository) Update(ctx context.Context, post *models.ScheduledPost) error {
	ok := r.t.mutate(post.ID, func(p *models.ScheduledPost) bool {
		if !models.Editable(p.Status) {
			return false
		}
		*p = *post.Clone()
		return true
	})
	if !ok {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *memoryScheduledPostRepository) Claim(ctx context.Context, id int64, from ...string) (*models.ScheduledPost, error) {
	var claimed *models.ScheduledPost
	r.t.mutate(id, func(p *models.ScheduledPost) bool {
		for _, s := range from {
			if p.Status == s {
				p.Status = models.PostStatusPublishing
				p.UpdatedAt = time.Now().UTC()
				claimed = p.Clone()
				return true
			}
		}
		return false
	})
	return claimed, nil
}

func (r *memoryScheduledPostRepository) ClaimIfDue(ctx context.Context, id int64, now time.Time) (*models.ScheduledPost, error) {
	var claimed *models.ScheduledPost
	r.t.mutate(id, func(p *models.ScheduledPost) bool {
		if p.Status != models.PostStatusPending || p.ScheduledFor.After(now) {
			return false
		}
		p.Status = models.PostStatusPublishing
		p.UpdatedAt = now.UTC()
		claimed = p.Clone()
		return true
	})
	return claimed, nil
}

func (r *memoryScheduledPostRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	due := []*models.ScheduledPost{}
	for _, p := range r.t.rows {
		if p.Status == models.PostStatusPending && !p.ScheduledFor.After(now) {
			due = append(due, p)
		}
	}
	sortPosts(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*models.ScheduledPost, 0, len(due))
	for _, p := range due {
		p.Status = models.PostStatusPublishing
		p.UpdatedAt = now.UTC()
		claimed = append(claimed, p.Clone())
	}
	return claimed, nil
}

func (r *memoryScheduledPostRepository) FailStale(ctx context.Context, cutoff, now time.Time, message string) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	var n int64
	for _, p := range r.t.rows {
		if p.Status != models.PostStatusPublishing || !p.UpdatedAt.Before(cutoff) {
			continue
		}
		results := make([]models.PublishResult, len(p.Platforms))
		for i, platform := range p.Platforms {
			results[i] = models.PublishResult{Platform: platform, Timestamp: now.UTC(), Message: message}
		}
		t := now.UTC()
		p.Status = models.PostStatusFailed
		p.PublishResults = results
		p.LastPublishedAt = &t
		p.UpdatedAt = t
		n++
	}
	return n, nil
}

func (r *memoryScheduledPostRepository) SaveResults(ctx context.Context, id int64, status string, results []models.PublishResult, publishedAt time.Time) error {
	ok := r.t.mutate(id, func(p *models.ScheduledPost) bool {
		p.Status = status
		p.PublishResults = append([]models.PublishResult(nil), results...)
		t := publishedAt
		p.LastPublishedAt = &t
		p.UpdatedAt = publishedAt
		return true
	})
	if !ok {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *memoryScheduledPostRepository) Remove(ctx context.Context, id int64) error {
	return r.t.remove(id)
}

type memoryContentDraftRepository struct {
	t *memTable[models.ContentDraft]
}

func NewMemoryContentDraftRepository() ContentDraftRepository {
	return &memoryContentDraftRepository{t: newMemTable(copyOf[models.ContentDraft])}
}

func (r *memoryContentDraftRepository) Create(ctx context.Context, d *models.ContentDraft) (int64, error) {
	return r.t.insert(d, func(d *models.ContentDraft, id int64) { d.ID = id }), nil
}

func (r *memoryContentDraftRepository) GetByID(ctx context.Context, id int64) (*models.ContentDraft, error) {
	return r.t.get(id), nil
}

func (r *memoryContentDraftRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ContentDraft, error) {
	drafts := r.t.filter(func(d *models.ContentDraft) bool { return d.UserID == userID })
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt) })
	return drafts, nil
}

func (r *memoryContentDraftRepository) Update(ctx context.Context, d *models.ContentDraft) error {
	return r.t.replace(d.ID, d)
}

func (r *memoryContentDraftRepository) Remove(ctx context.Context, id int64) error {
	return r.t.remove(id)
}

type memoryMediaFileRepository struct {
	t *memTable[models.MediaFile]
}

func NewMemoryMediaFileRepository() MediaFileRepository {
	return &memoryMediaFileRepository{t: newMemTable(copyOf[models.MediaFile])}
}

func (r *memoryMediaFileRepository) Create(ctx context.Context, m *models.MediaFile) (int64, error) {
	return r.t.insert(m, func(m *models.MediaFile, id int64) { m.ID = id }), nil
}

func (r *memoryMediaFileRepository) GetByID(ctx context.Context, id int64) (*models.MediaFile, error) {
	return r.t.get(id), nil
}

func (r *memoryMediaFileRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaFile, error) {
	files := r.t.filter(func(m *models.MediaFile) bool { return m.UserID == userID })
	sort.Slice(files, func(i, j int) bool { return files[i].UploadedAt.After(files[j].UploadedAt) })
	return files, nil
}

func (r *memoryMediaFileRepository) Remove(ctx context.Context, id int64) error {
	return r.t.remove(id)
}

type memorySocialAccountRepository struct {
	t *memTable[models.SocialAccount]
}

func NewMemorySocialAccountRepository() SocialAccountRepository {
	return &memorySocialAccountRepository{t: newMemTable(copyOf[models.SocialAccount])}
}

func (r *memorySocialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	existing := r.t.filter(func(v *models.SocialAccount) bool {
		return v.UserID == sa.UserID && v.Platform == sa.Platform && v.AccountID == sa.AccountID
	})
	now := time.Now().UTC()
	sa.AccountStatus = models.AccountStatusActive
	sa.UpdatedAt = now
	if len(existing) > 0 {
		sa.ID = existing[0].ID
		sa.CreatedAt = existing[0].CreatedAt
		return sa.ID, r.t.replace(sa.ID, sa)
	}
	sa.CreatedAt = now
	return r.t.insert(sa, func(v *models.SocialAccount, id int64) { v.ID = id }), nil
}

func (r *memorySocialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return r.t.get(id), nil
}

func (r *memorySocialAccountRepository) GetByPlatform(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	accounts := r.t.filter(func(v *models.SocialAccount) bool {
		return v.UserID == userID && v.Platform == platform && v.AccountStatus == models.AccountStatusActive
	})
	if len(accounts) == 0 {
		return nil, nil
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UpdatedAt.After(accounts[j].UpdatedAt) })
	return accounts[0], nil
}

func (r *memorySocialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts := r.t.filter(func(v *models.SocialAccount) bool { return v.UserID == userID })
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *memorySocialAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	return r.t.filter(func(v *models.SocialAccount) bool {
		return v.AccountStatus == models.AccountStatusActive && v.TokenExpiresAt.Before(before)
	}), nil
}

func (r *memorySocialAccountRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	ok := r.t.mutate(id, func(v *models.SocialAccount) bool {
		if accessToken != "" {
			v.AccessToken = accessToken
		}
		if refreshToken != "" {
			v.RefreshToken = refreshToken
		}
		v.TokenExpiresAt = expiresAt
		v.AccountStatus = models.AccountStatusActive
		v.UpdatedAt = time.Now().UTC()
		return true
	})
	if !ok {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *memorySocialAccountRepository) SetStatus(ctx context.Context, id int64, status string) error {
	ok := r.t.mutate(id, func(v *models.SocialAccount) bool {
		v.AccountStatus = status
		v.UpdatedAt = time.Now().UTC()
		return true
	})
	if !ok {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *memorySocialAccountRepository) Remove(ctx context.Context, id int64) error {
	return r.t.remove(id)
}

type memoryUserRepository struct {
	t *memTable[models.User]
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{t: newMemTable(copyOf[models.User])}
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	u := r.t.get(id)
	return u, u != nil, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	users := r.t.filter(func(u *models.User) bool { return u.Email == email })
	if len(users) == 0 {
		return nil, false, nil
	}
	return users[0], true, nil
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	return r.t.insert(user, func(u *models.User, id int64) { u.ID = id }), nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	return r.t.replace(user.ID, user)
}

type memoryApiKeyRepository struct {
	t *memTable[models.ApiKey]
}

func NewMemoryApiKeyRepository() ApiKeyRepository {
	return &memoryApiKeyRepository{t: newMemTable(copyOf[models.ApiKey])}
}

func (r *memoryApiKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	keys := r.t.filter(func(k *models.ApiKey) bool { return k.KeyHash == keyHash })
	if len(keys) == 0 {
		return nil, nil
	}
	return keys[0], nil
}

func (r *memoryApiKeyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	keys := r.t.filter(func(k *models.ApiKey) bool { return k.UserID == userID })
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

func (r *memoryApiKeyRepository) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	apiKey.CreatedAt = time.Now().UTC()
	return r.t.insert(apiKey, func(k *models.ApiKey, id int64) { k.ID = id }), nil
}

func (r *memoryApiKeyRepository) Remove(ctx context.Context, id, userID int64) error {
	k := r.t.get(id)
	if k == nil || k.UserID != userID {
		return ErrNoRowsAffected
	}
	return r.t.remove(id)
}
