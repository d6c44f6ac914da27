package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/internal/transfer"
)

type schedulerDeps struct {
	posts    repository.ScheduledPostRepository
	drafts   repository.ContentDraftRepository
	media    repository.MediaFileRepository
	accounts repository.SocialAccountRepository
}

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, publishers Publishers, opts SchedulerOptions) (*schedulerService, schedulerDeps) {
	t.Helper()
	deps := schedulerDeps{
		posts:    repository.NewMemoryScheduledPostRepository(),
		drafts:   repository.NewMemoryContentDraftRepository(),
		media:    repository.NewMemoryMediaFileRepository(),
		accounts: repository.NewMemorySocialAccountRepository(),
	}
	s := NewSchedulerService(deps.posts, deps.drafts, deps.media, deps.accounts, publishers, opts).(*schedulerService)
	s.now = func() time.Time { return testNow }
	return s, deps
}

func connectAccount(t *testing.T, deps schedulerDeps, userID int64, platform string) {
	t.Helper()
	_, err := deps.accounts.Upsert(context.Background(), &models.SocialAccount{
		UserID:         userID,
		Platform:       platform,
		AccountID:      platform + "-account",
		AccessToken:    "token",
		TokenExpiresAt: testNow.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("connecting %s account: %v", platform, err)
	}
}

func okPublisher(url string) Publisher {
	return PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		return &Receipt{PostURL: url}, nil
	})
}

func failingPublisher(msg string) Publisher {
	return PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		return nil, errors.New(msg)
	})
}

func summerPromo(platforms ...string) *transfer.ScheduledPostCreation {
	return &transfer.ScheduledPostCreation{
		Title:        "Summer Promo",
		Description:  "Our biggest sale of the year",
		Platforms:    platforms,
		ScheduledFor: "2030-07-01T10:00:00Z",
	}
}

func TestCreateDefaults(t *testing.T) {
	s, _ := newTestScheduler(t, nil, SchedulerOptions{})

	post, err := s.Create(context.Background(), 1, summerPromo(models.PlatformTiktok))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if post.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if post.Status != models.PostStatusPending {
		t.Errorf("status = %q, want %q", post.Status, models.PostStatusPending)
	}
	if post.TimeZone != "UTC" {
		t.Errorf("time zone = %q, want UTC", post.TimeZone)
	}
	if post.UpdatedAt.Before(post.CreatedAt) {
		t.Errorf("updated_at %v is before created_at %v", post.UpdatedAt, post.CreatedAt)
	}
	if post.PublishResults == nil || len(post.PublishResults) != 0 {
		t.Errorf("expected empty publish results, got %v", post.PublishResults)
	}
	want := time.Date(2030, 7, 1, 10, 0, 0, 0, time.UTC)
	if !post.ScheduledFor.Equal(want) {
		t.Errorf("scheduled_for = %v, want %v", post.ScheduledFor, want)
	}

	stored, err := s.Get(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Title != "Summer Promo" {
		t.Errorf("stored title = %q", stored.Title)
	}
}

func TestCreateAsDraft(t *testing.T) {
	s, _ := newTestScheduler(t, nil, SchedulerOptions{})

	in := summerPromo(models.PlatformYoutube)
	in.Status = models.PostStatusDraft
	post, err := s.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.Status != models.PostStatusDraft {
		t.Errorf("status = %q, want draft", post.Status)
	}
}

func TestCreateInTimeZone(t *testing.T) {
	s, _ := newTestScheduler(t, nil, SchedulerOptions{})

	in := summerPromo(models.PlatformTiktok)
	in.ScheduledFor = "2030-07-01T10:00"
	in.TimeZone = "America/New_York"

	post, err := s.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := time.Date(2030, 7, 1, 14, 0, 0, 0, time.UTC)
	if !post.ScheduledFor.Equal(want) {
		t.Errorf("scheduled_for = %v, want %v", post.ScheduledFor, want)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*transfer.ScheduledPostCreation)
		field  string
	}{
		{"missing title", func(in *transfer.ScheduledPostCreation) { in.Title = "" }, "title"},
		{"no platforms", func(in *transfer.ScheduledPostCreation) { in.Platforms = nil }, "platforms"},
		{"unknown platform", func(in *transfer.ScheduledPostCreation) { in.Platforms = []string{"myspace"} }, "platforms"},
		{"duplicate platform", func(in *transfer.ScheduledPostCreation) { in.Platforms = []string{"tiktok", "tiktok"} }, "platforms"},
		{"bad time", func(in *transfer.ScheduledPostCreation) { in.ScheduledFor = "next tuesday" }, "scheduled_for"},
		{"bad time zone", func(in *transfer.ScheduledPostCreation) { in.TimeZone = "Mars/Olympus" }, "time_zone"},
		{"bad status", func(in *transfer.ScheduledPostCreation) { in.Status = models.PostStatusPublished }, "status"},
		{"settings for other platform", func(in *transfer.ScheduledPostCreation) {
			in.PlatformSettings = models.PlatformSettings{Youtube: &models.YoutubeSettings{PrivacyStatus: "public"}}
		}, "platform_settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, deps := newTestScheduler(t, nil, SchedulerOptions{})
			in := summerPromo(models.PlatformTiktok)
			tt.mutate(in)

			_, err := s.Create(context.Background(), 1, in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected an error on %q, got %v", tt.field, verr.Fields)
			}

			posts, _ := deps.posts.ListByUserID(context.Background(), 1)
			if len(posts) != 0 {
				t.Errorf("expected nothing persisted, got %d posts", len(posts))
			}
		})
	}
}

func TestCreateReferences(t *testing.T) {
	ctx := context.Background()
	s, deps := newTestScheduler(t, nil, SchedulerOptions{})

	foreignDraft := &models.ContentDraft{UserID: 2, Title: "not yours"}
	if _, err := deps.drafts.Create(ctx, foreignDraft); err != nil {
		t.Fatal(err)
	}
	ownMedia := &models.MediaFile{UserID: 1, FileType: "video/mp4", FileURL: "https://cdn.example.com/a.mp4"}
	if _, err := deps.media.Create(ctx, ownMedia); err != nil {
		t.Fatal(err)
	}

	missing := int64(9999)
	tests := []struct {
		name    string
		draftID *int64
		mediaID *int64
		kind    ReferenceKind
	}{
		{"missing draft", &missing, nil, DraftNotFound},
		{"foreign draft", &foreignDraft.ID, nil, DraftNotFound},
		{"missing media", nil, &missing, MediaNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := summerPromo(models.PlatformTiktok)
			in.ContentDraftID = tt.draftID
			in.MediaFileID = tt.mediaID

			_, err := s.Create(ctx, 1, in)
			var rerr *ReferenceError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected ReferenceError, got %v", err)
			}
			if rerr.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", rerr.Kind, tt.kind)
			}
		})
	}

	posts, _ := s.ListByOwner(ctx, 1)
	if len(posts) != 0 {
		t.Fatalf("expected nothing persisted, got %d posts", len(posts))
	}

	in := summerPromo(models.PlatformTiktok)
	in.MediaFileID = &ownMedia.ID
	if _, err := s.Create(ctx, 1, in); err != nil {
		t.Fatalf("Create with own media: %v", err)
	}
}

func TestCreateUseOptimalTime(t *testing.T) {
	tests := []struct {
		name         string
		scheduledFor string
		timeZone     string
		want         time.Time
	}{
		{"later today", "2030-07-01T10:30:00Z", "", time.Date(2030, 7, 1, 12, 0, 0, 0, time.UTC)},
		{"exact hour", "2030-07-01T19:00:00Z", "", time.Date(2030, 7, 1, 19, 0, 0, 0, time.UTC)},
		{"rolls to next day", "2030-07-01T22:00:00Z", "", time.Date(2030, 7, 2, 9, 0, 0, 0, time.UTC)},
		{"post time zone", "2030-07-01T10:30", "Europe/Berlin", time.Date(2030, 7, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScheduler(t, nil, SchedulerOptions{})
			in := summerPromo(models.PlatformTiktok)
			in.ScheduledFor = tt.scheduledFor
			in.TimeZone = tt.timeZone
			in.UseOptimalTime = true

			post, err := s.Create(context.Background(), 1, in)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !post.OptimalTimeApplied {
				t.Error("expected optimal_time_applied")
			}
			if !post.ScheduledFor.Equal(tt.want) {
				t.Errorf("scheduled_for = %v, want %v", post.ScheduledFor, tt.want)
			}
		})
	}
}

func TestListByOwnerSorted(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, nil, SchedulerOptions{})

	for _, when := range []string{"2030-07-03T10:00:00Z", "2030-07-01T10:00:00Z", "2030-07-02T10:00:00Z"} {
		in := summerPromo(models.PlatformTiktok)
		in.ScheduledFor = when
		if _, err := s.Create(ctx, 1, in); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, 2, summerPromo(models.PlatformTiktok)); err != nil {
		t.Fatal(err)
	}

	posts, err := s.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].ScheduledFor.Before(posts[i-1].ScheduledFor) {
			t.Errorf("posts not sorted by scheduled_for: %v before %v", posts[i].ScheduledFor, posts[i-1].ScheduledFor)
		}
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, nil, SchedulerOptions{})

	in := summerPromo(models.PlatformTiktok)
	in.UseOptimalTime = true
	post, err := s.Create(ctx, 1, in)
	if err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return testNow.Add(time.Minute) }
	title := "Summer Promo (final)"
	when := "2030-07-05T08:15:00Z"
	updated, err := s.Update(ctx, post.ID, &transfer.ScheduledPostUpdate{Title: &title, ScheduledFor: &when})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Description != post.Description {
		t.Errorf("description changed to %q", updated.Description)
	}
	if updated.OptimalTimeApplied {
		t.Error("an explicit time must clear optimal_time_applied")
	}
	if !updated.UpdatedAt.After(post.UpdatedAt) {
		t.Errorf("updated_at was not refreshed")
	}
	if !updated.ScheduledFor.Equal(time.Date(2030, 7, 5, 8, 15, 0, 0, time.UTC)) {
		t.Errorf("scheduled_for = %v", updated.ScheduledFor)
	}
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, Publishers{models.PlatformTiktok: okPublisher("")}, SchedulerOptions{})

	post, err := s.Create(ctx, 1, summerPromo(models.PlatformTiktok, models.PlatformYoutube))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("not found", func(t *testing.T) {
		title := "x"
		_, err := s.Update(ctx, 9999, &transfer.ScheduledPostUpdate{Title: &title})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		platforms := []string{"tiktok", "myspace"}
		_, err := s.Update(ctx, post.ID, &transfer.ScheduledPostUpdate{Platforms: &platforms})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("settings for dropped platform", func(t *testing.T) {
		settings := models.PlatformSettings{Youtube: &models.YoutubeSettings{PrivacyStatus: "private"}}
		if _, err := s.Update(ctx, post.ID, &transfer.ScheduledPostUpdate{PlatformSettings: &settings}); err != nil {
			t.Fatalf("setting youtube settings: %v", err)
		}
		platforms := []string{"tiktok"}
		_, err := s.Update(ctx, post.ID, &transfer.ScheduledPostUpdate{Platforms: &platforms})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing media", func(t *testing.T) {
		missing := int64(9999)
		_, err := s.Update(ctx, post.ID, &transfer.ScheduledPostUpdate{MediaFileID: &missing})
		var rerr *ReferenceError
		if !errors.As(err, &rerr) || rerr.Kind != MediaNotFound {
			t.Errorf("expected media ReferenceError, got %v", err)
		}
	})

	t.Run("published post", func(t *testing.T) {
		if _, err := s.PublishNow(ctx, post.ID); err != nil {
			t.Fatal(err)
		}
		title := "too late"
		_, err := s.Update(ctx, post.ID, &transfer.ScheduledPostUpdate{Title: &title})
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, nil, SchedulerOptions{})

	post, err := s.Create(ctx, 1, summerPromo(models.PlatformTiktok))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestPublishNow(t *testing.T) {
	tests := []struct {
		name       string
		publishers Publishers
		connected  []string
		simulate   bool
		wantStatus string
		wantOK     []bool
		wantSim    []bool
	}{
		{
			name: "all succeed",
			publishers: Publishers{
				models.PlatformTiktok:  okPublisher(""),
				models.PlatformYoutube: okPublisher("https://youtu.be/abc"),
			},
			connected:  []string{models.PlatformTiktok, models.PlatformYoutube},
			wantStatus: models.PostStatusPublished,
			wantOK:     []bool{true, true},
			wantSim:    []bool{false, false},
		},
		{
			name: "partial failure",
			publishers: Publishers{
				models.PlatformTiktok:  okPublisher(""),
				models.PlatformYoutube: failingPublisher("quota exceeded"),
			},
			connected:  []string{models.PlatformTiktok, models.PlatformYoutube},
			wantStatus: models.PostStatusPartiallyPublished,
			wantOK:     []bool{true, false},
			wantSim:    []bool{false, false},
		},
		{
			name: "all fail",
			publishers: Publishers{
				models.PlatformTiktok:  failingPublisher("down"),
				models.PlatformYoutube: failingPublisher("down"),
			},
			connected:  []string{models.PlatformTiktok, models.PlatformYoutube},
			wantStatus: models.PostStatusFailed,
			wantOK:     []bool{false, false},
			wantSim:    []bool{false, false},
		},
		{
			name:       "simulated without accounts",
			publishers: Publishers{models.PlatformTiktok: okPublisher("")},
			simulate:   true,
			wantStatus: models.PostStatusPublished,
			wantOK:     []bool{true, true},
			wantSim:    []bool{true, true},
		},
		{
			name:       "no accounts without simulation",
			publishers: Publishers{models.PlatformTiktok: okPublisher("")},
			wantStatus: models.PostStatusFailed,
			wantOK:     []bool{false, false},
			wantSim:    []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, deps := newTestScheduler(t, tt.publishers, SchedulerOptions{SimulatePublishing: tt.simulate})
			for _, p := range tt.connected {
				connectAccount(t, deps, 1, p)
			}

			post, err := s.Create(ctx, 1, summerPromo(models.PlatformTiktok, models.PlatformYoutube))
			if err != nil {
				t.Fatal(err)
			}

			res, err := s.PublishNow(ctx, post.ID)
			if err != nil {
				t.Fatalf("PublishNow: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status, tt.wantStatus)
			}
			if res.Success != (tt.wantStatus == models.PostStatusPublished) {
				t.Errorf("success = %v for status %q", res.Success, res.Status)
			}
			if len(res.Results) != len(post.Platforms) {
				t.Fatalf("expected %d results, got %d", len(post.Platforms), len(res.Results))
			}
			for i, r := range res.Results {
				if r.Platform != post.Platforms[i] {
					t.Errorf("result %d platform = %q, want %q", i, r.Platform, post.Platforms[i])
				}
				if r.Success != tt.wantOK[i] {
					t.Errorf("result %d success = %v, want %v (%s)", i, r.Success, tt.wantOK[i], r.Message)
				}
				if r.Simulated != tt.wantSim[i] {
					t.Errorf("result %d simulated = %v, want %v", i, r.Simulated, tt.wantSim[i])
				}
			}

			stored, err := s.Get(ctx, post.ID)
			if err != nil {
				t.Fatal(err)
			}
			if stored.Status != tt.wantStatus {
				t.Errorf("stored status = %q, want %q", stored.Status, tt.wantStatus)
			}
			if stored.LastPublishedAt == nil {
				t.Error("expected last_published_at to be set")
			}
			if len(stored.PublishResults) != len(post.Platforms) {
				t.Errorf("expected %d stored results, got %d", len(post.Platforms), len(stored.PublishResults))
			}
		})
	}
}

func TestPublishNowReceiptURL(t *testing.T) {
	ctx := context.Background()
	s, deps := newTestScheduler(t, Publishers{models.PlatformYoutube: okPublisher("https://youtu.be/abc")}, SchedulerOptions{})
	connectAccount(t, deps, 1, models.PlatformYoutube)

	post, err := s.Create(ctx, 1, summerPromo(models.PlatformYoutube))
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.PublishNow(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Results[0].PostURL; got != "https://youtu.be/abc" {
		t.Errorf("post_url = %q", got)
	}
}

func TestPublishNowTimeout(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	hanging := PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		<-release
		return &Receipt{}, nil
	})
	s, deps := newTestScheduler(t, Publishers{
		models.PlatformTiktok:  okPublisher(""),
		models.PlatformYoutube: hanging,
	}, SchedulerOptions{PublishTimeout: 50 * time.Millisecond})
	connectAccount(t, deps, 1, models.PlatformTiktok)
	connectAccount(t, deps, 1, models.PlatformYoutube)

	post, err := s.Create(ctx, 1, summerPromo(models.PlatformTiktok, models.PlatformYoutube))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	res, err := s.PublishNow(ctx, post.ID)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("PublishNow took %v, expected the timeout to bound it", elapsed)
	}
	if res.Status != models.PostStatusPartiallyPublished {
		t.Errorf("status = %q, want partially_published", res.Status)
	}
	if !strings.Contains(res.Results[1].Message, "timed out") {
		t.Errorf("expected a timeout message, got %q", res.Results[1].Message)
	}
}

func TestPublishNowCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	waiting := PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s, deps := newTestScheduler(t, Publishers{models.PlatformYoutube: waiting}, SchedulerOptions{PublishTimeout: time.Minute})
	connectAccount(t, deps, 1, models.PlatformYoutube)

	post, err := s.Create(context.Background(), 1, summerPromo(models.PlatformYoutube))
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		<-started
		cancel()
	}()
	res, err := s.PublishNow(ctx, post.ID)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	msg := res.Results[0].Message
	if !strings.Contains(msg, "cancelled") || strings.Contains(msg, "timed out") {
		t.Errorf("result message = %q, want a cancellation", msg)
	}
	got, _ := s.Get(context.Background(), post.ID)
	if got.Status != models.PostStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
}

func TestPublishNowIsolatesPanics(t *testing.T) {
	ctx := context.Background()
	panicking := PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		panic("boom")
	})
	s, deps := newTestScheduler(t, Publishers{
		models.PlatformTiktok:  panicking,
		models.PlatformYoutube: okPublisher(""),
	}, SchedulerOptions{})
	connectAccount(t, deps, 1, models.PlatformTiktok)
	connectAccount(t, deps, 1, models.PlatformYoutube)

	post, err := s.Create(ctx, 1, summerPromo(models.PlatformTiktok, models.PlatformYoutube))
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.PublishNow(ctx, post.ID)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}
	if res.Results[0].Success {
		t.Error("panicking platform must be recorded as failed")
	}
	if !res.Results[1].Success {
		t.Error("other platform must still succeed")
	}
	if res.Status != models.PostStatusPartiallyPublished {
		t.Errorf("status = %q, want partially_published", res.Status)
	}
}

func TestPublishNowState(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, nil, SchedulerOptions{SimulatePublishing: true})

	if _, err := s.PublishNow(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown post: expected ErrNotFound, got %v", err)
	}

	in := summerPromo(models.PlatformTiktok)
	in.Status = models.PostStatusDraft
	post, err := s.Create(ctx, 1, in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.PublishNow(ctx, post.ID); err != nil {
		t.Fatalf("publishing a draft: %v", err)
	}
	if _, err := s.PublishNow(ctx, post.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("republishing: expected ErrInvalidState, got %v", err)
	}
}

func TestProcessScheduledPosts(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	counting := PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		calls.Add(1)
		return &Receipt{}, nil
	})
	s, deps := newTestScheduler(t, Publishers{models.PlatformTiktok: counting}, SchedulerOptions{})
	connectAccount(t, deps, 1, models.PlatformTiktok)

	create := func(when time.Time, status string) *models.ScheduledPost {
		in := summerPromo(models.PlatformTiktok)
		in.ScheduledFor = when.Format(time.RFC3339)
		in.Status = status
		post, err := s.Create(ctx, 1, in)
		if err != nil {
			t.Fatal(err)
		}
		return post
	}
	due := create(testNow.Add(-time.Minute), models.PostStatusPending)
	exact := create(testNow, models.PostStatusPending)
	future := create(testNow.Add(time.Hour), models.PostStatusPending)
	draft := create(testNow.Add(-time.Hour), models.PostStatusDraft)

	n, err := s.ProcessScheduledPosts(ctx)
	if err != nil {
		t.Fatalf("ProcessScheduledPosts: %v", err)
	}
	if n != 2 {
		t.Errorf("processed %d posts, want 2", n)
	}

	n, err = s.ProcessScheduledPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second sweep processed %d posts, want 0", n)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("publisher called %d times, want 2", got)
	}

	wantStatus := map[int64]string{
		due.ID:    models.PostStatusPublished,
		exact.ID:  models.PostStatusPublished,
		future.ID: models.PostStatusPending,
		draft.ID:  models.PostStatusDraft,
	}
	for id, want := range wantStatus {
		post, err := s.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if post.Status != want {
			t.Errorf("post %d status = %q, want %q", id, post.Status, want)
		}
	}
}

func TestProcessScheduledPostsBatchSize(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, nil, SchedulerOptions{SweepBatchSize: 2, SimulatePublishing: true})

	for i := 0; i < 5; i++ {
		in := summerPromo(models.PlatformTiktok)
		in.ScheduledFor = testNow.Add(-time.Duration(i+1) * time.Minute).Format(time.RFC3339)
		if _, err := s.Create(ctx, 1, in); err != nil {
			t.Fatal(err)
		}
	}

	var total int
	for _, want := range []int{2, 2, 1, 0} {
		n, err := s.ProcessScheduledPosts(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n != want {
			t.Errorf("sweep processed %d, want %d", n, want)
		}
		total += n
	}
	if total != 5 {
		t.Errorf("processed %d posts in total, want 5", total)
	}
}

func TestPublishScheduled(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, nil, SchedulerOptions{SimulatePublishing: true})

	in := summerPromo(models.PlatformTiktok)
	in.ScheduledFor = testNow.Add(time.Hour).Format(time.RFC3339)
	post, err := s.Create(ctx, 1, in)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.PublishScheduled(ctx, post.ID); err != nil {
		t.Fatalf("early PublishScheduled: %v", err)
	}
	if got, _ := s.Get(ctx, post.ID); got.Status != models.PostStatusPending {
		t.Fatalf("early task changed status to %q", got.Status)
	}

	s.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	if err := s.PublishScheduled(ctx, post.ID); err != nil {
		t.Fatalf("PublishScheduled: %v", err)
	}
	got, _ := s.Get(ctx, post.ID)
	if got.Status != models.PostStatusPublished {
		t.Errorf("status = %q, want published", got.Status)
	}

	// stale tasks for finished or deleted posts are no-ops
	if err := s.PublishScheduled(ctx, post.ID); err != nil {
		t.Errorf("stale task: %v", err)
	}
	if err := s.PublishScheduled(ctx, 9999); err != nil {
		t.Errorf("task for deleted post: %v", err)
	}
}

// reschedulingPosts moves a post before the queue worker's claim runs, the
// way a concurrent edit landing between task delivery and claim would.
type reschedulingPosts struct {
	repository.ScheduledPostRepository
	to time.Time
}

func (r *reschedulingPosts) ClaimIfDue(ctx context.Context, id int64, now time.Time) (*models.ScheduledPost, error) {
	post, err := r.ScheduledPostRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	post.ScheduledFor = r.to
	if err := r.ScheduledPostRepository.Update(ctx, post); err != nil {
		return nil, err
	}
	return r.ScheduledPostRepository.ClaimIfDue(ctx, id, now)
}

func TestPublishScheduledAfterReschedule(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	counting := PublisherFunc(func(ctx context.Context, req PublishRequest) (*Receipt, error) {
		calls.Add(1)
		return &Receipt{}, nil
	})
	s, deps := newTestScheduler(t, Publishers{models.PlatformTiktok: counting}, SchedulerOptions{})
	connectAccount(t, deps, 1, models.PlatformTiktok)

	in := summerPromo(models.PlatformTiktok)
	in.ScheduledFor = testNow.Add(-time.Minute).Format(time.RFC3339)
	post, err := s.Create(ctx, 1, in)
	if err != nil {
		t.Fatal(err)
	}

	later := time.Date(2030, 6, 5, 10, 0, 0, 0, time.UTC)
	s.posts = &reschedulingPosts{ScheduledPostRepository: deps.posts, to: later}

	if err := s.PublishScheduled(ctx, post.ID); err != nil {
		t.Fatalf("PublishScheduled: %v", err)
	}
	got, err := deps.posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.PostStatusPending || !got.ScheduledFor.Equal(later) {
		t.Errorf("post = %q at %v, want pending at %v", got.Status, got.ScheduledFor, later)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("publisher called %d times for a post moved to a later time", n)
	}
}

func TestProcessScheduledPostsFailsStaleClaims(t *testing.T) {
	ctx := context.Background()
	s, deps := newTestScheduler(t, nil, SchedulerOptions{SimulatePublishing: true, StaleClaimAfter: 10 * time.Minute})

	create := func() *models.ScheduledPost {
		in := summerPromo(models.PlatformTiktok, models.PlatformYoutube)
		in.ScheduledFor = testNow.Add(-2 * time.Hour).Format(time.RFC3339)
		post, err := s.Create(ctx, 1, in)
		if err != nil {
			t.Fatal(err)
		}
		return post
	}
	stuck, recent := create(), create()
	if _, err := deps.posts.ClaimIfDue(ctx, stuck.ID, testNow.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := deps.posts.ClaimIfDue(ctx, recent.ID, testNow.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	n, err := s.ProcessScheduledPosts(ctx)
	if err != nil {
		t.Fatalf("ProcessScheduledPosts: %v", err)
	}
	if n != 0 {
		t.Errorf("processed %d posts, want 0", n)
	}

	got, _ := s.Get(ctx, stuck.ID)
	if got.Status != models.PostStatusFailed {
		t.Errorf("stuck post status = %q, want failed", got.Status)
	}
	if len(got.PublishResults) != 2 || !strings.Contains(got.PublishResults[0].Message, "interrupted") {
		t.Errorf("stuck post results = %+v", got.PublishResults)
	}
	if got, _ := s.Get(ctx, recent.ID); got.Status != models.PostStatusPublishing {
		t.Errorf("recent claim status = %q, want publishing", got.Status)
	}
}

func TestStaleClaimAfterDefault(t *testing.T) {
	s := NewSchedulerService(nil, nil, nil, nil, nil, SchedulerOptions{PublishTimeout: 10 * time.Second}).(*schedulerService)
	want := 20 * time.Second * time.Duration(len(models.Platforms))
	if s.opts.StaleClaimAfter != want {
		t.Errorf("StaleClaimAfter = %v, want %v", s.opts.StaleClaimAfter, want)
	}
}

func TestBestTimesForPlatform(t *testing.T) {
	for _, p := range models.Platforms {
		hours, err := BestTimesForPlatform(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if len(hours) == 0 {
			t.Errorf("%s: no hours", p)
		}
		for i, h := range hours {
			if h < 0 || h > 23 {
				t.Errorf("%s: hour %d out of range", p, h)
			}
			if i > 0 && h <= hours[i-1] {
				t.Errorf("%s: hours not ascending: %v", p, hours)
			}
		}
	}

	first, _ := BestTimesForPlatform(models.PlatformTiktok)
	first[0] = 99
	second, _ := BestTimesForPlatform(models.PlatformTiktok)
	if second[0] == 99 {
		t.Error("callers must not be able to change the table")
	}

	if _, err := BestTimesForPlatform("myspace"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestFinalStatus(t *testing.T) {
	ok := models.PublishResult{Success: true}
	failed := models.PublishResult{}

	tests := []struct {
		name    string
		results []models.PublishResult
		want    string
	}{
		{"none", nil, models.PostStatusFailed},
		{"all ok", []models.PublishResult{ok, ok}, models.PostStatusPublished},
		{"some ok", []models.PublishResult{ok, failed}, models.PostStatusPartiallyPublished},
		{"all failed", []models.PublishResult{failed, failed}, models.PostStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finalStatus(tt.results); got != tt.want {
				t.Errorf("finalStatus = %q, want %q", got, tt.want)
			}
		})
	}
}
