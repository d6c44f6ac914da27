package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/maheshrc27/creatoraide/internal/metrics"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/internal/transfer"
)

type SchedulerService interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.ScheduledPost, error)
	Get(ctx context.Context, id int64) (*models.ScheduledPost, error)
	Create(ctx context.Context, ownerID int64, in *transfer.ScheduledPostCreation) (*models.ScheduledPost, error)
	Update(ctx context.Context, id int64, patch *transfer.ScheduledPostUpdate) (*models.ScheduledPost, error)
	Delete(ctx context.Context, id int64) error
	PublishNow(ctx context.Context, id int64) (*transfer.PublishResponse, error)
	ProcessScheduledPosts(ctx context.Context) (int, error)
	PublishScheduled(ctx context.Context, id int64) error
}

type SchedulerOptions struct {
	PublishTimeout     time.Duration
	PublishConcurrency int
	SweepBatchSize     int
	// StaleClaimAfter is how long a post may stay in publishing before the
	// sweep marks it failed.
	StaleClaimAfter    time.Duration
	// SimulatePublishing records a simulated success for platforms without
	// a publisher or a connected account instead of a failure.
	SimulatePublishing bool
}

type schedulerService struct {
	posts      repository.ScheduledPostRepository
	drafts     repository.ContentDraftRepository
	media      repository.MediaFileRepository
	accounts   repository.SocialAccountRepository
	publishers Publishers
	opts       SchedulerOptions
	locks      *keyedMutex
	now        func() time.Time
}

func NewSchedulerService(
	posts repository.ScheduledPostRepository,
	drafts repository.ContentDraftRepository,
	media repository.MediaFileRepository,
	accounts repository.SocialAccountRepository,
	publishers Publishers,
	opts SchedulerOptions) SchedulerService {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 30 * time.Second
	}
	if opts.PublishConcurrency <= 0 {
		opts.PublishConcurrency = 10
	}
	if opts.SweepBatchSize <= 0 {
		opts.SweepBatchSize = 50
	}
	if opts.StaleClaimAfter <= 0 {
		opts.StaleClaimAfter = 2 * opts.PublishTimeout * time.Duration(len(models.Platforms))
	}
	return &schedulerService{
		posts:      posts,
		drafts:     drafts,
		media:      media,
		accounts:   accounts,
		publishers: publishers,
		opts:       opts,
		locks:      newKeyedMutex(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *schedulerService) ListByOwner(ctx context.Context, ownerID int64) ([]*models.ScheduledPost, error) {
	posts, err := s.posts.ListByUserID(ctx, ownerID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("listing scheduled posts: %w", err)
	}
	return posts, nil
}

func (s *schedulerService) Get(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("getting scheduled post %d: %w", id, err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *schedulerService) Create(ctx context.Context, ownerID int64, in *transfer.ScheduledPostCreation) (*models.ScheduledPost, error) {
	if in == nil {
		return nil, errors.New("scheduled post input is nil")
	}
	if err := in.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	timeZone := in.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}
	scheduledFor, err := transfer.ParseScheduledTime(in.ScheduledFor, timeZone)
	if err != nil {
		return nil, &ValidationError{Fields: v.Errors{"scheduled_for": err}}
	}

	if err := s.checkReferences(ctx, ownerID, in.ContentDraftID, in.MediaFileID); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusPending
	}

	now := s.now()
	post := &models.ScheduledPost{
		UserID:           ownerID,
		Title:            in.Title,
		Description:      in.Description,
		Content:          in.Content,
		ThumbnailURL:     in.ThumbnailURL,
		Platforms:        append([]string(nil), in.Platforms...),
		ScheduledFor:     scheduledFor,
		TimeZone:         timeZone,
		Status:           status,
		ContentDraftID:   in.ContentDraftID,
		MediaFileID:      in.MediaFileID,
		PlatformSettings: in.PlatformSettings.Clone(),
		RepeatSchedule:   in.RepeatSchedule,
		PublishResults:   []models.PublishResult{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if in.UseOptimalTime {
		loc, _ := transfer.LoadTimeZone(timeZone)
		best, err := nextBestTime(scheduledFor, loc, post.Platforms[0])
		if err != nil {
			return nil, err
		}
		post.ScheduledFor = best
		post.OptimalTimeApplied = true
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("creating scheduled post: %w", err)
	}

	slog.Info("scheduled post created",
		"post_id", post.ID,
		"user_id", ownerID,
		"platforms", post.Platforms,
		"scheduled_for", post.ScheduledFor)

	return post, nil
}

func (s *schedulerService) Update(ctx context.Context, id int64, patch *transfer.ScheduledPostUpdate) (*models.ScheduledPost, error) {
	if patch == nil {
		return nil, errors.New("scheduled post patch is nil")
	}
	if err := patch.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.Editable(post.Status) {
		return nil, ErrInvalidState
	}

	if err := s.checkReferences(ctx, post.UserID, patch.ContentDraftID, patch.MediaFileID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Description != nil {
		post.Description = *patch.Description
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.ThumbnailURL != nil {
		post.ThumbnailURL = *patch.ThumbnailURL
	}
	if patch.Platforms != nil {
		post.Platforms = append([]string(nil), (*patch.Platforms)...)
	}
	if patch.TimeZone != nil {
		post.TimeZone = *patch.TimeZone
		if post.TimeZone == "" {
			post.TimeZone = "UTC"
		}
	}
	if patch.ScheduledFor != nil {
		t, err := transfer.ParseScheduledTime(*patch.ScheduledFor, post.TimeZone)
		if err != nil {
			return nil, &ValidationError{Fields: v.Errors{"scheduled_for": err}}
		}
		post.ScheduledFor = t
		post.OptimalTimeApplied = false
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	if patch.ContentDraftID != nil {
		post.ContentDraftID = patch.ContentDraftID
	}
	if patch.MediaFileID != nil {
		post.MediaFileID = patch.MediaFileID
	}
	if patch.PlatformSettings != nil {
		post.PlatformSettings = patch.PlatformSettings.Clone()
	}
	if patch.RepeatSchedule != nil {
		post.RepeatSchedule = *patch.RepeatSchedule
	}

	// settings and platforms may have been patched independently
	if err := transfer.SettingsForPlatforms(post.Platforms)(post.PlatformSettings); err != nil {
		return nil, &ValidationError{Fields: v.Errors{"platform_settings": err}}
	}

	post.UpdatedAt = s.now()
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			// claimed by the sweep or deleted since it was read
			return nil, ErrInvalidState
		}
		slog.Info(err.Error())
		return nil, fmt.Errorf("updating scheduled post %d: %w", id, err)
	}

	return post, nil
}

func (s *schedulerService) Delete(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.posts.Remove(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrNotFound
		}
		slog.Info(err.Error())
		return fmt.Errorf("deleting scheduled post %d: %w", id, err)
	}

	slog.Info("scheduled post deleted", "post_id", id)
	return nil
}

func (s *schedulerService) PublishNow(ctx context.Context, id int64) (*transfer.PublishResponse, error) {
	unlock := s.locks.Lock(id)
	post, err := s.posts.Claim(ctx, id, models.PostStatusPending, models.PostStatusDraft)
	unlock()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("claiming scheduled post %d: %w", id, err)
	}
	if post == nil {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidState
	}

	return s.publish(ctx, post), nil
}

// PublishScheduled publishes a post delivered by the delay queue. Posts that
// are no longer pending, or were rescheduled to a later time, are skipped.
func (s *schedulerService) PublishScheduled(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	claimed, err := s.posts.ClaimIfDue(ctx, id, s.now())
	unlock()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("claiming scheduled post %d: %w", id, err)
	}
	if claimed == nil {
		slog.Info("skipping queued publish", "post_id", id)
		return nil
	}

	s.publish(ctx, claimed)
	return nil
}

func (s *schedulerService) ProcessScheduledPosts(ctx context.Context) (int, error) {
	metrics.SweepRuns.Inc()

	s.failStale(ctx)

	due, err := s.posts.ClaimDue(ctx, s.now(), s.opts.SweepBatchSize)
	if err != nil {
		slog.Error("claiming due posts failed", "error", err)
		return 0, fmt.Errorf("claiming due posts: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}
	metrics.SweepClaimed.Add(float64(len(due)))

	for _, post := range due {
		s.publish(ctx, post)
	}

	slog.Info("scheduled posts processed", "count", len(due))
	return len(due), nil
}

// failStale fails posts left in publishing by a process that died mid-publish.
func (s *schedulerService) failStale(ctx context.Context) {
	now := s.now()
	n, err := s.posts.FailStale(ctx, now.Add(-s.opts.StaleClaimAfter), now, "Publishing was interrupted before it finished")
	if err != nil {
		slog.Error("failing stale posts failed", "error", err)
		return
	}
	if n > 0 {
		metrics.StalePostsFailed.Add(float64(n))
		slog.Warn("stale publishing posts marked failed", "count", n)
	}
}

// publish fans a claimed post out to its platforms and stores the outcome.
// Platform failures are recorded in the results and never returned.
func (s *schedulerService) publish(ctx context.Context, post *models.ScheduledPost) *transfer.PublishResponse {
	media := s.loadMedia(ctx, post)

	results := make([]models.PublishResult, len(post.Platforms))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.opts.PublishConcurrency)

	for i, platform := range post.Platforms {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, platform string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = s.publishTo(ctx, post, media, platform)
		}(i, platform)
	}
	wg.Wait()

	status := finalStatus(results)
	// the outcome must be stored even if the caller went away
	if err := s.posts.SaveResults(context.WithoutCancel(ctx), post.ID, status, results, s.now()); err != nil {
		slog.Error("saving publish results failed", "post_id", post.ID, "error", err)
	}
	metrics.PostsFinished.WithLabelValues(status).Inc()

	slog.Info("scheduled post published", "post_id", post.ID, "status", status)

	return &transfer.PublishResponse{
		Success: status == models.PostStatusPublished,
		Status:  status,
		Results: results,
	}
}

type publishOutcome struct {
	receipt *Receipt
	err     error
}

func (s *schedulerService) publishTo(ctx context.Context, post *models.ScheduledPost, media *models.MediaFile, platform string) (result models.PublishResult) {
	start := time.Now()
	outcome := "failure"
	defer func() {
		if r := recover(); r != nil {
			slog.Error("publisher panicked", "post_id", post.ID, "platform", platform, "panic", r)
			result = failedResult(platform, s.now(), fmt.Sprintf("Internal error publishing to %s", platform))
			outcome = "failure"
		}
		metrics.PublishAttempts.WithLabelValues(platform, outcome).Inc()
		metrics.PublishDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
	}()

	publisher, ok := s.publishers[platform]
	var acc *models.SocialAccount
	if ok {
		var err error
		acc, err = s.accounts.GetByPlatform(ctx, post.UserID, platform)
		if err != nil {
			slog.Info(err.Error())
			return failedResult(platform, s.now(), fmt.Sprintf("Could not load the %s account", platform))
		}
	}
	if !ok || acc == nil {
		if s.opts.SimulatePublishing {
			outcome = "simulated"
			return simulatedResult(platform, s.now())
		}
		if !ok {
			return failedResult(platform, s.now(), fmt.Sprintf("Publishing to %s is not supported", platform))
		}
		return failedResult(platform, s.now(), fmt.Sprintf("%s: %s", ErrAccountNotConnected.Error(), platform))
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.PublishTimeout)
	defer cancel()

	done := make(chan publishOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- publishOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		receipt, err := publisher.Publish(pctx, PublishRequest{Post: post, Media: media, Account: acc})
		done <- publishOutcome{receipt: receipt, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			if ctx.Err() != nil {
				outcome = "cancelled"
				return cancelledResult(platform, s.now(), post.ID, ctx.Err())
			}
			slog.Info("publish failed", "post_id", post.ID, "platform", platform, "error", o.err)
			return failedResult(platform, s.now(), fmt.Sprintf("Failed to publish to %s: %v", platform, o.err))
		}
		outcome = "success"
		res := models.PublishResult{
			Platform:  platform,
			Success:   true,
			Timestamp: s.now(),
			Message:   fmt.Sprintf("Published to %s", platform),
		}
		if o.receipt != nil {
			res.PostURL = o.receipt.PostURL
			if o.receipt.Message != "" {
				res.Message = o.receipt.Message
			}
		}
		return res
	case <-pctx.Done():
		if ctx.Err() != nil {
			outcome = "cancelled"
			return cancelledResult(platform, s.now(), post.ID, ctx.Err())
		}
		outcome = "timeout"
		slog.Info("publish timed out", "post_id", post.ID, "platform", platform)
		return failedResult(platform, s.now(), fmt.Sprintf("Publishing to %s timed out after %s", platform, s.opts.PublishTimeout))
	}
}

func (s *schedulerService) loadMedia(ctx context.Context, post *models.ScheduledPost) *models.MediaFile {
	if post.MediaFileID == nil {
		return nil
	}
	media, err := s.media.GetByID(ctx, *post.MediaFileID)
	if err != nil {
		slog.Info(err.Error())
		return nil
	}
	return media
}

// checkReferences makes sure linked drafts and media exist and belong to ownerID.
func (s *schedulerService) checkReferences(ctx context.Context, ownerID int64, draftID, mediaID *int64) error {
	if draftID != nil {
		draft, err := s.drafts.GetByID(ctx, *draftID)
		if err != nil {
			return fmt.Errorf("checking content draft %d: %w", *draftID, err)
		}
		if draft == nil || draft.UserID != ownerID {
			return &ReferenceError{Kind: DraftNotFound, ID: *draftID}
		}
	}
	if mediaID != nil {
		media, err := s.media.GetByID(ctx, *mediaID)
		if err != nil {
			return fmt.Errorf("checking media file %d: %w", *mediaID, err)
		}
		if media == nil || media.UserID != ownerID {
			return &ReferenceError{Kind: MediaNotFound, ID: *mediaID}
		}
	}
	return nil
}

func failedResult(platform string, now time.Time, message string) models.PublishResult {
	return models.PublishResult{
		Platform:  platform,
		Success:   false,
		Timestamp: now,
		Message:   message,
	}
}

// cancelledResult reports a publish abandoned because the caller's context ended.
func cancelledResult(platform string, now time.Time, postID int64, cause error) models.PublishResult {
	slog.Info("publish cancelled", "post_id", postID, "platform", platform, "error", cause)
	return failedResult(platform, now, fmt.Sprintf("Publishing to %s was cancelled", platform))
}

func finalStatus(results []models.PublishResult) string {
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	switch {
	case len(results) > 0 && succeeded == len(results):
		return models.PostStatusPublished
	case succeeded > 0:
		return models.PostStatusPartiallyPublished
	default:
		return models.PostStatusFailed
	}
}

// keyedMutex serializes work per post id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*keyedLock)}
}

func (k *keyedMutex) Lock(id int64) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &keyedLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
