package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/creatoraide/internal/service"
)

// PublishSweepJob publishes pending posts whose scheduled time has passed.
// It is the fallback when the delay queue is not configured or a task was lost.
type PublishSweepJob struct {
	scheduler service.SchedulerService
	ctx       context.Context
}

func NewPublishSweepJob(ctx context.Context, scheduler service.SchedulerService) *PublishSweepJob {
	return &PublishSweepJob{scheduler: scheduler, ctx: ctx}
}

func (j *PublishSweepJob) ProcessDue() {
	start := time.Now()
	n, err := j.scheduler.ProcessScheduledPosts(j.ctx)
	if err != nil {
		slog.Error("publish sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("publish sweep finished", "published", n, "took", time.Since(start))
	}
}
