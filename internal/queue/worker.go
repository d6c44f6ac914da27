package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/creatoraide/internal/metrics"
	"github.com/maheshrc27/creatoraide/internal/service"
)

type Worker struct {
	scheduler service.SchedulerService
}

func NewWorker(scheduler service.SchedulerService) *Worker {
	return &Worker{scheduler: scheduler}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeSchedulePost, w.HandleSchedulePostTask)
}

func (w *Worker) HandleSchedulePostTask(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		metrics.QueueTasks.WithLabelValues("failed").Inc()
		return fmt.Errorf("decoding payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.scheduler.PublishScheduled(ctx, payload.PostID); err != nil {
		metrics.QueueTasks.WithLabelValues("failed").Inc()
		return err
	}

	metrics.QueueTasks.WithLabelValues("processed").Inc()
	return nil
}
