package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/creatoraide/internal/metrics"
)

const TaskTypeSchedulePost = "schedule:post"

type SchedulePostPayload struct {
	PostID int64 `json:"post_id"`
}

// Enqueuer schedules a post to be published at a given time.
type Enqueuer interface {
	EnqueuePost(ctx context.Context, postID int64, at time.Time) error
}

type Queue struct {
	client *asynq.Client
}

func NewQueue(client *asynq.Client) *Queue {
	return &Queue{client: client}
}

// EnqueuePost adds a delayed publish task. A task id per post and time makes
// repeated enqueues of the same schedule a no-op; tasks left behind by a
// reschedule are skipped by the worker.
func (q *Queue) EnqueuePost(ctx context.Context, postID int64, at time.Time) error {
	payload, err := json.Marshal(SchedulePostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSchedulePost, payload)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.TaskID(fmt.Sprintf("post:%d:%d", postID, at.Unix())),
		asynq.MaxRetry(3),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	metrics.QueueTasks.WithLabelValues("enqueued").Inc()
	slog.Info("task scheduled", "post_id", postID, "process_at", at)
	return nil
}
