package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PublishAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatoraide_publish_attempts_total",
			Help: "Per-platform publish attempts by outcome (success, simulated, failure, timeout, cancelled).",
		},
		[]string{"platform", "outcome"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatoraide_publish_duration_seconds",
			Help:    "Time spent publishing a post to one platform.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)

	PostsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatoraide_posts_finished_total",
			Help: "Scheduled posts that reached a terminal status.",
		},
		[]string{"status"},
	)

	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creatoraide_sweep_runs_total",
		Help: "Executions of the scheduled post sweep.",
	})

	SweepClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creatoraide_sweep_claimed_posts_total",
		Help: "Due posts claimed by the sweep.",
	})

	StalePostsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creatoraide_stale_posts_failed_total",
		Help: "Posts stuck in publishing that the sweep marked failed.",
	})

	QueueTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatoraide_queue_tasks_total",
			Help: "Delayed publish tasks by event (enqueued, processed, failed).",
		},
		[]string{"event"},
	)
)
