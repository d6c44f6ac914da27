package job

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// NewCron registers the sweep and token refresh jobs. Runs of the same job
// never overlap; a panic in one run is logged and does not stop the schedule.
func NewCron(sweep *PublishSweepJob, sweepEvery time.Duration, refresh *TokenRefreshJob, refreshEvery time.Duration) (*cron.Cron, error) {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	if _, err := c.AddFunc(every(sweepEvery), sweep.ProcessDue); err != nil {
		return nil, fmt.Errorf("scheduling publish sweep: %w", err)
	}
	if refresh != nil {
		if _, err := c.AddFunc(every(refreshEvery), refresh.RefreshTokens); err != nil {
			return nil, fmt.Errorf("scheduling token refresh: %w", err)
		}
	}
	return c, nil
}

func every(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return fmt.Sprintf("@every %s", d)
}
