package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/creatoraide/internal/service"
)

type TokenRefreshJob struct {
	ps     service.PlatformService
	window time.Duration
}

// NewTokenRefreshJob refreshes social account tokens that expire within window.
func NewTokenRefreshJob(ps service.PlatformService, window time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		ps:     ps,
		window: window,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := j.ps.RefreshExpiring(ctx, j.window)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if n > 0 {
		slog.Info("social account tokens refreshed", "count", n)
	}
}
