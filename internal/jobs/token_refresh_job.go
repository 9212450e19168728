package job

import (
	"context"
	"log/slog"
	"time"
)

type TokenRefresher interface {
	RefreshExpiring(ctx context.Context, now time.Time) (int, error)
}

type TokenRefreshJob struct {
	refresher TokenRefresher
}

func NewTokenRefreshJob(refresher TokenRefresher) *TokenRefreshJob {
	return &TokenRefreshJob{refresher: refresher}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	n, err := c.refresher.RefreshExpiring(ctx, time.Now())
	if err != nil {
		slog.Error("token refresh job failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("threads tokens refreshed", "count", n)
	}
}
