package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
)

const defaultActivityLimit = 50

// ActivityLogger records state transitions. Appending never fails the caller.
type ActivityLogger struct {
	repo repository.ActivityLogRepository
}

func NewActivityLogger(repo repository.ActivityLogRepository) *ActivityLogger {
	return &ActivityLogger{repo: repo}
}

func (l *ActivityLogger) Append(ctx context.Context, entry *models.ActivityLog) {
	if err := l.repo.Insert(ctx, entry); err != nil {
		slog.Error("failed to append activity log", "action", entry.ActionType, "user_id", entry.UserID, "error", err)
	}
}

func (l *ActivityLogger) List(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultActivityLimit
	}
	return l.repo.ListByUserID(ctx, userID, limit)
}

// excerpt shortens post content for activity descriptions.
func excerpt(content string) string {
	r := []rune(content)
	if len(r) <= 50 {
		return content
	}
	return string(r[:50]) + "..."
}
