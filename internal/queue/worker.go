package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/threadflow/internal/service"
)

func (q *Queue) HandleDispatchPassTask(ctx context.Context, task *asynq.Task) error {
	summary, err := q.dispatcher.RunDispatchPass(ctx, q.now())
	if err != nil {
		return err
	}

	if summary.PostsChecked > 0 || summary.AutoScheduled > 0 {
		slog.Info("dispatch task done", "published", summary.Published, "failed", summary.Failed,
			"retried", summary.Retried, "auto_scheduled", summary.AutoScheduled)
	}
	return nil
}

func (q *Queue) HandleProcessReplyTask(ctx context.Context, task *asynq.Task) error {
	var payload ProcessReplyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reply payload: %v: %w", err, asynq.SkipRetry)
	}

	decision, err := q.replies.Process(ctx, payload.ThreadReplyID)
	if err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) || errors.Is(err, service.ErrPersonaNotConnected) ||
			errors.Is(err, service.ErrInvalidCredential) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	slog.Info("reply task done", "thread_reply_id", payload.ThreadReplyID, "replied", decision.Reply, "source", decision.Source)
	return nil
}
