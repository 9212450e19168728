package queue

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueDispatchPass schedules one dispatch pass. Passes are unique for
// uniqueFor, so a slow pass is never overlapped by the next tick's task.
func EnqueueDispatchPass(client Enqueuer, uniqueFor time.Duration) error {
	task := asynq.NewTask(TaskTypeDispatchPass, nil)

	_, err := client.Enqueue(task,
		asynq.Unique(uniqueFor),
		asynq.MaxRetry(0),
		asynq.Timeout(uniqueFor*5),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Info("dispatch pass already queued")
		return nil
	}
	return err
}

func EnqueueReply(client Enqueuer, payload ProcessReplyPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeProcessReply, taskPayload)

	if _, err := client.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		return err
	}

	slog.Info("reply task queued", "thread_reply_id", payload.ThreadReplyID)
	return nil
}
