package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/threadflow/internal/service"
)

const (
	TaskTypeDispatchPass = "dispatch:pass"
	TaskTypeProcessReply = "reply:process"
)

type ProcessReplyPayload struct {
	ThreadReplyID uuid.UUID `json:"thread_reply_id"`
}

// Enqueuer is the part of *asynq.Client the queue needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type DispatchRunner interface {
	RunDispatchPass(ctx context.Context, now time.Time) (*service.Summary, error)
}

type ReplyProcessor interface {
	Process(ctx context.Context, threadReplyID uuid.UUID) (service.Decision, error)
}

type Queue struct {
	dispatcher DispatchRunner
	replies    ReplyProcessor
	now        func() time.Time
}

func NewQueue(dispatcher DispatchRunner, replies ReplyProcessor) *Queue {
	return &Queue{
		dispatcher: dispatcher,
		replies:    replies,
		now:        time.Now,
	}
}

// Register wires the task handlers into an asynq mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeDispatchPass, q.HandleDispatchPassTask)
	mux.HandleFunc(TaskTypeProcessReply, q.HandleProcessReplyTask)
}
