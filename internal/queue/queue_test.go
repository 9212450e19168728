package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/threadflow/internal/service"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type fakeDispatcher struct {
	at  time.Time
	err error
}

func (f *fakeDispatcher) RunDispatchPass(_ context.Context, now time.Time) (*service.Summary, error) {
	f.at = now
	if f.err != nil {
		return nil, f.err
	}
	return &service.Summary{Timestamp: now}, nil
}

type fakeReplies struct {
	got uuid.UUID
	err error
}

func (f *fakeReplies) Process(_ context.Context, id uuid.UUID) (service.Decision, error) {
	f.got = id
	return service.Decision{}, f.err
}

func TestEnqueueDispatchPass(t *testing.T) {
	client := &fakeEnqueuer{}
	if err := EnqueueDispatchPass(client, time.Minute); err != nil {
		t.Fatalf("EnqueueDispatchPass: %v", err)
	}
	if len(client.tasks) != 1 || client.tasks[0].Type() != TaskTypeDispatchPass {
		t.Fatalf("tasks = %v", client.tasks)
	}
	if len(client.opts[0]) != 3 {
		t.Errorf("options = %d, want unique, max retry and timeout", len(client.opts[0]))
	}

	dup := &fakeEnqueuer{err: asynq.ErrDuplicateTask}
	if err := EnqueueDispatchPass(dup, time.Minute); err != nil {
		t.Errorf("duplicate pass err = %v, want nil", err)
	}
}

func TestEnqueueReply(t *testing.T) {
	client := &fakeEnqueuer{}
	id := uuid.New()
	if err := EnqueueReply(client, ProcessReplyPayload{ThreadReplyID: id}); err != nil {
		t.Fatalf("EnqueueReply: %v", err)
	}

	var payload ProcessReplyPayload
	if err := json.Unmarshal(client.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ThreadReplyID != id {
		t.Errorf("payload id = %s, want %s", payload.ThreadReplyID, id)
	}
}

func TestHandleDispatchPassTask(t *testing.T) {
	d := &fakeDispatcher{}
	q := NewQueue(d, &fakeReplies{})
	at := time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)
	q.now = func() time.Time { return at }

	if err := q.HandleDispatchPassTask(context.Background(), asynq.NewTask(TaskTypeDispatchPass, nil)); err != nil {
		t.Fatalf("HandleDispatchPassTask: %v", err)
	}
	if !d.at.Equal(at) {
		t.Errorf("pass time = %v, want %v", d.at, at)
	}

	d.err = errors.New("scan failed")
	if err := q.HandleDispatchPassTask(context.Background(), asynq.NewTask(TaskTypeDispatchPass, nil)); err == nil {
		t.Errorf("scan failure swallowed")
	}
}

func TestHandleProcessReplyTask(t *testing.T) {
	id := uuid.New()
	body, _ := json.Marshal(ProcessReplyPayload{ThreadReplyID: id})

	tests := []struct {
		name      string
		payload   []byte
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{"ok", body, nil, false, false},
		{"bad payload", []byte("{"), nil, true, true},
		{"persona gone", body, service.ErrPersonaNotFound, true, true},
		{"not connected", body, service.ErrPersonaNotConnected, true, true},
		{"transient", body, errors.New("timeout"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := &fakeReplies{err: tt.err}
			q := NewQueue(&fakeDispatcher{}, replies)

			err := q.HandleProcessReplyTask(context.Background(), asynq.NewTask(TaskTypeProcessReply, tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, asynq.SkipRetry) != tt.skipRetry {
				t.Errorf("skip retry = %v, want %v", errors.Is(err, asynq.SkipRetry), tt.skipRetry)
			}
			if tt.name == "ok" && replies.got != id {
				t.Errorf("processed %s, want %s", replies.got, id)
			}
		})
	}
}
