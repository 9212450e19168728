package job

import (
	"log/slog"
	"time"

	"github.com/maheshrc27/threadflow/internal/queue"
)

// DispatchJob is the cron tick that queues a dispatch pass.
type DispatchJob struct {
	client   queue.Enqueuer
	interval time.Duration
}

func NewDispatchJob(client queue.Enqueuer, interval time.Duration) *DispatchJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DispatchJob{client: client, interval: interval}
}

func (j *DispatchJob) Tick() {
	if err := queue.EnqueueDispatchPass(j.client, j.interval); err != nil {
		slog.Error("failed to queue dispatch pass", "error", err)
	}
}
