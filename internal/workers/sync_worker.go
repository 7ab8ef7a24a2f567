package workers

import (
	"context"
	"time"

	"github.com/ikarpovich/study-sync/internal/service"
)

// syncWorker starts the periodic full-sync job.
type syncWorker struct {
	job      service.ClientSyncJob
	interval time.Duration
}

// NewSyncWorker wraps the client sync job as a [Worker].
func NewSyncWorker(job service.ClientSyncJob, interval time.Duration) Worker {
	return &syncWorker{job: job, interval: interval}
}

func (w *syncWorker) Run(ctx context.Context) {
	w.job.Start(ctx, w.interval)
}
