package workers

import (
	"context"
	"time"

	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/service"
)

// drainWorker retries the offline queue between full sync cycles so queued
// mutations reach the server as soon as an endpoint is back.
type drainWorker struct {
	syncService service.ClientSyncService
	interval    time.Duration
	logger      *logger.Logger
}

// NewDrainWorker returns a [Worker] that drains due queue items every
// interval (default 15 seconds).
func NewDrainWorker(syncService service.ClientSyncService, interval time.Duration, log *logger.Logger) Worker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &drainWorker{syncService: syncService, interval: interval, logger: log}
}

func (w *drainWorker) Run(ctx context.Context) {
	go func() {
		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				drained, err := w.syncService.Drain(ctx)
				if err != nil {
					w.logger.Warn().
						Str("func", "drainWorker.Run").
						Err(err).
						Msg("queue drain stopped on failure")
					continue
				}
				if drained > 0 {
					w.logger.Debug().
						Str("func", "drainWorker.Run").
						Int("drained", drained).
						Msg("offline queue drained")
				}
			}
		}
	}()
}
