package workers

import (
	"context"
	"time"

	"github.com/ikarpovich/study-sync/internal/service"
)

// probeWorker periodically re-checks endpoint availability so the connection
// state reflects servers coming and going without waiting for a sync cycle.
type probeWorker struct {
	remote   service.Remote
	interval time.Duration
}

// NewProbeWorker returns a [Worker] that refreshes the connection state every
// interval (default 30 seconds).
func NewProbeWorker(remote service.Remote, interval time.Duration) Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &probeWorker{remote: remote, interval: interval}
}

func (w *probeWorker) Run(ctx context.Context) {
	go func() {
		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				w.remote.Probe(ctx)
			}
		}
	}()
}
