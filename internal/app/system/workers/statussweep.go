// internal/app/system/workers/statussweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	campstore "github.com/openblood/donorhub/internal/app/store/camps"
	requeststore "github.com/openblood/donorhub/internal/app/store/requests"
)

// StatusSweep is a background worker that rolls time-driven statuses
// forward: overdue pending requests expire, camps move scheduled →
// ongoing → completed. List paths sweep on demand too; the worker keeps
// stored statuses fresh for documents nobody is reading.
type StatusSweep struct {
	requests *requeststore.Store
	camps    *campstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStatusSweep creates a new status sweep worker.
func NewStatusSweep(requests *requeststore.Store, camps *campstore.Store, logger *zap.Logger, interval time.Duration) *StatusSweep {
	return &StatusSweep{
		requests: requests,
		camps:    camps,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *StatusSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("status sweep worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StatusSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("status sweep worker stopped")
}

func (w *StatusSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *StatusSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.requests.SweepExpired(ctx); err != nil {
		w.log.Error("sweep expired requests", zap.Error(err))
	}
	if err := w.camps.SweepStatuses(ctx); err != nil {
		w.log.Error("sweep camp statuses", zap.Error(err))
	}
}
