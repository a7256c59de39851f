package worker

import (
	"context"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ContactSyncWorker periodically schedules a pull reconciliation of every
// active org. The work itself runs on the task queue.
//
// Architecture assumptions:
//   - Single scheduler instance; running several only submits redundant syncs,
//     which are idempotent
type ContactSyncWorker struct {
	queue    interfaces.TaskQueue
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewContactSyncWorker creates a worker submitting a sync task every interval
func NewContactSyncWorker(queue interfaces.TaskQueue, interval time.Duration) *ContactSyncWorker {
	return &ContactSyncWorker{
		queue:    queue,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start submits the first sync immediately and then every interval.
// It does not block server startup.
func (w *ContactSyncWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("sync interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Contact sync worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ContactSyncWorker) Stop() {
	logging.Default().Info("Contact sync worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Contact sync worker stopped")
}

func (w *ContactSyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.schedule(ctx); err != nil {
		logging.Default().Error("Initial contact sync scheduling failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.schedule(ctx); err != nil {
				logging.Default().Error("Contact sync scheduling failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Contact sync worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Contact sync worker context cancelled")
			return
		}
	}
}

func (w *ContactSyncWorker) schedule(ctx context.Context) error {
	task := model.NewSyncAllTask()
	if err := w.queue.Submit(ctx, task); err != nil {
		return goerr.Wrap(err, "failed to submit contact sync task", goerr.V("task_id", task.ID))
	}

	logging.Default().Info("Contact sync scheduled", "task_id", task.ID)
	return nil
}
