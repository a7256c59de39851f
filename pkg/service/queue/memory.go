package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/async"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
)

// Memory runs tasks on goroutines of the current process. Tasks pending at
// shutdown are lost.
type Memory struct {
	router *Router
	policy RetryPolicy
	group  async.Group
}

var _ interfaces.TaskQueue = &Memory{}

type MemoryOption func(*Memory)

func WithMemoryRetryPolicy(p RetryPolicy) MemoryOption {
	return func(m *Memory) {
		m.policy = p
	}
}

func NewMemory(router *Router, opts ...MemoryOption) *Memory {
	m := &Memory{
		router: router,
		policy: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Submit(ctx context.Context, task *model.Task) error {
	if err := task.Validate(); err != nil {
		return goerr.Wrap(err, "invalid task")
	}

	t := *task
	m.group.Dispatch(ctx, func(ctx context.Context) error {
		return m.run(ctx, &t)
	})
	return nil
}

func (m *Memory) run(ctx context.Context, task *model.Task) error {
	logger := logging.From(ctx).With(slog.String("task_id", string(task.ID)), slog.String("task", task.Name.String()))
	ctx = logging.With(ctx, logger)

	op := func() (struct{}, error) {
		task.Attempt++
		return struct{}{}, m.router.Dispatch(ctx, task)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(m.policy.newBackOff()),
		backoff.WithMaxTries(uint(m.policy.MaxAttempts)),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Warn("Task failed, retrying", "error", err.Error(), "attempt", task.Attempt, "wait", d.String())
		}),
	)
	if err != nil {
		return goerr.Wrap(err, "task failed", goerr.V("task_id", task.ID), goerr.V("attempts", task.Attempt))
	}

	logger.Debug("Task completed", "attempts", task.Attempt)
	return nil
}

// Close waits for the tasks already submitted
func (m *Memory) Close() error {
	m.group.Wait()
	return nil
}
