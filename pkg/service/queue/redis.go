package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/errutil"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix    = "chatpro:tasks"
	defaultPollInterval = time.Second
)

// Redis is a reliable list queue. A task moves from the pending list to the
// processing list while it runs and is removed once it succeeded. Failed tasks
// wait in a sorted set scored by their due time, and tasks exceeding the retry
// policy end in the dead list.
//
// Items left in the processing list by a crashed consumer are moved back to
// pending on Start, so a task may run more than once.
type Redis struct {
	client       *redis.Client
	router       *Router
	policy       RetryPolicy
	prefix       string
	pollInterval time.Duration
	now          func() time.Time
	stopCh       chan struct{}
	doneCh       chan struct{}
}

var _ interfaces.TaskQueue = &Redis{}

type RedisOption func(*Redis)

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

func WithRedisRetryPolicy(p RetryPolicy) RedisOption {
	return func(r *Redis) {
		r.policy = p
	}
}

func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		r.pollInterval = d
	}
}

func NewRedis(client *redis.Client, router *Router, opts ...RedisOption) *Redis {
	r := &Redis{
		client:       client,
		router:       router,
		policy:       DefaultRetryPolicy(),
		prefix:       defaultKeyPrefix,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) pendingKey() string    { return r.prefix + ":pending" }
func (r *Redis) processingKey() string { return r.prefix + ":processing" }
func (r *Redis) delayedKey() string    { return r.prefix + ":delayed" }
func (r *Redis) deadKey() string       { return r.prefix + ":dead" }

func (r *Redis) Submit(ctx context.Context, task *model.Task) error {
	if err := task.Validate(); err != nil {
		return goerr.Wrap(err, "invalid task")
	}

	raw, err := json.Marshal(task)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal task", goerr.V("task_id", task.ID))
	}
	if err := r.client.LPush(ctx, r.pendingKey(), raw).Err(); err != nil {
		return goerr.Wrap(err, "failed to enqueue task", goerr.V("task_id", task.ID))
	}
	return nil
}

// Start recovers in-flight tasks and begins consuming in the background
func (r *Redis) Start(ctx context.Context) error {
	n, err := r.recover(ctx)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("Redis task queue starting",
		"prefix", r.prefix,
		"recovered", n,
		"poll_interval", r.pollInterval.String())

	go r.run(ctx)
	return nil
}

// Stop signals the consumer to stop and waits for the running task
func (r *Redis) Stop() {
	close(r.stopCh)
	<-r.doneCh
	logging.Default().Info("Redis task queue stopped")
}

func (r *Redis) run(ctx context.Context) {
	defer close(r.doneCh)

	for {
		processed, err := r.processNext(ctx)
		if err != nil {
			_ = errutil.Handle(ctx, err, "task queue consumer error")
		}
		if processed && err == nil {
			select {
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			default:
				continue
			}
		}

		select {
		case <-time.After(r.pollInterval):
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// recover moves every task of the processing list back to pending
func (r *Redis) recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := r.client.LMove(ctx, r.processingKey(), r.pendingKey(), "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, goerr.Wrap(err, "failed to recover in-flight tasks")
		}
		n++
	}
}

// promoteDelayed moves the delayed tasks that are due to the pending list
func (r *Redis) promoteDelayed(ctx context.Context) error {
	due, err := r.client.ZRangeByScore(ctx, r.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(r.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to read delayed tasks")
	}

	for _, member := range due {
		removed, err := r.client.ZRem(ctx, r.delayedKey(), member).Result()
		if err != nil {
			return goerr.Wrap(err, "failed to remove delayed task")
		}
		// another consumer promoted it
		if removed == 0 {
			continue
		}
		if err := r.client.LPush(ctx, r.pendingKey(), member).Err(); err != nil {
			return goerr.Wrap(err, "failed to promote delayed task")
		}
	}
	return nil
}

// processNext runs at most one task. It reports whether a task was taken.
func (r *Redis) processNext(ctx context.Context) (bool, error) {
	if err := r.promoteDelayed(ctx); err != nil {
		return false, err
	}

	raw, err := r.client.LMove(ctx, r.pendingKey(), r.processingKey(), "RIGHT", "LEFT").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to take task")
	}

	var task model.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		if derr := r.bury(ctx, raw, raw); derr != nil {
			return true, derr
		}
		return true, goerr.Wrap(err, "malformed task moved to dead list")
	}

	task.Attempt++
	logger := logging.From(ctx).With(
		slog.String("task_id", string(task.ID)),
		slog.String("task", task.Name.String()),
		slog.Int("attempt", task.Attempt),
	)
	taskCtx := logging.With(ctx, logger)

	runErr := r.dispatch(taskCtx, &task)
	if runErr == nil {
		if err := r.client.LRem(ctx, r.processingKey(), 1, raw).Err(); err != nil {
			return true, goerr.Wrap(err, "failed to acknowledge task", goerr.V("task_id", task.ID))
		}
		logger.Debug("Task completed")
		return true, nil
	}

	updated, err := json.Marshal(&task)
	if err != nil {
		return true, goerr.Wrap(err, "failed to marshal task", goerr.V("task_id", task.ID))
	}

	if IsPermanent(runErr) || (r.policy.MaxAttempts > 0 && task.Attempt >= r.policy.MaxAttempts) {
		if err := r.bury(ctx, raw, string(updated)); err != nil {
			return true, err
		}
		return true, goerr.Wrap(runErr, "task failed permanently",
			goerr.V("task_id", task.ID), goerr.V("attempts", task.Attempt))
	}

	wait, ok := retryAfter(runErr)
	if !ok {
		wait = r.policy.delay(task.Attempt)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, r.processingKey(), 1, raw)
		pipe.ZAdd(ctx, r.delayedKey(), redis.Z{
			Score:  float64(r.now().Add(wait).UnixMilli()),
			Member: string(updated),
		})
		return nil
	})
	if err != nil {
		return true, goerr.Wrap(err, "failed to reschedule task", goerr.V("task_id", task.ID))
	}

	logger.Warn("Task failed, rescheduled", "error", runErr.Error(), "wait", wait.String())
	return true, nil
}

// dispatch runs the handler of task. A panicking handler fails the task
// permanently so it is buried instead of being recovered on every restart.
func (r *Redis) dispatch(ctx context.Context, task *model.Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = Permanent(goerr.New("task handler panicked",
				goerr.V("task_id", task.ID), goerr.V("panic", fmt.Sprint(p))))
		}
	}()
	return r.router.Dispatch(ctx, task)
}

// bury moves a task from processing to the dead list
func (r *Redis) bury(ctx context.Context, raw, dead string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, r.processingKey(), 1, raw)
		pipe.LPush(ctx, r.deadKey(), dead)
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to move task to dead list")
	}
	return nil
}
