package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/queue"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Queue holds CLI flags for the task queue backend
type Queue struct {
	backend      string
	redisURL     string
	keyPrefix    string
	maxAttempts  int
	pollInterval time.Duration
}

func (q *Queue) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "queue-backend",
			Usage:       "Task queue backend (memory or redis)",
			Value:       "memory",
			Category:    "Queue",
			Sources:     cli.EnvVars("CHATPRO_QUEUE_BACKEND"),
			Destination: &q.backend,
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Usage:       "Redis URL (required when using redis backend), e.g. redis://localhost:6379/0",
			Category:    "Queue",
			Sources:     cli.EnvVars("CHATPRO_REDIS_URL"),
			Destination: &q.redisURL,
		},
		&cli.StringFlag{
			Name:        "queue-key-prefix",
			Usage:       "Prefix of the Redis keys holding tasks",
			Value:       "chatpro:tasks",
			Category:    "Queue",
			Sources:     cli.EnvVars("CHATPRO_QUEUE_KEY_PREFIX"),
			Destination: &q.keyPrefix,
		},
		&cli.IntFlag{
			Name:        "queue-max-attempts",
			Usage:       "Maximum attempts of a task before it is given up",
			Value:       5,
			Category:    "Queue",
			Sources:     cli.EnvVars("CHATPRO_QUEUE_MAX_ATTEMPTS"),
			Destination: &q.maxAttempts,
		},
		&cli.DurationFlag{
			Name:        "queue-poll-interval",
			Usage:       "Wait time of the Redis consumer when no task is pending",
			Value:       time.Second,
			Category:    "Queue",
			Sources:     cli.EnvVars("CHATPRO_QUEUE_POLL_INTERVAL"),
			Destination: &q.pollInterval,
		},
	}
}

func (q Queue) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", q.backend),
		slog.Bool("redis-url.set", q.redisURL != ""),
		slog.String("key-prefix", q.keyPrefix),
		slog.Int("max-attempts", q.maxAttempts),
	)
}

func (q *Queue) retryPolicy() queue.RetryPolicy {
	policy := queue.DefaultRetryPolicy()
	if q.maxAttempts > 0 {
		policy.MaxAttempts = q.maxAttempts
	}
	return policy
}

// TaskQueue is a configured queue backend. Tasks are consumed only after
// Start, so handlers can be registered on the router in between.
type TaskQueue struct {
	interfaces.TaskQueue
	start func(ctx context.Context) error
	close func()
}

// Start begins consuming tasks
func (t *TaskQueue) Start(ctx context.Context) error {
	return t.start(ctx)
}

// Close stops consuming and releases the backend
func (t *TaskQueue) Close() {
	t.close()
}

// Configure builds the task queue dispatching to router
func (q *Queue) Configure(ctx context.Context, router *queue.Router) (*TaskQueue, error) {
	switch q.backend {
	case "memory":
		m := queue.NewMemory(router, queue.WithMemoryRetryPolicy(q.retryPolicy()))
		logging.Default().Info("Using in-memory task queue (tasks are lost on shutdown)")
		return &TaskQueue{
			TaskQueue: m,
			start:     func(ctx context.Context) error { return nil },
			close:     func() { _ = m.Close() },
		}, nil

	case "redis":
		if q.redisURL == "" {
			return nil, goerr.New("redis-url is required when using redis backend")
		}
		opts, err := redis.ParseURL(q.redisURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid redis-url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", opts.Addr))
		}

		r := queue.NewRedis(client, router,
			queue.WithKeyPrefix(q.keyPrefix),
			queue.WithRedisRetryPolicy(q.retryPolicy()),
			queue.WithPollInterval(q.pollInterval),
		)
		logging.Default().Info("Using Redis task queue", "addr", opts.Addr, "prefix", q.keyPrefix)

		started := false
		return &TaskQueue{
			TaskQueue: r,
			start: func(ctx context.Context) error {
				if err := r.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start redis task queue")
				}
				started = true
				return nil
			},
			close: func() {
				if started {
					r.Stop()
				}
				if err := client.Close(); err != nil {
					logging.Default().Error("failed to close redis client", "error", err.Error())
				}
			},
		}, nil

	default:
		return nil, goerr.New("invalid queue backend", goerr.V("backend", q.backend))
	}
}
