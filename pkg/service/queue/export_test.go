package queue

import (
	"context"
	"time"
)

func (r *Redis) ProcessNext(ctx context.Context) (bool, error) {
	return r.processNext(ctx)
}

func (r *Redis) Recover(ctx context.Context) (int, error) {
	return r.recover(ctx)
}

func (r *Redis) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Redis) Keys() (pending, processing, delayed, dead string) {
	return r.pendingKey(), r.processingKey(), r.delayedKey(), r.deadKey()
}

func (p RetryPolicy) Delay(retry int) time.Duration {
	return p.delay(retry)
}
