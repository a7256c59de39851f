package queue

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Permanent marks err as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// IsPermanent reports whether err or any error it wraps was marked by Permanent
func IsPermanent(err error) bool {
	var permanent *backoff.PermanentError
	return errors.As(err, &permanent)
}

func retryAfter(err error) (time.Duration, bool) {
	var ra *backoff.RetryAfterError
	if errors.As(err, &ra) {
		return ra.Duration, true
	}
	return 0, false
}

// RetryPolicy controls how failed tasks are retried
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries a task five times starting one second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: time.Second,
		MaxInterval:     5 * time.Minute,
	}
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// delay returns the wait before the given retry, 1 being the first retry
func (p RetryPolicy) delay(retry int) time.Duration {
	b := p.newBackOff()
	d := p.InitialInterval
	for i := 0; i < retry; i++ {
		d = b.NextBackOff()
	}
	return d
}
