package services

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"questify/metrics"
	"questify/store"
)

// RetryConfig bounds retries of transient store failures.
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts"`
	BackoffBase       time.Duration `json:"backoff_base"`
	BackoffMax        time.Duration `json:"backoff_max"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       100 * time.Millisecond,
		BackoffMax:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func (c RetryConfig) policy(ctx context.Context) backoff.BackOff {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	b := backoff.NewExponentialBackOff()
	if c.BackoffBase > 0 {
		b.InitialInterval = c.BackoffBase
	}
	if c.BackoffMax > 0 {
		b.MaxInterval = c.BackoffMax
	}
	if c.BackoffMultiplier >= 1 {
		b.Multiplier = c.BackoffMultiplier
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.MaxAttempts-1)), ctx)
}

// runner executes store work with retries and publishes the activity it
// produced once the work has committed.
type runner struct {
	store   store.Store
	sink    ActivitySink
	metrics *metrics.Recorder
	retry   RetryConfig
	now     func() time.Time
}

// retryOp runs fn until it succeeds, fails with a non-transient error, or the
// attempts are used up.
func (r *runner) retryOp(ctx context.Context, op string, fn func() error) error {
	attempt := func() error {
		err := fn()
		if err != nil && !store.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("🔁 [STORE] %s failed, retrying in %s: %v", op, wait, err)
		r.metrics.StoreRetry(op)
	}
	return storeErr(op, backoff.RetryNotify(attempt, r.retry.policy(ctx), notify))
}

// transact runs fn in one store transaction, retried as a whole. fn must not
// keep state between attempts.
func (r *runner) transact(ctx context.Context, op string, fn func(tx store.Store) error) error {
	return r.retryOp(ctx, op, func() error {
		return r.store.Transaction(ctx, fn)
	})
}

func (r *runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}
