// Package keylock serializes work on a single key (for example an account
// email) across goroutines and, with the Redis locker, across processes.
package keylock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	// ErrBusy is returned when the key is held by someone else.
	ErrBusy = errors.New("key is locked")

	// ErrNotHeld is returned by Unlock when the lease expired or belongs to someone else.
	ErrNotHeld = errors.New("lease not held")
)

// Locker acquires and releases leases on keys. TryLock never blocks on a busy
// key; it returns ErrBusy immediately. The returned token must be passed back
// to Unlock so that only the holder can release the lease.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

const (
	defaultLeaseTTL = 10 * time.Second
	defaultWait     = 3 * time.Second
	defaultBackoff  = 25 * time.Millisecond
)

// Option tunes WithLock.
type Option func(*options)

type options struct {
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
}

// WithLeaseTTL sets how long a lease survives a crashed holder.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithWait bounds the time spent waiting for a busy key.
func WithWait(wait time.Duration) Option {
	return func(o *options) { o.wait = wait }
}

// WithBackoff sets the first retry delay; later delays grow exponentially.
func WithBackoff(d time.Duration) Option {
	return func(o *options) { o.backoff = d }
}

// WithLock runs fn while holding key. A busy key is retried with exponential
// backoff until the wait budget runs out, then ErrBusy is returned and fn is
// not called. The lease is released after fn returns, even on panic.
func WithLock(ctx context.Context, l Locker, key string, fn func(context.Context) error, opts ...Option) error {
	o := options{ttl: defaultLeaseTTL, wait: defaultWait, backoff: defaultBackoff}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = defaultLeaseTTL
	}
	if o.backoff <= 0 {
		o.backoff = defaultBackoff
	}

	b := retry.NewExponential(o.backoff)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxDuration(o.wait, b)

	var token string
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		t, err := l.TryLock(ctx, key, o.ttl)
		if errors.Is(err, ErrBusy) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return err
	}

	defer func() {
		// release must survive a canceled request
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := l.Unlock(rctx, key, token); err != nil {
			slog.WarnContext(ctx, "failed to release key lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
