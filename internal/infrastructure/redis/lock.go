package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockLost is returned when a refresh or release finds the key gone
	// or owned by someone else.
	ErrLockLost = errors.New("lock lost")

	// ErrLockNotAcquired is returned by AcquireWithRetry when all attempts fail.
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Release and refresh must check ownership before touching the key, otherwise
// a worker whose lock expired could delete a lock now held by another worker.
var (
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)

	refreshScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// DistributedLock guards a single pending authorization so that the poller
// and the stream consumer never reconcile the same record concurrently.
type DistributedLock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
	held   bool
}

// NewDistributedLock builds a lock for the given key. The lock is not
// acquired until Acquire is called.
func NewDistributedLock(client *redis.Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    "reconciler:lock:" + key,
		owner:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. It returns false without error when the
// lock is already held elsewhere.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, err
	}
	l.held = ok
	return ok, nil
}

// AcquireWithRetry retries Acquire up to attempts times, sleeping delay
// between tries.
func (l *DistributedLock) AcquireWithRetry(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		ok, err := l.Acquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return ErrLockNotAcquired
}

// Extend pushes the expiry forward for a lock this instance still owns.
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	if !l.held {
		return ErrLockLost
	}
	res, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.owner, ttl.Milliseconds()).Result()
	if err != nil {
		return err
	}
	if n, ok := res.(int64); !ok || n == 0 {
		l.held = false
		return ErrLockLost
	}
	return nil
}

// Release drops the lock if this instance still owns it. Releasing a lock
// that was never acquired is a no-op.
func (l *DistributedLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	res, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Result()
	if err != nil {
		return err
	}
	l.held = false
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockLost
	}
	return nil
}

// IsAcquired reports whether the lock is currently held by this instance.
func (l *DistributedLock) IsAcquired() bool {
	return l.held
}
