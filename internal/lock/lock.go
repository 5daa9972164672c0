package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLock guards a study against two executor runs mutating remote
// submissions at the same time. The holder value ensures that only the
// acquiring run can release the lock.
type RunLock struct {
	client redis.UniversalClient
	key    string
	holder string
}

// ForStudy builds the lock for a study's execution runs.
func ForStudy(client redis.UniversalClient, studyID string) *RunLock {
	return &RunLock{
		client: client,
		key:    fmt.Sprintf("adjudex:execute:%s", studyID),
		holder: uuid.NewString(),
	}
}

// Acquire takes the lock for at most ttl. It does not wait: a held lock
// means another run is in flight and this run must not start.
func (l *RunLock) Acquire(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.holder, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("execution lock %s is already held, another run may be in progress", l.key)
	}
	return nil
}

// Release frees the lock if this run still holds it.
func (l *RunLock) Release(ctx context.Context) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.holder).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("release failed, lock %s expired or is held by another run", l.key)
	}
	return nil
}

// Extend renews the lock for a long-running execution.
func (l *RunLock) Extend(ctx context.Context, extension time.Duration) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.holder, fmt.Sprintf("%d", extension.Milliseconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("extension failed, lock %s expired or is held by another run", l.key)
	}
	return nil
}
