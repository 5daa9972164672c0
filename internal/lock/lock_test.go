package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAcquireAndRelease(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	lock := ForStudy(client, "study-1")
	require.NoError(t, lock.Acquire(ctx, time.Minute))
	require.NoError(t, lock.Release(ctx))

	// Released locks can be taken again.
	again := ForStudy(client, "study-1")
	assert.NoError(t, again.Acquire(ctx, time.Minute))
}

func TestAcquireIsExclusivePerStudy(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	first := ForStudy(client, "study-1")
	require.NoError(t, first.Acquire(ctx, time.Minute))

	second := ForStudy(client, "study-1")
	err := second.Acquire(ctx, time.Minute)
	assert.Error(t, err, "a held lock must refuse a second run without waiting")

	// Another study's runs are unaffected.
	other := ForStudy(client, "study-2")
	assert.NoError(t, other.Acquire(ctx, time.Minute))
}

func TestReleaseOnlyByHolder(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	holder := ForStudy(client, "study-1")
	require.NoError(t, holder.Acquire(ctx, time.Minute))

	intruder := ForStudy(client, "study-1")
	assert.Error(t, intruder.Release(ctx), "a run must not release a lock it does not hold")

	assert.NoError(t, holder.Release(ctx))
}

func TestExtend(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	lock := ForStudy(client, "study-1")
	require.NoError(t, lock.Acquire(ctx, time.Minute))
	assert.NoError(t, lock.Extend(ctx, 5*time.Minute))

	stranger := ForStudy(client, "study-1")
	assert.Error(t, stranger.Extend(ctx, time.Minute))
}
