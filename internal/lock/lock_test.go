package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestLockAndUnlock(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	locker := NewLocker(client, "escrow:addr1", "holder-a")
	require.NoError(t, locker.Lock(ctx, time.Minute))

	// Second holder cannot take the same key.
	other := NewLocker(client, "escrow:addr1", "holder-b")
	assert.Error(t, other.Lock(ctx, time.Minute))

	require.NoError(t, locker.Unlock(ctx))
	assert.NoError(t, other.Lock(ctx, time.Minute))
}

func TestUnlockByNonHolderFails(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	locker := NewLocker(client, "escrow:addr2", "holder-a")
	require.NoError(t, locker.Lock(ctx, time.Minute))

	intruder := NewLocker(client, "escrow:addr2", "holder-b")
	assert.Error(t, intruder.Unlock(ctx))
}

func TestExtendLock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	locker := NewLocker(client, "escrow:addr3", "holder-a")
	require.NoError(t, locker.Lock(ctx, time.Second))
	require.NoError(t, locker.ExtendLock(ctx, time.Minute))

	ttl := mr.TTL("escrow:addr3")
	assert.Greater(t, ttl, time.Second)
}

func TestWaitLockTimesOut(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	holder := NewLocker(client, "escrow:addr4", "holder-a")
	require.NoError(t, holder.Lock(ctx, time.Minute))

	waiter := NewLocker(client, "escrow:addr4", "holder-b")
	err := waiter.WaitLock(ctx, time.Minute, 200*time.Millisecond)
	assert.Error(t, err)
}
