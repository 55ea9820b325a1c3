// ABOUTME: Tests for in-process keyed locking and the redis locker error path
// ABOUTME: Verifies exclusion per key, independence across keys and cancellation
package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Locker = (*KeyedMutex)(nil)
	_ Locker = (*RedisLocker)(nil)
	_ Locker = chainLocker(nil)
)

func TestKeyedMutex_ExcludesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := k.Lock(ctx, "h1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := k.Lock(ctx, "h1")
		if err == nil {
			close(acquired)
			u()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	u1, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	u2, err := k.Lock(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, k.Len())

	u1()
	u2()
	assert.Equal(t, 0, k.Len())
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = k.Lock(ctx, "a")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, k.Len())
}

func TestKeyedMutex_DoubleUnlockIsSafe(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Equal(t, 0, k.Len())
}

type recordingLocker struct {
	events *[]string
	name   string
	err    error
}

func (r recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	if r.err != nil {
		return nil, r.err
	}
	*r.events = append(*r.events, "lock "+r.name)
	return func() { *r.events = append(*r.events, "unlock "+r.name) }, nil
}

func TestChainLocker_ReleasesInReverse(t *testing.T) {
	var events []string
	c := chainLocker{recordingLocker{&events, "a", nil}, recordingLocker{&events, "b", nil}}

	unlock, err := c.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()

	assert.Equal(t, []string{"lock a", "lock b", "unlock b", "unlock a"}, events)
}

func TestChainLocker_PartialFailureReleases(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	c := chainLocker{recordingLocker{&events, "a", nil}, recordingLocker{&events, "b", boom}}

	_, err := c.Lock(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"lock a", "unlock a"}, events)
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLocker(client, time.Second)
	_, err := l.Lock(context.Background(), "hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), LockKeyPrefix+"hash")
}
