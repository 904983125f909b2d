package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/lock"
)

func TestWithLockSerialises(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "checkout:c1", time.Second, func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestWithLockReleasedAfterError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}

	_ = locker.WithLock(context.Background(), "k", time.Second, func(context.Context) error {
		return context.Canceled
	})
	// The lock must be free again for the next caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = locker.WithLock(context.Background(), "k", time.Second, func(context.Context) error { return nil })
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not released")
	}
}
