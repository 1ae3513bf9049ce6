package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_TryWithLockRejectsConcurrentHolder(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	err := l.TryWithLock(ctx, JobKey("low-stock"), func(ctx context.Context) error {
		inner := l.TryWithLock(ctx, JobKey("low-stock"), func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, ErrNotObtained)
		return nil
	})
	require.NoError(t, err)

	// Released after the first call returns.
	called := false
	require.NoError(t, l.TryWithLock(ctx, JobKey("low-stock"), func(context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestLocalLocker_WithLocksSerialises(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLocks(ctx, []string{PartKey(2), PartKey(1), PartKey(2)}, func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, sortedUnique([]string{"b", "", "a", "b"}))
}
