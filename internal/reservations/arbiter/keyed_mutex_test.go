package arbiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_ExclusivePerKey(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlockB, err := k.Lock(context.Background(), "b")
	require.NoError(t, err, "other keys are independent")
	unlockB()

	unlock()
	unlockAgain, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlockAgain()
}

func TestKeyedMutex_UnlockIsIdempotent(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Zero(t, k.Len())
}

func TestKeyedMutex_WaiterProceedsAfterUnlock(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := k.Lock(context.Background(), "a")
		if err == nil {
			close(acquired)
			u()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the key")
	}
}

func TestKeyedMutex_EntriesReleased(t *testing.T) {
	k := NewKeyedMutex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, k.Len())

	unlock()
	assert.Zero(t, k.Len())
}

func TestKeyedMutex_WaitersAcquireInArrivalOrder(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	const waiters = 20
	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := k.Lock(context.Background(), "a")
			if err != nil {
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			u()
		}()
		// Let waiter i block before i+1 arrives.
		time.Sleep(5 * time.Millisecond)
	}

	unlock()
	wg.Wait()

	want := make([]int, waiters)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, order)
}
