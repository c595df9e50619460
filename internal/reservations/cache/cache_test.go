package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	reserrors "carbroker/internal/reservations/errors"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(t *testing.T, pickup, dropoff string) model.DateRange {
	t.Helper()
	r, err := model.ParseDateRange(pickup, dropoff)
	require.NoError(t, err)
	return r
}

func identity(rez, park string) model.VehicleIdentity {
	return model.VehicleIdentity{ReservationID: rez, ParkID: park}
}

func newCache(t *testing.T, store Store, opts ...Option) *Cache {
	t.Helper()
	c, err := New(context.Background(), store, logger.Discard(), opts...)
	require.NoError(t, err)
	return c
}

// ── mocks ─────────────────────────────────────────────────────

type failingStore struct {
	mu      sync.Mutex
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) LoadLocks(context.Context) ([]model.ReservationLock, error) {
	return nil, s.loadErr
}

func (s *failingStore) SaveLocks(context.Context, []model.ReservationLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return s.saveErr
}

type countingObserver struct {
	mu         sync.Mutex
	last       int
	persistErr int
}

func (o *countingObserver) LocksChanged(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = n
}

func (o *countingObserver) PersistFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persistErr++
}

// ── query semantics ───────────────────────────────────────────

func TestQuery_AdjacentRangesDoNotConflict(t *testing.T) {
	c := newCache(t, NewMemoryStore())
	id := identity("XML-1", "77")
	c.Add(context.Background(), id, rng(t, "2024-06-01", "2024-06-05"))

	assert.Equal(t, []model.VehicleIdentity{id}, c.Query(rng(t, "2024-06-04", "2024-06-08")))
	assert.Empty(t, c.Query(rng(t, "2024-06-05", "2024-06-08")))
	assert.True(t, c.Holds(id, rng(t, "2024-06-04", "2024-06-08")))
	assert.False(t, c.Holds(id, rng(t, "2024-06-05", "2024-06-08")))
}

func TestQuery_DeduplicatesIdentity(t *testing.T) {
	c := newCache(t, NewMemoryStore())
	id := identity("XML-1", "77")
	c.Add(context.Background(), id, rng(t, "2024-06-01", "2024-06-03"))
	c.Add(context.Background(), id, rng(t, "2024-06-03", "2024-06-06"))

	got := c.Query(rng(t, "2024-06-01", "2024-06-10"))
	assert.Len(t, got, 1)
	assert.Len(t, c.QuerySet(rng(t, "2024-06-01", "2024-06-10")), 1)
	assert.Equal(t, 2, c.Len())
}

func TestHolds_OtherIdentityUnaffected(t *testing.T) {
	c := newCache(t, NewMemoryStore())
	c.Add(context.Background(), identity("XML-1", "77"), rng(t, "2024-06-01", "2024-06-05"))

	assert.False(t, c.Holds(identity("XML-1", "78"), rng(t, "2024-06-01", "2024-06-05")))
	assert.False(t, c.Holds(identity("XML-2", "77"), rng(t, "2024-06-01", "2024-06-05")))
}

// ── mutations ─────────────────────────────────────────────────

func TestAddRemove_Idempotent(t *testing.T) {
	store := NewMemoryStore()
	c := newCache(t, store)
	ctx := context.Background()
	id := identity("XML-1", "77")
	r := rng(t, "2024-06-01", "2024-06-05")

	assert.True(t, c.Add(ctx, id, r))
	assert.False(t, c.Add(ctx, id, r))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, store.Saves())

	assert.True(t, c.Remove(ctx, id, r))
	assert.False(t, c.Remove(ctx, id, r))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, store.Saves())
}

func TestRemove_RequiresExactRange(t *testing.T) {
	c := newCache(t, NewMemoryStore())
	ctx := context.Background()
	id := identity("XML-1", "77")
	c.Add(ctx, id, rng(t, "2024-06-01", "2024-06-05"))

	assert.False(t, c.Remove(ctx, id, rng(t, "2024-06-01", "2024-06-04")))
	assert.Equal(t, 1, c.Len())
}

func TestPersistFailure_KeepsMemoryState(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	obs := &countingObserver{}
	c := newCache(t, store, WithObserver(obs))
	id := identity("XML-1", "77")
	r := rng(t, "2024-06-01", "2024-06-05")

	assert.True(t, c.Add(context.Background(), id, r))
	assert.True(t, c.Holds(id, r))
	assert.Equal(t, 1, obs.persistErr)
	assert.Equal(t, 1, obs.last)

	err := c.Persist(context.Background())
	assert.Error(t, err)
}

func TestReady_TracksLastPersist(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	c := newCache(t, store)
	require.NoError(t, c.Ready(context.Background()))

	c.Add(context.Background(), identity("XML-1", "77"), rng(t, "2024-06-01", "2024-06-05"))
	assert.ErrorIs(t, c.Ready(context.Background()), reserrors.ErrPersistenceDegraded)

	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	require.NoError(t, c.Persist(context.Background()))
	assert.NoError(t, c.Ready(context.Background()))
}

func TestPersist_DetachedFromCallerCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	c := newCache(t, NewFileStore(path))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Add(ctx, identity("XML-1", "77"), rng(t, "2024-06-01", "2024-06-05"))

	reloaded := newCache(t, NewFileStore(path))
	assert.Equal(t, 1, reloaded.Len())
}

func TestNew_LoadErrorFails(t *testing.T) {
	_, err := New(context.Background(), &failingStore{loadErr: errors.New("corrupt")}, logger.Discard())
	assert.Error(t, err)
}

func TestNew_SkipsIncompleteLocks(t *testing.T) {
	store := NewMemoryStore(
		model.ReservationLock{Identity: identity("XML-1", ""), Range: rng(t, "2024-06-01", "2024-06-05")},
		model.ReservationLock{Identity: identity("XML-2", "9"), Range: rng(t, "2024-06-01", "2024-06-05")},
	)
	c := newCache(t, store)
	assert.Equal(t, 1, c.Len())
}

// ── durability ────────────────────────────────────────────────

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "reservedCars.json")
	ctx := context.Background()

	c := newCache(t, NewFileStore(path))
	locks := []model.ReservationLock{
		{Identity: identity("XML-1", "77"), Range: rng(t, "2024-06-01", "2024-06-05")},
		{Identity: identity("XML-2", "12"), Range: rng(t, "2024-07-10", "2024-07-12")},
		{Identity: identity("XML-1", "77"), Range: rng(t, "2024-08-01", "2024-08-03")},
	}
	for _, l := range locks {
		c.Add(ctx, l.Identity, l.Range)
	}
	require.NoError(t, c.Persist(ctx))

	reloaded := newCache(t, NewFileStore(path))
	assert.Equal(t, c.Snapshot(), reloaded.Snapshot())

	probes := []model.DateRange{
		rng(t, "2024-05-30", "2024-06-02"),
		rng(t, "2024-06-05", "2024-06-07"),
		rng(t, "2024-07-11", "2024-07-20"),
		rng(t, "2024-08-02", "2024-08-04"),
		rng(t, "2025-01-01", "2025-01-02"),
	}
	ids := []model.VehicleIdentity{identity("XML-1", "77"), identity("XML-2", "12"), identity("XML-3", "1")}
	for _, p := range probes {
		for _, id := range ids {
			assert.Equal(t, c.Holds(id, p), reloaded.Holds(id, p), "%s %s", id, p)
		}
	}
}

func TestFileStore_MissingAndEmptyFile(t *testing.T) {
	dir := t.TempDir()

	locks, err := NewFileStore(filepath.Join(dir, "absent.json")).LoadLocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, locks)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	locks, err = NewFileStore(empty).LoadLocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, locks)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).LoadLocks(context.Background())
	assert.Error(t, err)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "locks.json"))
	require.NoError(t, store.SaveLocks(context.Background(), nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "locks.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "locks.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

// ── expiry ────────────────────────────────────────────────────

func TestSweep_RemovesPastLocks(t *testing.T) {
	store := NewMemoryStore()
	c := newCache(t, store)
	ctx := context.Background()
	c.Add(ctx, identity("A", "1"), rng(t, "2024-06-01", "2024-06-05"))
	c.Add(ctx, identity("B", "2"), rng(t, "2024-06-03", "2024-06-10"))
	c.Add(ctx, identity("C", "3"), rng(t, "2024-06-08", "2024-06-12"))

	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, c.Sweep(ctx, now))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Holds(identity("C", "3"), rng(t, "2024-06-10", "2024-06-11")))

	saves := store.Saves()
	assert.Equal(t, 0, c.Sweep(ctx, now))
	assert.Equal(t, saves, store.Saves(), "no-op sweep must not persist")
}

func TestRunSweeper_DisabledReturnsImmediately(t *testing.T) {
	c := newCache(t, NewMemoryStore())
	done := make(chan struct{})
	go func() {
		c.RunSweeper(context.Background(), 0, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper did not return")
	}
}

func TestRunSweeper_SweepsOnStartAndStops(t *testing.T) {
	c := newCache(t, NewMemoryStore())
	c.Add(context.Background(), identity("A", "1"), rng(t, "2024-06-01", "2024-06-05"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunSweeper(ctx, time.Hour, func() time.Time { return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC) })
		close(done)
	}()

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

// ── concurrency ───────────────────────────────────────────────

func TestConcurrentMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.json")
	c := newCache(t, NewFileStore(path))
	ctx := context.Background()
	r := rng(t, "2024-06-01", "2024-06-05")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := identity(fmt.Sprintf("XML-%d", i), "1")
			c.Add(ctx, id, r)
			_ = c.Query(r)
			if i%2 == 0 {
				c.Remove(ctx, id, r)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, c.Len())
	reloaded := newCache(t, NewFileStore(path))
	assert.Equal(t, c.Snapshot(), reloaded.Snapshot())
}
