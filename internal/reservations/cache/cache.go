// Package cache is the process-wide index of vehicle locks: which vehicle
// identity is taken for which date window. Every mutation is persisted
// synchronously through a Store so a restart reloads the same lock set.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	reserrors "carbroker/internal/reservations/errors"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"
)

const defaultPersistTimeout = 10 * time.Second

// Store is the durability port.
type Store interface {
	LoadLocks(ctx context.Context) ([]model.ReservationLock, error)
	SaveLocks(ctx context.Context, locks []model.ReservationLock) error
}

// Observer is told about size changes and persistence failures.
type Observer interface {
	LocksChanged(active int)
	PersistFailed()
}

type Option func(*Cache)

func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

func WithPersistTimeout(d time.Duration) Option {
	return func(c *Cache) { c.persistTimeout = d }
}

type Cache struct {
	mu    sync.RWMutex
	locks map[string]model.ReservationLock

	// persistMu orders saves; each save snapshots after acquiring it, so the
	// last save always carries the latest state.
	persistMu      sync.Mutex
	store          Store
	persistTimeout time.Duration
	lastPersistErr error

	observer Observer
	log      *logger.Logger
}

// New loads the persisted lock set. A store that cannot be read is an error.
func New(ctx context.Context, store Store, log *logger.Logger, opts ...Option) (*Cache, error) {
	c := &Cache{
		locks:          make(map[string]model.ReservationLock),
		store:          store,
		persistTimeout: defaultPersistTimeout,
		log:            log,
	}
	for _, opt := range opts {
		opt(c)
	}

	loaded, err := store.LoadLocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reservation locks: %w", err)
	}
	for _, lock := range loaded {
		if !lock.Identity.Complete() {
			c.log.Warn("Skipping persisted lock without identity", "key", lock.Key())
			continue
		}
		c.locks[lock.Key()] = lock
	}

	c.notify(len(c.locks))
	c.log.Info("Reservation locks loaded", "count", len(c.locks))
	return c, nil
}

// Query returns every identity locked for a window overlapping r.
func (c *Cache) Query(r model.DateRange) []model.VehicleIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[model.VehicleIdentity]struct{})
	var out []model.VehicleIdentity
	for _, lock := range c.locks {
		if !lock.Range.Overlaps(r) {
			continue
		}
		if _, dup := seen[lock.Identity]; dup {
			continue
		}
		seen[lock.Identity] = struct{}{}
		out = append(out, lock.Identity)
	}
	return out
}

// QuerySet is Query keyed for membership tests.
func (c *Cache) QuerySet(r model.DateRange) map[model.VehicleIdentity]struct{} {
	ids := c.Query(r)
	set := make(map[model.VehicleIdentity]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (c *Cache) Holds(id model.VehicleIdentity, r model.DateRange) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, lock := range c.locks {
		if lock.Identity == id && lock.Range.Overlaps(r) {
			return true
		}
	}
	return false
}

// Add inserts the lock and persists. It reports whether the lock was new;
// adding an existing lock is a no-op.
func (c *Cache) Add(ctx context.Context, id model.VehicleIdentity, r model.DateRange) bool {
	lock := model.ReservationLock{Identity: id, Range: r}
	key := lock.Key()

	c.mu.Lock()
	if _, exists := c.locks[key]; exists {
		c.mu.Unlock()
		return false
	}
	c.locks[key] = lock
	n := len(c.locks)
	c.mu.Unlock()

	c.notify(n)
	c.log.Info("Reservation lock added", "vehicle", id.String(), "range", r.String())
	c.persistAfterMutation(ctx)
	return true
}

// Remove deletes the exact lock and persists. Removing a lock that is not
// held is a no-op.
func (c *Cache) Remove(ctx context.Context, id model.VehicleIdentity, r model.DateRange) bool {
	key := model.ReservationLock{Identity: id, Range: r}.Key()

	c.mu.Lock()
	if _, exists := c.locks[key]; !exists {
		c.mu.Unlock()
		return false
	}
	delete(c.locks, key)
	n := len(c.locks)
	c.mu.Unlock()

	c.notify(n)
	c.log.Info("Reservation lock removed", "vehicle", id.String(), "range", r.String())
	c.persistAfterMutation(ctx)
	return true
}

// Sweep drops locks whose dropoff date is not after now's date. Such locks
// can no longer overlap any future window.
func (c *Cache) Sweep(ctx context.Context, now time.Time) int {
	today := model.Date(now)

	c.mu.Lock()
	removed := 0
	for key, lock := range c.locks {
		if !lock.Range.Dropoff.After(today) {
			delete(c.locks, key)
			removed++
		}
	}
	n := len(c.locks)
	c.mu.Unlock()

	if removed == 0 {
		return 0
	}
	c.notify(n)
	c.log.Info("Expired reservation locks swept", "removed", removed, "remaining", n)
	c.persistAfterMutation(ctx)
	return removed
}

// Persist writes the full lock set to the store.
func (c *Cache) Persist(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	snapshot := c.Snapshot()
	if err := c.store.SaveLocks(ctx, snapshot); err != nil {
		c.lastPersistErr = fmt.Errorf("%w: %v", reserrors.ErrPersistenceDegraded, err)
		return c.lastPersistErr
	}
	c.lastPersistErr = nil
	return nil
}

// Ready fails while the most recent save failed, i.e. while the lock set
// exists in memory only.
func (c *Cache) Ready(_ context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	return c.lastPersistErr
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.locks)
}

// Snapshot returns a copy of the lock set ordered by key.
func (c *Cache) Snapshot() []model.ReservationLock {
	c.mu.RLock()
	out := make([]model.ReservationLock, 0, len(c.locks))
	for _, lock := range c.locks {
		out = append(out, lock)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// persistAfterMutation keeps the in-memory change even when the save fails.
// The save is detached from the caller's cancellation.
func (c *Cache) persistAfterMutation(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.persistTimeout)
	defer cancel()

	if err := c.Persist(ctx); err != nil {
		c.log.Error("PersistenceDegraded: lock set kept in memory only", "error", err)
		if c.observer != nil {
			c.observer.PersistFailed()
		}
	}
}

func (c *Cache) notify(n int) {
	if c.observer != nil {
		c.observer.LocksChanged(n)
	}
}
