package availability

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches a fresh value for a TTLCache.
type Loader[T any] func(ctx context.Context) (T, error)

// TTLCache holds a single lazily loaded value. Concurrent misses share one
// load; a failed reload keeps serving the previous value.
type TTLCache[T any] struct {
	name string
	ttl  time.Duration
	load Loader[T]
	now  func() time.Time

	mu       sync.RWMutex
	value    T
	loadedAt time.Time
	loaded   bool

	group singleflight.Group
}

func NewTTLCache[T any](name string, ttl time.Duration, load Loader[T]) *TTLCache[T] {
	return &TTLCache[T]{name: name, ttl: ttl, load: load, now: time.Now}
}

// Get returns the cached value, loading it when missing or expired. The
// returned error is non-nil only when nothing was ever loaded. stale reports
// that an expired value was served because the reload failed.
func (c *TTLCache[T]) Get(ctx context.Context) (value T, stale bool, err error) {
	c.mu.RLock()
	value, loaded, fresh := c.value, c.loaded, c.loaded && c.now().Sub(c.loadedAt) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return value, false, nil
	}

	ch := c.group.DoChan(c.name, func() (any, error) {
		// one caller giving up must not abort the shared load
		v, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value, c.loadedAt, c.loaded = v, c.now(), true
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			if loaded {
				return value, true, nil
			}
			var zero T
			return zero, false, res.Err
		}
		return res.Val.(T), false, nil
	case <-ctx.Done():
		if loaded {
			return value, true, nil
		}
		var zero T
		return zero, false, ctx.Err()
	}
}

// Invalidate forces the next Get to reload.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}
