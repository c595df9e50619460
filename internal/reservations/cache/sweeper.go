package cache

import (
	"context"
	"time"
)

// RunSweeper sweeps expired locks every interval until ctx is done. A
// non-positive interval disables sweeping.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration, now func() time.Time) {
	if interval <= 0 {
		c.log.Info("Reservation lock sweeper disabled")
		return
	}
	if now == nil {
		now = time.Now
	}

	c.Sweep(ctx, now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx, now())
		}
	}
}
