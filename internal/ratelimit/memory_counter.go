package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a process-local sliding-log Counter for single-instance runs.
type MemoryCounter struct {
	mu   sync.Mutex
	logs map[string]hitLog
	now  func() time.Time
}

type hitLog struct {
	hits   []time.Time
	window time.Duration
}

// NewMemoryCounter creates a MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{logs: make(map[string]hitLog), now: time.Now}
}

// Increment records one attempt for key if fewer than limit hits are inside the window.
func (c *MemoryCounter) Increment(ctx context.Context, key string, window time.Duration, limit int) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	hits := trim(c.logs[key].hits, now.Add(-window))
	count := int64(len(hits)) + 1
	if len(hits) < limit {
		hits = append(hits, now)
	}
	if len(hits) == 0 {
		delete(c.logs, key)
	} else {
		c.logs[key] = hitLog{hits: hits, window: window}
	}

	// lazy sweep of idle keys
	if len(c.logs) > 1024 {
		for k, v := range c.logs {
			if len(trim(v.hits, now.Add(-v.window))) == 0 {
				delete(c.logs, k)
			}
		}
	}

	reset := window
	if len(hits) > 0 {
		reset = hits[0].Add(window).Sub(now)
	}
	return count, reset, nil
}

// Reset drops the log of key.
func (c *MemoryCounter) Reset(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.logs, key)
	return nil
}

// trim drops hits at or before cutoff. hits is sorted oldest first.
func trim(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
