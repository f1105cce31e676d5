package txn

import (
	"sync"
	"time"
)

// Clock supplies the ledger timestamp in seconds.
type Clock interface {
	Now() uint64
}

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	mu sync.Mutex
	ts uint64
}

func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{ts: start}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts
}

// Advance moves the clock forward by seconds.
func (c *ManualClock) Advance(seconds uint64) {
	c.mu.Lock()
	c.ts += seconds
	c.mu.Unlock()
}

// SystemClock reads wall-clock seconds but never goes backwards.
type SystemClock struct {
	mu   sync.Mutex
	last uint64
}

func (c *SystemClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := uint64(time.Now().Unix())
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}
