package core

import (
	"fmt"
	"sync"
)

// DeliveryLimiter enforces a maximum number of message deliveries per run.
// Routing is synchronous and the default graph is cyclic, so the limiter is
// what terminates a reaction chain that never stops sending.
type DeliveryLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewDeliveryLimiter creates a new limiter with a max number of deliveries.
// If max == 0, unlimited deliveries are allowed.
func NewDeliveryLimiter(max int) *DeliveryLimiter {
	return &DeliveryLimiter{max: max}
}

// Increment increases the delivery counter and returns an error wrapping
// ErrDeliveryLimitExceeded if the limit is exceeded.
func (dl *DeliveryLimiter) Increment() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.count++
	if dl.max > 0 && dl.count > dl.max {
		return fmt.Errorf("%w: max %d", ErrDeliveryLimitExceeded, dl.max)
	}

	return nil
}

// Count returns the current number of deliveries made.
func (dl *DeliveryLimiter) Count() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	return dl.count
}

// Remaining returns how many deliveries are left before hitting the limit.
func (dl *DeliveryLimiter) Remaining() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.max == 0 {
		return -1 // unlimited
	}

	return dl.max - dl.count
}

// Reset sets the counter back to zero.
func (dl *DeliveryLimiter) Reset() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.count = 0
}
