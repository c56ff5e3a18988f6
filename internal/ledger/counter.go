// Package ledger keeps the scarce-resource counters of a listing: flat units
// per category and staff slots. Every check-and-decrement is one critical
// section; a release beyond total is rejected, never clamped.
package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrExhausted is returned by a reserve when available is zero.
	ErrExhausted = errors.New("ledger exhausted")
	// ErrReleaseOverflow is returned when a release would push available above total.
	// It indicates a caller bug.
	ErrReleaseOverflow = errors.New("ledger release beyond total")
	// ErrInvalidCounts is returned when a counter is built with inconsistent values.
	ErrInvalidCounts = errors.New("ledger invalid counts")
)

// Counter is a total/available pair guarded by a mutex.
type Counter struct {
	mu        sync.Mutex
	total     int
	available int
}

// NewCounter creates a counter. Requires 0 <= available <= total.
func NewCounter(total, available int) (*Counter, error) {
	if total < 0 || available < 0 || available > total {
		return nil, fmt.Errorf("%w: total=%d available=%d", ErrInvalidCounts, total, available)
	}
	return &Counter{total: total, available: available}, nil
}

// Reserve decrements available by one iff it is positive.
func (c *Counter) Reserve() error {
	return c.ReserveIf(nil)
}

// ReserveIf runs check and then decrements, both under the counter's lock,
// so no concurrent caller can observe the check and the decrement apart.
// A non-nil error from check aborts the reservation and is returned as is.
func (c *Counter) ReserveIf(check func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available <= 0 {
		return ErrExhausted
	}
	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}
	c.available--
	return nil
}

// Release increments available by one. It fails if available already equals total.
func (c *Counter) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available >= c.total {
		return fmt.Errorf("%w: available=%d total=%d", ErrReleaseOverflow, c.available, c.total)
	}
	c.available++
	return nil
}

// Snapshot returns total and available.
func (c *Counter) Snapshot() (total, available int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.available
}

// Available returns the available count.
func (c *Counter) Available() int {
	_, available := c.Snapshot()
	return available
}
