package ledger

import "fmt"

// Slots is the per-listing Slot Ledger for staff assignments.
type Slots struct {
	listingID string
	counter   *Counter
}

// NewSlots builds the slot ledger for a listing.
func NewSlots(listingID string, total, available int) (*Slots, error) {
	counter, err := NewCounter(total, available)
	if err != nil {
		return nil, fmt.Errorf("listing %s staff slots: %w", listingID, err)
	}
	return &Slots{listingID: listingID, counter: counter}, nil
}

// Reserve takes one staff slot after exclusive passes. exclusive runs inside
// the ledger's critical section and typically re-checks the staff member's
// assignment windows against this listing.
func (s *Slots) Reserve(exclusive func() error) error {
	if err := s.counter.ReserveIf(exclusive); err != nil {
		return fmt.Errorf("listing %s staff slots: %w", s.listingID, err)
	}
	return nil
}

// Release returns one staff slot.
func (s *Slots) Release() error {
	if err := s.counter.Release(); err != nil {
		return fmt.Errorf("listing %s staff slots: %w", s.listingID, err)
	}
	return nil
}

// Counts returns a snapshot of the slot counter.
func (s *Slots) Counts() Counts {
	total, available := s.counter.Snapshot()
	return Counts{Total: total, Available: available}
}
