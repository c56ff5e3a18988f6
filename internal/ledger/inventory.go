package ledger

import (
	"fmt"

	"github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/idgen"
)

// Unit is a reserved flat handle. It is minted by Reserve and persisted only
// when bound at booking time.
type Unit struct {
	ID        string
	ListingID string
	Category  listing.Category
}

// Counts is a total/available pair.
type Counts struct {
	Total     int
	Available int
}

// Inventory is the per-listing Inventory Ledger.
type Inventory struct {
	listingID string
	counters  map[listing.Category]*Counter
}

// NewInventory builds the inventory ledger for a listing. Categories missing
// from counts are created with zero units.
func NewInventory(listingID string, counts map[listing.Category]Counts) (*Inventory, error) {
	inv := &Inventory{
		listingID: listingID,
		counters:  make(map[listing.Category]*Counter, len(listing.Categories)),
	}
	for _, c := range listing.Categories {
		n := counts[c]
		counter, err := NewCounter(n.Total, n.Available)
		if err != nil {
			return nil, fmt.Errorf("listing %s %s: %w", listingID, c, err)
		}
		inv.counters[c] = counter
	}
	return inv, nil
}

// Reserve takes one unit of category and returns its handle.
func (inv *Inventory) Reserve(category listing.Category) (Unit, error) {
	counter, err := inv.counter(category)
	if err != nil {
		return Unit{}, err
	}
	if err := counter.Reserve(); err != nil {
		return Unit{}, fmt.Errorf("listing %s %s: %w", inv.listingID, category, err)
	}
	return Unit{
		ID:        "UNIT-" + idgen.Short(),
		ListingID: inv.listingID,
		Category:  category,
	}, nil
}

// Release returns one unit of category.
func (inv *Inventory) Release(category listing.Category) error {
	counter, err := inv.counter(category)
	if err != nil {
		return err
	}
	if err := counter.Release(); err != nil {
		return fmt.Errorf("listing %s %s: %w", inv.listingID, category, err)
	}
	return nil
}

// Counts returns a snapshot of every category.
func (inv *Inventory) Counts() map[listing.Category]Counts {
	out := make(map[listing.Category]Counts, len(inv.counters))
	for c, counter := range inv.counters {
		total, available := counter.Snapshot()
		out[c] = Counts{Total: total, Available: available}
	}
	return out
}

func (inv *Inventory) counter(category listing.Category) (*Counter, error) {
	counter, ok := inv.counters[category]
	if !ok {
		return nil, fmt.Errorf("listing %s has no category %q", inv.listingID, category)
	}
	return counter, nil
}
