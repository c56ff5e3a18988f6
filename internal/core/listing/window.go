// Package listing contains the pure business logic for housing project listings.
// This is part of the Functional Core - no I/O, only pure functions.
package listing

import (
	"fmt"
	"time"
)

// Category is a flat-size class within a listing.
type Category string

const (
	// CategoryTwoRoom is the smaller unit type.
	CategoryTwoRoom Category = "2-room"
	// CategoryThreeRoom is the larger unit type.
	CategoryThreeRoom Category = "3-room"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryTwoRoom, CategoryThreeRoom}

// ParseCategory accepts the canonical names plus the short forms used on the
// command line ("2", "3", "2room", "two-room", ...).
func ParseCategory(s string) (Category, error) {
	switch s {
	case "2-room", "2room", "2", "two-room", "A", "a":
		return CategoryTwoRoom, nil
	case "3-room", "3room", "3", "three-room", "B", "b":
		return CategoryThreeRoom, nil
	}
	return "", fmt.Errorf("unknown flat category %q (want 2-room or 3-room)", s)
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	return c == CategoryTwoRoom || c == CategoryThreeRoom
}

// Window is a listing's application period.
type Window struct {
	Open  time.Time
	Close time.Time
}

// Contains reports whether t falls in the closed interval [Open, Close].
// Discovery uses closed bounds.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Open) && !t.After(w.Close)
}

// Overlaps reports whether two windows conflict under half-open semantics:
// [a,b) and [c,d) overlap iff a < d and c < b.
func (w Window) Overlaps(o Window) bool {
	return w.Open.Before(o.Close) && o.Open.Before(w.Close)
}

// Valid reports whether the window opens strictly before it closes.
func (w Window) Valid() bool {
	return w.Open.Before(w.Close)
}

// String renders the window as dates.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Open.Format("2006-01-02"), w.Close.Format("2006-01-02"))
}
