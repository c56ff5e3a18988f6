// Package eligibility decides which flat categories a requester may apply for.
// Evaluation is pure: callers pass the current time and everything else they know.
package eligibility

import (
	"time"

	"github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
)

// MaritalStatus is the requester's marital-status category.
type MaritalStatus string

const (
	Single  MaritalStatus = "single"
	Married MaritalStatus = "married"
)

// Age thresholds for each marital status.
const (
	MinSingleAge  = 35
	MinMarriedAge = 21
)

// Requester is the profile slice the evaluator reads.
type Requester struct {
	ID            string
	Age           int
	MaritalStatus MaritalStatus
}

// Listing is the listing slice the evaluator reads.
type Listing struct {
	ID      string
	Visible bool
	Window  listing.Window
	// Units holds the total unit count per category; a category with zero
	// total units is not offered by the listing.
	Units map[listing.Category]int
	// Blocked is set when the requester already has a staff relationship
	// with the listing (pending or approved registration).
	Blocked bool
}

// Result is the outcome of an eligibility evaluation.
type Result struct {
	outcome.GuardResult
	Categories []listing.Category
}

// Allows reports whether c is in the allowed set.
func (r Result) Allows(c listing.Category) bool {
	for _, allowed := range r.Categories {
		if allowed == c {
			return true
		}
	}
	return false
}

// CategoriesFor returns the categories a requester qualifies for by profile alone.
// Rules:
// - 2-room: single requesters aged 35+, married requesters aged 21+
// - 3-room: married requesters aged 21+
func CategoriesFor(r Requester) []listing.Category {
	switch r.MaritalStatus {
	case Single:
		if r.Age >= MinSingleAge {
			return []listing.Category{listing.CategoryTwoRoom}
		}
	case Married:
		if r.Age >= MinMarriedAge {
			return []listing.Category{listing.CategoryTwoRoom, listing.CategoryThreeRoom}
		}
	}
	return nil
}

// Evaluate determines the categories r may apply for on l at time now.
// Rules, in order:
// - Listing must be visible (Hidden)
// - now must fall within the application window (NotOpen)
// - Requester must not hold a staff relationship with the listing (RoleConflict)
// - Profile rules intersected with offered categories must be non-empty (Ineligible)
func Evaluate(r Requester, l Listing, now time.Time) Result {
	if !l.Visible {
		return Result{GuardResult: outcome.Deny(outcome.ErrHidden, "listing %s is not visible", l.ID)}
	}
	if !l.Window.Contains(now) {
		return Result{GuardResult: outcome.Deny(outcome.ErrNotOpen, "listing %s is not accepting applications (window %s)", l.ID, l.Window)}
	}
	if l.Blocked {
		return Result{GuardResult: outcome.Deny(outcome.ErrRoleConflict, "%s handles listing %s as staff", r.ID, l.ID)}
	}

	var allowed []listing.Category
	for _, c := range CategoriesFor(r) {
		if l.Units[c] > 0 {
			allowed = append(allowed, c)
		}
	}
	if len(allowed) == 0 {
		return Result{GuardResult: outcome.Deny(outcome.ErrIneligible, "%s (%s, age %d) is not eligible for any flat type in %s", r.ID, r.MaritalStatus, r.Age, l.ID)}
	}

	return Result{GuardResult: outcome.Allow(), Categories: allowed}
}
