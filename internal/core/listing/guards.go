package listing

import "github.com/example/bto/internal/core/outcome"

// MaxStaffSlots caps the number of officers that can handle one listing.
const MaxStaffSlots = 10

// ManagedListing is the minimal view of a listing already run by a manager.
type ManagedListing struct {
	ID     string
	Window Window
}

// CreateListingContext provides context for listing creation guards.
type CreateListingContext struct {
	Name          string
	NameTaken     bool
	Window        Window
	Units         map[Category]int
	StaffSlots    int
	ManagerActive []ManagedListing // listings the manager already runs
}

// CanCreateListing evaluates whether a manager may create a listing.
// Rules:
// - Name must be unique
// - Window must open before it closes
// - Unit counts must be non-negative and staff slots within 1..MaxStaffSlots
// - Manager must not already run a listing with an overlapping window
func CanCreateListing(ctx CreateListingContext) outcome.GuardResult {
	if ctx.NameTaken {
		return outcome.Deny(outcome.ErrInvalidRequest, "listing name %q already exists", ctx.Name)
	}
	if !ctx.Window.Valid() {
		return outcome.Deny(outcome.ErrInvalidRequest, "application window %s must open before it closes", ctx.Window)
	}
	for _, c := range Categories {
		if ctx.Units[c] < 0 {
			return outcome.Deny(outcome.ErrInvalidRequest, "unit count for %s cannot be negative", c)
		}
	}
	if ctx.StaffSlots < 1 || ctx.StaffSlots > MaxStaffSlots {
		return outcome.Deny(outcome.ErrInvalidRequest, "staff slots must be between 1 and %d (got %d)", MaxStaffSlots, ctx.StaffSlots)
	}
	for _, m := range ctx.ManagerActive {
		if m.Window.Overlaps(ctx.Window) {
			return outcome.Deny(outcome.ErrWindowConflict, "manager already runs %s during %s", m.ID, m.Window)
		}
	}
	return outcome.Allow()
}

// VisibilityContext provides context for visibility toggling.
type VisibilityContext struct {
	ListingID string
	ManagerID string
	ActorID   string
}

// CanSetVisibility evaluates whether the actor may toggle a listing's visibility.
func CanSetVisibility(ctx VisibilityContext) outcome.GuardResult {
	if ctx.ActorID != ctx.ManagerID {
		return outcome.Deny(outcome.ErrUnauthorized, "only the manager of %s can change its visibility", ctx.ListingID)
	}
	return outcome.Allow()
}
