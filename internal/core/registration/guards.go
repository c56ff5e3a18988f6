// Package registration contains the pure business logic for staff
// registrations against a listing's officer slots.
package registration

import (
	"fmt"

	"github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
)

// Status represents the possible states of a staff registration.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsHeld reports whether a registration in status s occupies the
// (staff, listing) pair.
func IsHeld(s Status) bool {
	return s == StatusPending || s == StatusApproved
}

// ParseStatus validates a persisted or user-supplied status string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// Assignment is an approved staff assignment on some listing.
type Assignment struct {
	ListingID string
	Window    listing.Window
}

// RegisterContext provides context for registration guards.
type RegisterContext struct {
	StaffID             string
	ListingID           string
	Window              listing.Window
	HeldRegistrationID  string // PENDING/APPROVED registration on this listing, if any
	AvailableSlots      int
	Approved            []Assignment // staff's approved assignments on other listings
	ActiveApplicationID string       // staff's active application on this listing as a requester, if any
}

// CanRegister evaluates whether a staff member may register for a listing.
// Rules:
// - No PENDING/APPROVED registration for the same (staff, listing)
// - Listing must have an available staff slot
// - Window must not overlap any approved assignment
// - Staff must not hold an active application for the same listing
func CanRegister(ctx RegisterContext) outcome.GuardResult {
	if ctx.HeldRegistrationID != "" {
		return outcome.Deny(outcome.ErrAlreadyRegistered, "%s already registered for %s (%s)", ctx.StaffID, ctx.ListingID, ctx.HeldRegistrationID)
	}
	if ctx.AvailableSlots <= 0 {
		return outcome.Deny(outcome.ErrNoSlots, "listing %s has no staff slots left", ctx.ListingID)
	}
	if result := CheckWindows(ctx.StaffID, ctx.ListingID, ctx.Window, ctx.Approved); !result.Allowed {
		return result
	}
	if ctx.ActiveApplicationID != "" {
		return outcome.Deny(outcome.ErrRoleConflict, "%s has active application %s for %s", ctx.StaffID, ctx.ActiveApplicationID, ctx.ListingID)
	}
	return outcome.Allow()
}

// CheckWindows denies when window overlaps any assignment on another listing.
func CheckWindows(staffID, listingID string, window listing.Window, approved []Assignment) outcome.GuardResult {
	for _, a := range approved {
		if a.ListingID == listingID {
			continue
		}
		if a.Window.Overlaps(window) {
			return outcome.Deny(outcome.ErrWindowConflict, "%s already handles %s during %s, which overlaps %s", staffID, a.ListingID, a.Window, window)
		}
	}
	return outcome.Allow()
}

// DecideContext provides context for the manager's registration decision.
type DecideContext struct {
	RegistrationID string
	Status         Status
	ActorID        string
	ManagerID      string
}

// CanDecide evaluates whether a registration can be decided.
// Rules:
// - Actor must be the listing's manager
// - Registration must be PENDING
func CanDecide(ctx DecideContext) outcome.GuardResult {
	if ctx.ActorID != ctx.ManagerID {
		return outcome.Deny(outcome.ErrUnauthorized, "only the listing manager can decide %s", ctx.RegistrationID)
	}
	if ctx.Status != StatusPending {
		return outcome.Deny(outcome.ErrNotApprovable, "can only decide pending registrations (current status: %s)", ctx.Status)
	}
	return outcome.Allow()
}

// GenerateRegistrationID generates a registration ID from the current max number.
// The format is REG-XXX where XXX is a zero-padded 3-digit number.
func GenerateRegistrationID(currentMax int) string {
	return fmt.Sprintf("REG-%03d", currentMax+1)
}

// ParseRegistrationNumber extracts the numeric portion from a registration ID.
// Returns -1 if the ID format is invalid.
func ParseRegistrationNumber(id string) int {
	var num int
	if _, err := fmt.Sscanf(id, "REG-%d", &num); err != nil {
		return -1
	}
	return num
}
