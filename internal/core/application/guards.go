package application

import (
	"github.com/example/bto/internal/core/eligibility"
	"github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
)

// SubmitContext provides context for application submission guards.
type SubmitContext struct {
	RequesterID         string
	ActiveApplicationID string // empty if the requester has no active application
	Category            listing.Category
	Eligibility         eligibility.Result
}

// CanSubmit evaluates whether a requester may submit an application.
// Rules:
// - Requester must not already have an active application (system-wide)
// - Listing must pass eligibility for this requester
// - Requested category must be in the allowed set
func CanSubmit(ctx SubmitContext) outcome.GuardResult {
	if ctx.ActiveApplicationID != "" {
		return outcome.Deny(outcome.ErrAlreadyActive, "%s already has active application %s", ctx.RequesterID, ctx.ActiveApplicationID)
	}
	if !ctx.Eligibility.Allowed {
		return ctx.Eligibility.GuardResult
	}
	if !ctx.Eligibility.Allows(ctx.Category) {
		return outcome.Deny(outcome.ErrIneligible, "%s is not eligible for %s flats", ctx.RequesterID, ctx.Category)
	}
	return outcome.Allow()
}

// DecideContext provides context for the manager's decision guard.
type DecideContext struct {
	ApplicationID     string
	Status            Status
	Category          listing.Category // chosen at submission
	RequestedCategory listing.Category // optional, must match Category when set
	ActorID           string
	ManagerID         string
}

// CanDecide evaluates whether an application can be decided.
// Rules:
// - Actor must be the listing's manager
// - Application must be PENDING
// - A category given at decision time must equal the one chosen at submission
func CanDecide(ctx DecideContext) outcome.GuardResult {
	if ctx.ActorID != ctx.ManagerID {
		return outcome.Deny(outcome.ErrUnauthorized, "only the listing manager can decide %s", ctx.ApplicationID)
	}
	if ctx.Status != StatusPending {
		return outcome.Deny(outcome.ErrNotApprovable, "can only decide pending applications (current status: %s)", ctx.Status)
	}
	if ctx.RequestedCategory != "" && ctx.RequestedCategory != ctx.Category {
		return outcome.Deny(outcome.ErrNotApprovable, "%s was submitted for %s, not %s", ctx.ApplicationID, ctx.Category, ctx.RequestedCategory)
	}
	return outcome.Allow()
}

// UnitHandle identifies a reserved or bound flat unit.
type UnitHandle struct {
	ID        string
	ListingID string
	Category  listing.Category
}

// BookContext provides context for booking guards.
type BookContext struct {
	ApplicationID string
	ListingID     string
	Category      listing.Category
	Status        Status
	BoundUnitID   string     // empty until booked
	Reserved      UnitHandle // handle minted when the application was approved
	Unit          UnitHandle // unit offered for binding
	Authorized    bool       // actor is the manager or approved staff of the listing
}

// CanBook evaluates whether a unit can be bound to an application.
// Rules:
// - Actor must manage or handle the listing
// - Application must be SUCCESSFUL with no bound unit
// - Unit must be the one reserved for this application's listing and category
func CanBook(ctx BookContext) outcome.GuardResult {
	if !ctx.Authorized {
		return outcome.Deny(outcome.ErrUnauthorized, "only staff or the manager of %s can book flats", ctx.ListingID)
	}
	if ctx.Status != StatusSuccessful {
		return outcome.Deny(outcome.ErrNotApprovable, "can only book successful applications (current status: %s)", ctx.Status)
	}
	if ctx.BoundUnitID != "" {
		return outcome.Deny(outcome.ErrNotApprovable, "%s is already bound to unit %s", ctx.ApplicationID, ctx.BoundUnitID)
	}
	if ctx.Unit.ListingID != ctx.ListingID || ctx.Unit.Category != ctx.Category {
		return outcome.Deny(outcome.ErrNotApprovable, "unit %s (%s %s) does not match %s %s", ctx.Unit.ID, ctx.Unit.ListingID, ctx.Unit.Category, ctx.ListingID, ctx.Category)
	}
	if ctx.Unit.ID != ctx.Reserved.ID {
		return outcome.Deny(outcome.ErrNotApprovable, "unit %s was not reserved for %s", ctx.Unit.ID, ctx.ApplicationID)
	}
	return outcome.Allow()
}
