// Package withdrawal contains the pure business logic for withdrawal requests.
// A withdrawal is manager-gated: the requester asks, the manager decides.
package withdrawal

import (
	"fmt"

	"github.com/example/bto/internal/core/application"
	"github.com/example/bto/internal/core/outcome"
)

// Status represents the possible states of a withdrawal request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus validates a persisted or user-supplied status string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// RequestContext provides context for withdrawal request guards.
type RequestContext struct {
	ApplicationID     string
	ApplicationStatus application.Status
	OwnerID           string
	ActorID           string
	PendingRequestID  string // existing PENDING request for the application, if any
}

// CanRequest evaluates whether a withdrawal may be requested.
// Rules:
// - Only the application's requester may ask
// - Application must be PENDING, SUCCESSFUL or BOOKED
// - No other PENDING withdrawal for the same application
func CanRequest(ctx RequestContext) outcome.GuardResult {
	if ctx.ActorID != ctx.OwnerID {
		return outcome.Deny(outcome.ErrUnauthorized, "only the applicant can withdraw %s", ctx.ApplicationID)
	}
	if !application.IsActive(ctx.ApplicationStatus) {
		return outcome.Deny(outcome.ErrNotWithdrawable, "cannot withdraw %s application %s", ctx.ApplicationStatus, ctx.ApplicationID)
	}
	if ctx.PendingRequestID != "" {
		return outcome.Deny(outcome.ErrDuplicateRequest, "withdrawal %s for %s is already pending", ctx.PendingRequestID, ctx.ApplicationID)
	}
	return outcome.Allow()
}

// DecideContext provides context for the manager's withdrawal decision.
type DecideContext struct {
	RequestID         string
	Status            Status
	Approve           bool
	ApplicationStatus application.Status
	ActorID           string
	ManagerID         string
}

// CanDecide evaluates whether a withdrawal request can be decided.
// Rules:
// - Actor must be the listing's manager
// - Request must be PENDING
// - Approval requires the application to still be withdrawable
func CanDecide(ctx DecideContext) outcome.GuardResult {
	if ctx.ActorID != ctx.ManagerID {
		return outcome.Deny(outcome.ErrUnauthorized, "only the listing manager can decide %s", ctx.RequestID)
	}
	if ctx.Status != StatusPending {
		return outcome.Deny(outcome.ErrNotApprovable, "can only decide pending withdrawals (current status: %s)", ctx.Status)
	}
	if ctx.Approve && !application.CanTransition(ctx.ApplicationStatus, application.StatusWithdrawn) {
		return outcome.Deny(outcome.ErrNotWithdrawable, "application is %s and can no longer be withdrawn", ctx.ApplicationStatus)
	}
	return outcome.Allow()
}

// GenerateWithdrawalID generates a withdrawal ID from the current max number.
// The format is WDR-XXX where XXX is a zero-padded 3-digit number.
func GenerateWithdrawalID(currentMax int) string {
	return fmt.Sprintf("WDR-%03d", currentMax+1)
}

// ParseWithdrawalNumber extracts the numeric portion from a withdrawal ID.
// Returns -1 if the ID format is invalid.
func ParseWithdrawalNumber(id string) int {
	var num int
	if _, err := fmt.Sscanf(id, "WDR-%d", &num); err != nil {
		return -1
	}
	return num
}
