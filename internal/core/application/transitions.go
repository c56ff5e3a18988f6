// Package application contains the pure business logic for flat applications.
// This is part of the Functional Core - no I/O, only pure functions.
package application

// Status represents the possible states of an application.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusSuccessful   Status = "SUCCESSFUL"
	StatusUnsuccessful Status = "UNSUCCESSFUL"
	StatusBooked       Status = "BOOKED"
	StatusWithdrawn    Status = "WITHDRAWN"
)

// transitions lists every legal edge. WITHDRAWN is only entered through an
// approved withdrawal request.
var transitions = map[Status][]Status{
	StatusPending:    {StatusSuccessful, StatusUnsuccessful, StatusWithdrawn},
	StatusSuccessful: {StatusBooked, StatusWithdrawn},
	StatusBooked:     {StatusWithdrawn},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActive reports whether an application in status s blocks its requester
// from submitting another one.
func IsActive(s Status) bool {
	return s == StatusPending || s == StatusSuccessful || s == StatusBooked
}

// HoldsUnit reports whether an application in status s holds a reserved unit.
func HoldsUnit(s Status) bool {
	return s == StatusSuccessful || s == StatusBooked
}

// IsTerminal reports whether s has no outgoing edges.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// ParseStatus validates a persisted or user-supplied status string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusSuccessful, StatusUnsuccessful, StatusBooked, StatusWithdrawn:
		return st, true
	}
	return "", false
}

// InitialStatus returns the initial status for a new application.
func InitialStatus() Status {
	return StatusPending
}

// DecisionStatus returns the status a PENDING application moves to.
// Approval without stock is downgraded to UNSUCCESSFUL rather than failing.
func DecisionStatus(approve, reserved bool) Status {
	if approve && reserved {
		return StatusSuccessful
	}
	return StatusUnsuccessful
}
