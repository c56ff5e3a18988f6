// Package outcome defines the business outcomes shared by every guard in the
// functional core. All of them are expected results, returned as values.
package outcome

import (
	"errors"
	"fmt"
)

// Business outcomes returned by the allocation engine.
var (
	ErrIneligible        = errors.New("ineligible")
	ErrHidden            = errors.New("hidden")
	ErrNotOpen           = errors.New("not_open")
	ErrAlreadyActive     = errors.New("already_active")
	ErrNoAvailability    = errors.New("no_availability")
	ErrNotApprovable     = errors.New("not_approvable")
	ErrAlreadyRegistered = errors.New("already_registered")
	ErrNoSlots           = errors.New("no_slots")
	ErrWindowConflict    = errors.New("window_conflict")
	ErrRoleConflict      = errors.New("role_conflict")
	ErrNotWithdrawable   = errors.New("not_withdrawable")
	ErrDuplicateRequest  = errors.New("duplicate_request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidRequest    = errors.New("invalid_request")
)

// ErrPersistenceFailed marks a write-through failure. It is a warning: the
// in-memory state already reflects the mutation and is not rolled back.
var ErrPersistenceFailed = errors.New("persistence_failed")

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Code    error
	Reason  string
}

// Allow returns a passing guard result.
func Allow() GuardResult {
	return GuardResult{Allowed: true}
}

// Deny returns a failing guard result carrying the outcome code.
func Deny(code error, format string, args ...any) GuardResult {
	return GuardResult{
		Allowed: false,
		Code:    code,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// Error converts the guard result to an error if not allowed.
// The returned error matches Code under errors.Is.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Code == nil {
		return errors.New(r.Reason)
	}
	return fmt.Errorf("%w: %s", r.Code, r.Reason)
}

// Code returns the taxonomy sentinel matched by err, or nil if err is not
// a business outcome.
func Code(err error) error {
	for _, code := range []error{
		ErrIneligible, ErrHidden, ErrNotOpen, ErrAlreadyActive, ErrNoAvailability,
		ErrNotApprovable, ErrAlreadyRegistered, ErrNoSlots, ErrWindowConflict,
		ErrRoleConflict, ErrNotWithdrawable, ErrDuplicateRequest, ErrUnauthorized,
		ErrNotFound, ErrInvalidRequest, ErrPersistenceFailed,
	} {
		if errors.Is(err, code) {
			return code
		}
	}
	return nil
}
