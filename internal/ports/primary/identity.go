// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which external collaborators drive the engine.
package primary

import (
	"context"
	"time"

	"github.com/example/bto/internal/ctxutil"
)

// Role is the closed set of roles carried alongside an identity.
type Role = ctxutil.Role

// Actor is the authenticated identity attached to every call's context.
type Actor = ctxutil.Actor

// Roles.
const (
	RoleRequester = ctxutil.RoleRequester
	RoleStaff     = ctxutil.RoleStaff
	RoleManager   = ctxutil.RoleManager
)

// IdentityService defines the primary port for identity profiles.
// Credentials are out of scope; profiles only carry eligibility inputs and role.
type IdentityService interface {
	// AddUser registers a new identity profile.
	AddUser(ctx context.Context, req AddUserRequest) (*UserResponse, error)

	// ListUsers lists identity profiles, optionally filtered by role.
	ListUsers(ctx context.Context, role Role) ([]*User, error)
}

// AddUserRequest contains parameters for registering an identity.
type AddUserRequest struct {
	ID            string `validate:"required"`
	Name          string `validate:"required"`
	Age           int    `validate:"gte=0,lte=150"`
	MaritalStatus string `validate:"required,oneof=single married"`
	Role          Role   `validate:"required,oneof=applicant officer manager"`
}

// UserResponse contains the result of an identity mutation.
type UserResponse struct {
	User     *User
	Warnings Warnings
}

// User represents an identity profile at the port boundary.
type User struct {
	ID            string
	Name          string
	Age           int
	MaritalStatus string
	Role          Role
	CreatedAt     time.Time
}
