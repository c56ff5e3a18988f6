// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// Role is the closed set of roles an authenticated identity acts under.
type Role string

const (
	RoleRequester Role = "applicant"
	RoleStaff     Role = "officer"
	RoleManager   Role = "manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleStaff || r == RoleManager
}

// Actor is an already-authenticated identity supplied by the session layer.
type Actor struct {
	ID   string
	Role Role
}

// ActorKey is the context key for the actor.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// WithActor returns a context with the actor embedded.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the actor from context and whether one was set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// ActorIDFromContext returns the actor ID from context, or empty string if not set.
func ActorIDFromContext(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.ID
}
