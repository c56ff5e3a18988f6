package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/bto/internal/ports/primary"
)

// IdentityAdapter translates user management commands to IdentityService calls.
type IdentityAdapter struct {
	service primary.IdentityService
	out     io.Writer
}

// NewIdentityAdapter creates a new IdentityAdapter with the given service.
func NewIdentityAdapter(service primary.IdentityService, out io.Writer) *IdentityAdapter {
	return &IdentityAdapter{
		service: service,
		out:     out,
	}
}

// Add registers a user profile.
func (a *IdentityAdapter) Add(ctx context.Context, req primary.AddUserRequest) (*primary.User, error) {
	resp, err := a.service.AddUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add user: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Added %s %s: %s\n", resp.User.Role, resp.User.ID, resp.User.Name)
	for _, w := range resp.Warnings {
		fmt.Fprintf(a.out, "  warning: %v\n", w)
	}
	return resp.User, nil
}

// List prints users, optionally restricted to one role.
func (a *IdentityAdapter) List(ctx context.Context, role primary.Role) ([]*primary.User, error) {
	users, err := a.service.ListUsers(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Load the development fixtures:")
		fmt.Fprintln(a.out, "  bto seed")
		return users, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tMARITAL\tROLE")
	fmt.Fprintln(w, "--\t----\t---\t-------\t----")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", u.ID, u.Name, u.Age, u.MaritalStatus, u.Role)
	}
	w.Flush()
	return users, nil
}
