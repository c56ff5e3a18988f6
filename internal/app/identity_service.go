package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/bto/internal/core/eligibility"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/ports/primary"
)

var _ primary.IdentityService = (*AllocationServiceImpl)(nil)

// AddUser registers an identity profile. IDs are natural keys and must be unique.
func (s *AllocationServiceImpl) AddUser(ctx context.Context, req primary.AddUserRequest) (*primary.UserResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[req.ID]; exists {
		return nil, fmt.Errorf("%w: user %s already exists", outcome.ErrInvalidRequest, req.ID)
	}
	u := &user{
		id:            req.ID,
		name:          req.Name,
		age:           req.Age,
		maritalStatus: eligibility.MaritalStatus(req.MaritalStatus),
		role:          req.Role,
		createdAt:     s.now(),
	}
	s.users[u.id] = u

	s.log.WithField("user_id", u.id).WithField("role", u.role).Info("user added")

	wt := s.writeThrough(ctx)
	wt.user(u)
	return &primary.UserResponse{User: u.toUser(), Warnings: wt.warnings}, nil
}

// ListUsers lists identity profiles ordered by ID. An empty role lists all.
func (s *AllocationServiceImpl) ListUsers(ctx context.Context, role primary.Role) ([]*primary.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*primary.User, 0, len(s.users))
	for _, u := range s.users {
		if role != "" && u.role != role {
			continue
		}
		out = append(out, u.toUser())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
