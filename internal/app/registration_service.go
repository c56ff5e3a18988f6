package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/core/registration"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ledger"
	"github.com/example/bto/internal/ports/primary"
)

// RegisterStaff creates a PENDING registration for the calling staff member.
// No slot is taken until the manager approves.
func (s *AllocationServiceImpl) RegisterStaff(ctx context.Context, req primary.RegisterStaffRequest) (*primary.RegistrationResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staff, err := s.authorize(ctx, ctxutil.RoleStaff)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(req.ListingID)
	if err != nil {
		return nil, err
	}

	guardCtx := registration.RegisterContext{
		StaffID:        staff.id,
		ListingID:      l.id,
		Window:         l.window,
		AvailableSlots: l.slots.Counts().Available,
		Approved:       s.approvedAssignments(staff.id),
	}
	if held := s.heldRegistration(staff.id, l.id); held != nil {
		guardCtx.HeldRegistrationID = held.id
	}
	if active := s.activeApplication(staff.id); active != nil && active.listingID == l.id {
		guardCtx.ActiveApplicationID = active.id
	}
	if result := registration.CanRegister(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	r := &registrationState{
		id:          registration.GenerateRegistrationID(s.maxRegistration),
		staffID:     staff.id,
		listingID:   l.id,
		status:      registration.StatusPending,
		requestedAt: s.now(),
	}
	s.registrations[r.id] = r
	s.maxRegistration++

	s.log.WithFields(logrus.Fields{
		"registration_id": r.id,
		"staff_id":        r.staffID,
		"listing_id":      r.listingID,
	}).Info("staff registration submitted")

	wt := s.writeThrough(ctx)
	wt.registration(r)
	return &primary.RegistrationResponse{Registration: r.toRegistration(), Warnings: wt.warnings}, nil
}

// DecideRegistration approves or rejects a PENDING registration. Approval
// takes a staff slot and re-checks window exclusivity under the slot lock.
func (s *AllocationServiceImpl) DecideRegistration(ctx context.Context, req primary.DecideRegistrationRequest) (*primary.RegistrationResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manager, err := s.authorize(ctx, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	r, ok := s.registrations[req.RegistrationID]
	if !ok {
		return nil, fmt.Errorf("%w: registration %s", outcome.ErrNotFound, req.RegistrationID)
	}
	l, err := s.listingByID(r.listingID)
	if err != nil {
		return nil, err
	}

	guardCtx := registration.DecideContext{
		RegistrationID: r.id,
		Status:         r.status,
		ActorID:        manager.id,
		ManagerID:      l.managerID,
	}
	if result := registration.CanDecide(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	wt := s.writeThrough(ctx)
	if req.Approve {
		approved := s.approvedAssignments(r.staffID)
		err := l.slots.Reserve(func() error {
			return registration.CheckWindows(r.staffID, l.id, l.window, approved).Error()
		})
		if errors.Is(err, ledger.ErrExhausted) {
			return nil, fmt.Errorf("%w: listing %s has no staff slots left", outcome.ErrNoSlots, l.id)
		}
		if err != nil {
			return nil, err
		}
		r.status = registration.StatusApproved
		l.staff[r.staffID] = true
		l.updatedAt = s.now()
	} else {
		r.status = registration.StatusRejected
	}
	r.decidedAt = timePtr(s.now())
	r.decidedBy = manager.id

	s.log.WithFields(logrus.Fields{
		"registration_id": r.id,
		"staff_id":        r.staffID,
		"listing_id":      l.id,
		"status":          r.status,
	}).Info("staff registration decided")

	wt.registration(r)
	if req.Approve {
		wt.listing(l)
	}
	return &primary.RegistrationResponse{Registration: r.toRegistration(), Warnings: wt.warnings}, nil
}

// ListRegistrations lists registrations, ordered by ID.
// Staff see their own; managers see those of listings they run.
func (s *AllocationServiceImpl) ListRegistrations(ctx context.Context, filters primary.RegistrationFilters) ([]*primary.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}

	var out []*primary.Registration
	for _, r := range s.sortedRegistrations() {
		if filters.ListingID != "" && r.listingID != filters.ListingID {
			continue
		}
		if filters.StaffID != "" && r.staffID != filters.StaffID {
			continue
		}
		if filters.Status != "" && string(r.status) != filters.Status {
			continue
		}
		if u.role == ctxutil.RoleStaff && r.staffID != u.id {
			continue
		}
		if u.role == ctxutil.RoleManager {
			if l, ok := s.listings[r.listingID]; !ok || l.managerID != u.id {
				continue
			}
		}
		out = append(out, r.toRegistration())
	}
	return out, nil
}

func (s *AllocationServiceImpl) sortedRegistrations() []*registrationState {
	out := make([]*registrationState, 0, len(s.registrations))
	for _, r := range s.registrations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
