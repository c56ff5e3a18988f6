package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/example/bto/internal/core/application"
	corelisting "github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ledger"
	"github.com/example/bto/internal/ports/primary"
)

// SubmitApplication creates a PENDING application for the calling requester.
// Inventory is not touched; many pending applications may outnumber units.
func (s *AllocationServiceImpl) SubmitApplication(ctx context.Context, req primary.SubmitApplicationRequest) (*primary.ApplicationResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	category, err := corelisting.ParseCategory(req.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", outcome.ErrInvalidRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requester, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(req.ListingID)
	if err != nil {
		return nil, err
	}

	guardCtx := application.SubmitContext{
		RequesterID: requester.id,
		Category:    category,
		Eligibility: s.evaluate(requester, l),
	}
	if active := s.activeApplication(requester.id); active != nil {
		guardCtx.ActiveApplicationID = active.id
	}
	if result := application.CanSubmit(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	now := s.now()
	a := &applicationState{
		id:          application.GenerateApplicationID(s.maxApplication),
		requesterID: requester.id,
		listingID:   l.id,
		category:    category,
		status:      application.InitialStatus(),
		submittedAt: now,
		updatedAt:   now,
	}
	s.applications[a.id] = a
	s.maxApplication++

	s.log.WithFields(logrus.Fields{
		"application_id": a.id,
		"requester_id":   a.requesterID,
		"listing_id":     a.listingID,
		"category":       a.category,
	}).Info("application submitted")

	wt := s.writeThrough(ctx)
	wt.application(a)
	return &primary.ApplicationResponse{Application: a.toApplication(), Warnings: wt.warnings}, nil
}

// DecideApplication approves or rejects a PENDING application. Approval
// reserves one unit of the submitted category in the same critical section;
// if none is left the application becomes UNSUCCESSFUL and Downgrade is set.
func (s *AllocationServiceImpl) DecideApplication(ctx context.Context, req primary.DecideApplicationRequest) (*primary.ApplicationResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	var requested corelisting.Category
	if req.Category != "" {
		c, err := corelisting.ParseCategory(req.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", outcome.ErrInvalidRequest, err)
		}
		requested = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manager, err := s.authorize(ctx, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	a, err := s.applicationByID(req.ApplicationID)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(a.listingID)
	if err != nil {
		return nil, err
	}

	guardCtx := application.DecideContext{
		ApplicationID:     a.id,
		Status:            a.status,
		Category:          a.category,
		RequestedCategory: requested,
		ActorID:           manager.id,
		ManagerID:         l.managerID,
	}
	if result := application.CanDecide(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	var downgrade error
	reserved := false
	if req.Approve {
		unit, err := l.inventory.Reserve(a.category)
		switch {
		case err == nil:
			a.reserved = &unit
			reserved = true
		case errors.Is(err, ledger.ErrExhausted):
			downgrade = fmt.Errorf("%w: no %s units left in %s", outcome.ErrNoAvailability, a.category, l.id)
		default:
			return nil, fmt.Errorf("failed to reserve unit: %w", err)
		}
	}

	a.status = application.DecisionStatus(req.Approve, reserved)
	a.updatedAt = s.now()
	l.updatedAt = a.updatedAt

	entry := s.log.WithFields(logrus.Fields{
		"application_id": a.id,
		"listing_id":     l.id,
		"category":       a.category,
		"status":         a.status,
	})
	if downgrade != nil {
		entry.WithError(downgrade).Info("approval downgraded, no stock")
	} else {
		entry.Info("application decided")
	}

	wt := s.writeThrough(ctx)
	wt.application(a)
	if reserved {
		wt.listing(l)
	}
	return &primary.ApplicationResponse{Application: a.toApplication(), Downgrade: downgrade, Warnings: wt.warnings}, nil
}

// BookApplication binds the reserved unit to a SUCCESSFUL application.
// Staff handling the listing and its manager may book.
func (s *AllocationServiceImpl) BookApplication(ctx context.Context, req primary.BookApplicationRequest) (*primary.ApplicationResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.authorize(ctx, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	a, err := s.applicationByID(req.ApplicationID)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(a.listingID)
	if err != nil {
		return nil, err
	}

	var reserved application.UnitHandle
	if a.reserved != nil {
		reserved = application.UnitHandle{ID: a.reserved.ID, ListingID: a.reserved.ListingID, Category: a.reserved.Category}
	}
	offered := reserved
	if req.UnitID != "" && req.UnitID != reserved.ID {
		u, ok := s.units[req.UnitID]
		if !ok {
			return nil, fmt.Errorf("%w: unit %s", outcome.ErrNotFound, req.UnitID)
		}
		offered = application.UnitHandle{ID: u.id, ListingID: u.listingID, Category: u.category}
	}

	guardCtx := application.BookContext{
		ApplicationID: a.id,
		ListingID:     l.id,
		Category:      a.category,
		Status:        a.status,
		BoundUnitID:   a.boundUnitID,
		Reserved:      reserved,
		Unit:          offered,
		Authorized:    actor.id == l.managerID || l.staff[actor.id],
	}
	if result := application.CanBook(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	now := s.now()
	unit := &unitState{
		id:            offered.ID,
		listingID:     l.id,
		category:      a.category,
		applicationID: a.id,
		bookedAt:      now,
	}
	s.units[unit.id] = unit
	a.boundUnitID = unit.id
	a.status = application.StatusBooked
	a.updatedAt = now

	s.log.WithFields(logrus.Fields{
		"application_id": a.id,
		"unit_id":        unit.id,
		"booked_by":      actor.id,
	}).Info("flat booked")

	wt := s.writeThrough(ctx)
	wt.unit(unit)
	wt.application(a)
	return &primary.ApplicationResponse{Application: a.toApplication(), Warnings: wt.warnings}, nil
}

// GetApplication retrieves an application by ID.
// Requesters may only read their own applications.
func (s *AllocationServiceImpl) GetApplication(ctx context.Context, applicationID string) (*primary.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	a, err := s.applicationByID(applicationID)
	if err != nil {
		return nil, err
	}
	if !s.canRead(u, a) {
		return nil, fmt.Errorf("%w: %s cannot read %s", outcome.ErrUnauthorized, u.id, a.id)
	}
	return a.toApplication(), nil
}

// ActiveApplication returns the requester's active application, or ErrNotFound.
func (s *AllocationServiceImpl) ActiveApplication(ctx context.Context, requesterID string) (*primary.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	if requesterID == "" {
		requesterID = u.id
	}
	a := s.activeApplication(requesterID)
	if a == nil {
		return nil, fmt.Errorf("%w: %s has no active application", outcome.ErrNotFound, requesterID)
	}
	if !s.canRead(u, a) {
		return nil, fmt.Errorf("%w: %s cannot read %s", outcome.ErrUnauthorized, u.id, a.id)
	}
	return a.toApplication(), nil
}

// ListApplications lists applications matching the filters, ordered by ID.
func (s *AllocationServiceImpl) ListApplications(ctx context.Context, filters primary.ApplicationFilters) ([]*primary.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}

	var out []*primary.Application
	for _, a := range s.sortedApplications() {
		if filters.ListingID != "" && a.listingID != filters.ListingID {
			continue
		}
		if filters.RequesterID != "" && a.requesterID != filters.RequesterID {
			continue
		}
		if filters.Status != "" && string(a.status) != filters.Status {
			continue
		}
		if !s.canRead(u, a) {
			continue
		}
		out = append(out, a.toApplication())
	}
	return out, nil
}

// canRead reports whether u may see a: its requester, staff handling the
// listing, or any manager.
func (s *AllocationServiceImpl) canRead(u *user, a *applicationState) bool {
	switch {
	case u.role == ctxutil.RoleManager:
		return true
	case a.requesterID == u.id:
		return true
	case u.role == ctxutil.RoleStaff:
		l, ok := s.listings[a.listingID]
		return ok && l.staff[u.id]
	}
	return false
}

func (s *AllocationServiceImpl) sortedApplications() []*applicationState {
	out := make([]*applicationState, 0, len(s.applications))
	for _, a := range s.applications {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
