package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/bto/internal/core/application"
	"github.com/example/bto/internal/core/eligibility"
	corelisting "github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/core/registration"
	"github.com/example/bto/internal/core/withdrawal"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ledger"
	"github.com/example/bto/internal/ports/secondary"
)

// Load replaces the in-memory state with the repositories' contents.
//
// Users and listings are read first; applications, registrations,
// withdrawals and units are then resolved against them by key. A dangling
// reference fails the load with ErrNotFound. Ledger availability is
// recomputed from held reservations and approved registrations.
func (s *AllocationServiceImpl) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &loader{
		s:             s,
		ctx:           ctx,
		users:         make(map[string]*user),
		listings:      make(map[string]*secondary.ListingRecord),
		applications:  make(map[string]*applicationState),
		registrations: make(map[string]*registrationState),
		withdrawals:   make(map[string]*withdrawalState),
		units:         make(map[string]*unitState),
	}
	for _, step := range []func() error{
		l.loadUsers,
		l.loadListings,
		l.loadApplications,
		l.loadRegistrations,
		l.loadWithdrawals,
		l.loadUnits,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	listings, err := l.buildListings()
	if err != nil {
		return err
	}

	s.users = l.users
	s.listings = listings
	s.applications = l.applications
	s.registrations = l.registrations
	s.withdrawals = l.withdrawals
	s.units = l.units
	s.maxListing, s.maxApplication, s.maxRegistration, s.maxWithdrawal = 0, 0, 0, 0
	for id := range listings {
		s.maxListing = max(s.maxListing, corelisting.ParseListingNumber(id))
	}
	for id := range l.applications {
		s.maxApplication = max(s.maxApplication, application.ParseApplicationNumber(id))
	}
	for id := range l.registrations {
		s.maxRegistration = max(s.maxRegistration, registration.ParseRegistrationNumber(id))
	}
	for id := range l.withdrawals {
		s.maxWithdrawal = max(s.maxWithdrawal, withdrawal.ParseWithdrawalNumber(id))
	}

	s.log.WithFields(logrus.Fields{
		"users":         len(s.users),
		"listings":      len(s.listings),
		"applications":  len(s.applications),
		"registrations": len(s.registrations),
		"withdrawals":   len(s.withdrawals),
		"units":         len(s.units),
	}).Debug("state loaded")
	return nil
}

type loader struct {
	s   *AllocationServiceImpl
	ctx context.Context

	users         map[string]*user
	listings      map[string]*secondary.ListingRecord
	applications  map[string]*applicationState
	registrations map[string]*registrationState
	withdrawals   map[string]*withdrawalState
	units         map[string]*unitState
}

func dangling(kind, id, refKind, refID string) error {
	return fmt.Errorf("%w: %s %s references missing %s %s", outcome.ErrNotFound, kind, id, refKind, refID)
}

func (l *loader) loadUsers() error {
	if l.s.repos.Users == nil {
		return nil
	}
	records, err := l.s.repos.Users.List(l.ctx, secondary.UserFilters{})
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	for _, rec := range records {
		role := ctxutil.Role(rec.Role)
		if !role.Valid() {
			return fmt.Errorf("%w: user %s has unknown role %q", outcome.ErrInvalidRequest, rec.ID, rec.Role)
		}
		marital := eligibility.MaritalStatus(rec.MaritalStatus)
		if marital != eligibility.Single && marital != eligibility.Married {
			return fmt.Errorf("%w: user %s has unknown marital status %q", outcome.ErrInvalidRequest, rec.ID, rec.MaritalStatus)
		}
		l.users[rec.ID] = &user{
			id:            rec.ID,
			name:          rec.Name,
			age:           rec.Age,
			maritalStatus: marital,
			role:          role,
			createdAt:     rec.CreatedAt,
		}
	}
	return nil
}

func (l *loader) loadListings() error {
	if l.s.repos.Listings == nil {
		return nil
	}
	records, err := l.s.repos.Listings.List(l.ctx)
	if err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}
	for _, rec := range records {
		if _, ok := l.users[rec.ManagerID]; !ok {
			return dangling("listing", rec.ID, "manager", rec.ManagerID)
		}
		l.listings[rec.ID] = rec
	}
	return nil
}

func (l *loader) loadApplications() error {
	if l.s.repos.Applications == nil {
		return nil
	}
	records, err := l.s.repos.Applications.List(l.ctx, secondary.ApplicationFilters{})
	if err != nil {
		return fmt.Errorf("failed to load applications: %w", err)
	}
	for _, rec := range records {
		if _, ok := l.users[rec.RequesterID]; !ok {
			return dangling("application", rec.ID, "requester", rec.RequesterID)
		}
		if _, ok := l.listings[rec.ListingID]; !ok {
			return dangling("application", rec.ID, "listing", rec.ListingID)
		}
		status, ok := application.ParseStatus(rec.Status)
		if !ok {
			return fmt.Errorf("%w: application %s has unknown status %q", outcome.ErrInvalidRequest, rec.ID, rec.Status)
		}
		category, err := corelisting.ParseCategory(rec.Category)
		if err != nil {
			return fmt.Errorf("%w: application %s: %v", outcome.ErrInvalidRequest, rec.ID, err)
		}
		a := &applicationState{
			id:          rec.ID,
			requesterID: rec.RequesterID,
			listingID:   rec.ListingID,
			category:    category,
			status:      status,
			boundUnitID: rec.BoundUnitID,
			submittedAt: rec.SubmittedAt,
			updatedAt:   rec.UpdatedAt,
		}
		if application.HoldsUnit(status) {
			a.reserved = &ledger.Unit{ID: rec.ReservedUnitID, ListingID: rec.ListingID, Category: category}
		}
		l.applications[a.id] = a
	}
	return nil
}

func (l *loader) loadRegistrations() error {
	if l.s.repos.Registrations == nil {
		return nil
	}
	records, err := l.s.repos.Registrations.List(l.ctx, secondary.RegistrationFilters{})
	if err != nil {
		return fmt.Errorf("failed to load registrations: %w", err)
	}
	for _, rec := range records {
		if _, ok := l.users[rec.StaffID]; !ok {
			return dangling("registration", rec.ID, "staff", rec.StaffID)
		}
		if _, ok := l.listings[rec.ListingID]; !ok {
			return dangling("registration", rec.ID, "listing", rec.ListingID)
		}
		status, ok := registration.ParseStatus(rec.Status)
		if !ok {
			return fmt.Errorf("%w: registration %s has unknown status %q", outcome.ErrInvalidRequest, rec.ID, rec.Status)
		}
		l.registrations[rec.ID] = &registrationState{
			id:          rec.ID,
			staffID:     rec.StaffID,
			listingID:   rec.ListingID,
			status:      status,
			requestedAt: rec.RequestedAt,
			decidedAt:   rec.DecidedAt,
			decidedBy:   rec.DecidedBy,
		}
	}
	return nil
}

func (l *loader) loadWithdrawals() error {
	if l.s.repos.Withdrawals == nil {
		return nil
	}
	records, err := l.s.repos.Withdrawals.List(l.ctx, secondary.WithdrawalFilters{})
	if err != nil {
		return fmt.Errorf("failed to load withdrawals: %w", err)
	}
	for _, rec := range records {
		if _, ok := l.applications[rec.ApplicationID]; !ok {
			return dangling("withdrawal", rec.ID, "application", rec.ApplicationID)
		}
		status, ok := withdrawal.ParseStatus(rec.Status)
		if !ok {
			return fmt.Errorf("%w: withdrawal %s has unknown status %q", outcome.ErrInvalidRequest, rec.ID, rec.Status)
		}
		l.withdrawals[rec.ID] = &withdrawalState{
			id:            rec.ID,
			applicationID: rec.ApplicationID,
			reason:        rec.Reason,
			status:        status,
			requestedAt:   rec.RequestedAt,
			decidedAt:     rec.DecidedAt,
			decidedBy:     rec.DecidedBy,
		}
	}
	return nil
}

func (l *loader) loadUnits() error {
	if l.s.repos.Units == nil {
		return nil
	}
	for listingID := range l.listings {
		records, err := l.s.repos.Units.List(l.ctx, listingID)
		if err != nil {
			return fmt.Errorf("failed to load units of %s: %w", listingID, err)
		}
		for _, rec := range records {
			if _, ok := l.applications[rec.ApplicationID]; !ok {
				return dangling("unit", rec.ID, "application", rec.ApplicationID)
			}
			category, err := corelisting.ParseCategory(rec.Category)
			if err != nil {
				return fmt.Errorf("%w: unit %s: %v", outcome.ErrInvalidRequest, rec.ID, err)
			}
			l.units[rec.ID] = &unitState{
				id:            rec.ID,
				listingID:     rec.ListingID,
				category:      category,
				applicationID: rec.ApplicationID,
				bookedAt:      rec.BookedAt,
				releasedAt:    rec.ReleasedAt,
			}
		}
	}
	return nil
}

// buildListings rebuilds each listing's ledgers from the loaded lifecycles.
func (l *loader) buildListings() (map[string]*listingState, error) {
	held := make(map[string]map[corelisting.Category]int)
	for _, a := range l.applications {
		if !application.HoldsUnit(a.status) {
			continue
		}
		if held[a.listingID] == nil {
			held[a.listingID] = make(map[corelisting.Category]int)
		}
		held[a.listingID][a.category]++
	}
	staff := make(map[string]map[string]bool)
	for _, r := range l.registrations {
		if r.status != registration.StatusApproved {
			continue
		}
		if staff[r.listingID] == nil {
			staff[r.listingID] = make(map[string]bool)
		}
		staff[r.listingID][r.staffID] = true
	}

	out := make(map[string]*listingState, len(l.listings))
	for id, rec := range l.listings {
		persisted := map[corelisting.Category]ledger.Counts{
			corelisting.CategoryTwoRoom:   {Total: rec.TwoRoomTotal, Available: rec.TwoRoomAvailable},
			corelisting.CategoryThreeRoom: {Total: rec.ThreeRoomTotal, Available: rec.ThreeRoomAvailable},
		}
		counts := make(map[corelisting.Category]ledger.Counts, len(persisted))
		for c, p := range persisted {
			available := p.Total - held[id][c]
			if available != p.Available {
				l.s.log.WithFields(logrus.Fields{
					"listing_id": id,
					"category":   c,
					"persisted":  p.Available,
					"recomputed": available,
				}).Warn("persisted unit availability disagrees with reservations, using recomputed value")
			}
			counts[c] = ledger.Counts{Total: p.Total, Available: available}
		}
		inventory, err := ledger.NewInventory(id, counts)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild inventory: %w", err)
		}

		assigned := staff[id]
		if assigned == nil {
			assigned = make(map[string]bool)
		}
		slotsAvailable := rec.StaffSlotsTotal - len(assigned)
		if slotsAvailable != rec.StaffSlotsAvailable || len(assigned) != len(rec.StaffIDs) {
			l.s.log.WithFields(logrus.Fields{
				"listing_id": id,
				"persisted":  rec.StaffSlotsAvailable,
				"recomputed": slotsAvailable,
			}).Warn("persisted staff slots disagree with approved registrations, using recomputed value")
		}
		slots, err := ledger.NewSlots(id, rec.StaffSlotsTotal, slotsAvailable)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild staff slots: %w", err)
		}

		out[id] = &listingState{
			id:           id,
			name:         rec.Name,
			neighborhood: rec.Neighborhood,
			managerID:    rec.ManagerID,
			visible:      rec.Visible,
			window:       corelisting.Window{Open: rec.OpenAt, Close: rec.CloseAt},
			inventory:    inventory,
			slots:        slots,
			staff:        assigned,
			createdAt:    rec.CreatedAt,
			updatedAt:    rec.UpdatedAt,
		}
	}
	return out, nil
}
