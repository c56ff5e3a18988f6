package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/example/bto/internal/core/eligibility"
	corelisting "github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ledger"
	"github.com/example/bto/internal/ports/primary"
)

// CreateListing creates a new listing managed by the calling manager.
func (s *AllocationServiceImpl) CreateListing(ctx context.Context, req primary.CreateListingRequest) (*primary.ListingResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manager, err := s.authorize(ctx, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}

	window := corelisting.Window{Open: req.OpenAt, Close: req.CloseAt}
	guardCtx := corelisting.CreateListingContext{
		Name:   req.Name,
		Window: window,
		Units: map[corelisting.Category]int{
			corelisting.CategoryTwoRoom:   req.TwoRoomUnits,
			corelisting.CategoryThreeRoom: req.ThreeRoomUnits,
		},
		StaffSlots: req.StaffSlots,
	}
	for _, l := range s.listings {
		if l.name == req.Name {
			guardCtx.NameTaken = true
		}
		if l.managerID == manager.id {
			guardCtx.ManagerActive = append(guardCtx.ManagerActive, corelisting.ManagedListing{ID: l.id, Window: l.window})
		}
	}
	sort.Slice(guardCtx.ManagerActive, func(i, j int) bool { return guardCtx.ManagerActive[i].ID < guardCtx.ManagerActive[j].ID })
	if result := corelisting.CanCreateListing(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	id := corelisting.GenerateListingID(s.maxListing)
	inventory, err := ledger.NewInventory(id, map[corelisting.Category]ledger.Counts{
		corelisting.CategoryTwoRoom:   {Total: req.TwoRoomUnits, Available: req.TwoRoomUnits},
		corelisting.CategoryThreeRoom: {Total: req.ThreeRoomUnits, Available: req.ThreeRoomUnits},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory: %w", err)
	}
	slots, err := ledger.NewSlots(id, req.StaffSlots, req.StaffSlots)
	if err != nil {
		return nil, fmt.Errorf("failed to build staff slots: %w", err)
	}

	now := s.now()
	l := &listingState{
		id:           id,
		name:         req.Name,
		neighborhood: req.Neighborhood,
		managerID:    manager.id,
		visible:      req.Visible,
		window:       window,
		inventory:    inventory,
		slots:        slots,
		staff:        make(map[string]bool),
		createdAt:    now,
		updatedAt:    now,
	}
	s.listings[id] = l
	s.maxListing++

	s.log.WithFields(logrus.Fields{
		"listing_id": id,
		"manager_id": manager.id,
		"window":     window.String(),
	}).Info("listing created")

	wt := s.writeThrough(ctx)
	wt.listing(l)
	return &primary.ListingResponse{Listing: l.toListing(), Warnings: wt.warnings}, nil
}

// SetListingVisibility toggles whether requesters can discover a listing.
func (s *AllocationServiceImpl) SetListingVisibility(ctx context.Context, req primary.SetVisibilityRequest) (*primary.ListingResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manager, err := s.authorize(ctx, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(req.ListingID)
	if err != nil {
		return nil, err
	}
	guardCtx := corelisting.VisibilityContext{ListingID: l.id, ManagerID: l.managerID, ActorID: manager.id}
	if result := corelisting.CanSetVisibility(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	l.visible = req.Visible
	l.updatedAt = s.now()
	s.log.WithField("listing_id", l.id).WithField("visible", req.Visible).Info("listing visibility changed")

	wt := s.writeThrough(ctx)
	wt.listing(l)
	return &primary.ListingResponse{Listing: l.toListing(), Warnings: wt.warnings}, nil
}

// GetListing retrieves a listing by ID. Requesters cannot see hidden listings
// unless they applied to them.
func (s *AllocationServiceImpl) GetListing(ctx context.Context, listingID string) (*primary.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(listingID)
	if err != nil {
		return nil, err
	}
	out := l.toListing()
	if u.role == ctxutil.RoleManager || (u.role == ctxutil.RoleStaff && l.staff[u.id]) {
		return out, nil
	}
	if !l.visible && !s.hasApplied(u.id, l.id) {
		return nil, fmt.Errorf("%w: listing %s is not visible", outcome.ErrHidden, l.id)
	}
	if result := s.evaluate(u, l); result.Allowed {
		out.EligibleCategories = categoryNames(result.Categories)
	}
	return out, nil
}

// ListListings lists listings visible to the caller, ordered by ID.
// Requesters only see listings that pass discovery.
func (s *AllocationServiceImpl) ListListings(ctx context.Context, filters primary.ListingFilters) ([]*primary.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}

	var out []*primary.Listing
	for _, l := range s.sortedListings() {
		if filters.Neighborhood != "" && l.neighborhood != filters.Neighborhood {
			continue
		}
		if filters.ManagerID != "" && l.managerID != filters.ManagerID {
			continue
		}
		view := l.toListing()
		if u.role == ctxutil.RoleRequester {
			result := s.evaluate(u, l)
			if !result.Allowed {
				continue
			}
			view.EligibleCategories = categoryNames(result.Categories)
		}
		if filters.Category != "" && !offers(view, filters.Category) {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}

// evaluate runs the eligibility evaluator for u on l at the current time.
func (s *AllocationServiceImpl) evaluate(u *user, l *listingState) eligibility.Result {
	return eligibility.Evaluate(u.requester(), eligibility.Listing{
		ID:      l.id,
		Visible: l.visible,
		Window:  l.window,
		Units:   l.totals(),
		Blocked: s.heldRegistration(u.id, l.id) != nil,
	}, s.now())
}

func (s *AllocationServiceImpl) hasApplied(requesterID, listingID string) bool {
	for _, a := range s.applications {
		if a.requesterID == requesterID && a.listingID == listingID {
			return true
		}
	}
	return false
}

func (s *AllocationServiceImpl) sortedListings() []*listingState {
	out := make([]*listingState, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// offers reports whether the listing view has units of category, restricted
// to the eligible set when one was computed.
func offers(view *primary.Listing, category string) bool {
	if view.EligibleCategories != nil {
		for _, c := range view.EligibleCategories {
			if c == category {
				return true
			}
		}
		return false
	}
	for _, u := range view.Units {
		if u.Category == category && u.Total > 0 {
			return true
		}
	}
	return false
}

func categoryNames(categories []corelisting.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
