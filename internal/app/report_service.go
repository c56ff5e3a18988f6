package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/bto/internal/core/application"
	corelisting "github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ports/primary"
)

// BookingReport returns one row per BOOKED application on listings the
// caller manages or handles, ordered by listing then application.
func (s *AllocationServiceImpl) BookingReport(ctx context.Context, filters primary.BookingReportFilters) ([]*primary.BookingReportRow, error) {
	var category corelisting.Category
	if filters.Category != "" {
		c, err := corelisting.ParseCategory(filters.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", outcome.ErrInvalidRequest, err)
		}
		category = c
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}

	var rows []*primary.BookingReportRow
	for _, a := range s.applications {
		if a.status != application.StatusBooked {
			continue
		}
		l, ok := s.listings[a.listingID]
		if !ok || (l.managerID != u.id && !l.staff[u.id]) {
			continue
		}
		if filters.ListingID != "" && l.id != filters.ListingID {
			continue
		}
		if category != "" && a.category != category {
			continue
		}
		requester := s.users[a.requesterID]
		if requester == nil {
			continue
		}
		if filters.MaritalStatus != "" && string(requester.maritalStatus) != filters.MaritalStatus {
			continue
		}
		row := &primary.BookingReportRow{
			ApplicationID: a.id,
			ListingID:     l.id,
			ListingName:   l.name,
			Neighborhood:  l.neighborhood,
			Category:      string(a.category),
			UnitID:        a.boundUnitID,
			RequesterID:   requester.id,
			RequesterName: requester.name,
			Age:           requester.age,
			MaritalStatus: string(requester.maritalStatus),
		}
		if unit, ok := s.units[a.boundUnitID]; ok {
			row.BookedAt = unit.bookedAt
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ListingID != rows[j].ListingID {
			return rows[i].ListingID < rows[j].ListingID
		}
		return rows[i].ApplicationID < rows[j].ApplicationID
	})
	return rows, nil
}
