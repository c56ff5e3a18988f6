package app

import (
	"sort"
	"time"

	"github.com/example/bto/internal/core/application"
	"github.com/example/bto/internal/core/eligibility"
	"github.com/example/bto/internal/core/listing"
	"github.com/example/bto/internal/core/registration"
	"github.com/example/bto/internal/core/withdrawal"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ledger"
	"github.com/example/bto/internal/ports/primary"
	"github.com/example/bto/internal/ports/secondary"
)

// user is an identity profile resolved from the user repository.
type user struct {
	id            string
	name          string
	age           int
	maritalStatus eligibility.MaritalStatus
	role          ctxutil.Role
	createdAt     time.Time
}

func (u *user) requester() eligibility.Requester {
	return eligibility.Requester{ID: u.id, Age: u.age, MaritalStatus: u.maritalStatus}
}

func (u *user) toRecord() *secondary.UserRecord {
	return &secondary.UserRecord{
		ID:            u.id,
		Name:          u.name,
		Age:           u.age,
		MaritalStatus: string(u.maritalStatus),
		Role:          string(u.role),
		CreatedAt:     u.createdAt,
	}
}

func (u *user) toUser() *primary.User {
	return &primary.User{
		ID:            u.id,
		Name:          u.name,
		Age:           u.age,
		MaritalStatus: string(u.maritalStatus),
		Role:          u.role,
		CreatedAt:     u.createdAt,
	}
}

// listingState owns a listing's ledgers and staff set.
type listingState struct {
	id           string
	name         string
	neighborhood string
	managerID    string
	visible      bool
	window       listing.Window
	inventory    *ledger.Inventory
	slots        *ledger.Slots
	staff        map[string]bool
	createdAt    time.Time
	updatedAt    time.Time
}

func (l *listingState) totals() map[listing.Category]int {
	out := make(map[listing.Category]int, len(listing.Categories))
	for c, n := range l.inventory.Counts() {
		out[c] = n.Total
	}
	return out
}

func (l *listingState) staffIDs() []string {
	ids := make([]string, 0, len(l.staff))
	for id := range l.staff {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (l *listingState) toRecord() *secondary.ListingRecord {
	counts := l.inventory.Counts()
	slots := l.slots.Counts()
	return &secondary.ListingRecord{
		ID:                  l.id,
		Name:                l.name,
		Neighborhood:        l.neighborhood,
		ManagerID:           l.managerID,
		Visible:             l.visible,
		OpenAt:              l.window.Open,
		CloseAt:             l.window.Close,
		TwoRoomTotal:        counts[listing.CategoryTwoRoom].Total,
		TwoRoomAvailable:    counts[listing.CategoryTwoRoom].Available,
		ThreeRoomTotal:      counts[listing.CategoryThreeRoom].Total,
		ThreeRoomAvailable:  counts[listing.CategoryThreeRoom].Available,
		StaffSlotsTotal:     slots.Total,
		StaffSlotsAvailable: slots.Available,
		StaffIDs:            l.staffIDs(),
		CreatedAt:           l.createdAt,
		UpdatedAt:           l.updatedAt,
	}
}

func (l *listingState) toListing() *primary.Listing {
	counts := l.inventory.Counts()
	slots := l.slots.Counts()
	out := &primary.Listing{
		ID:             l.id,
		Name:           l.name,
		Neighborhood:   l.neighborhood,
		ManagerID:      l.managerID,
		Visible:        l.visible,
		OpenAt:         l.window.Open,
		CloseAt:        l.window.Close,
		StaffSlots:     slots.Total,
		AvailableSlots: slots.Available,
		StaffIDs:       l.staffIDs(),
		CreatedAt:      l.createdAt,
	}
	for _, c := range listing.Categories {
		out.Units = append(out.Units, primary.CategoryCount{
			Category:  string(c),
			Total:     counts[c].Total,
			Available: counts[c].Available,
		})
	}
	return out
}

// applicationState is the authoritative lifecycle of one application.
type applicationState struct {
	id          string
	requesterID string
	listingID   string
	category    listing.Category
	status      application.Status
	reserved    *ledger.Unit
	boundUnitID string
	submittedAt time.Time
	updatedAt   time.Time
}

func (a *applicationState) toRecord() *secondary.ApplicationRecord {
	rec := &secondary.ApplicationRecord{
		ID:          a.id,
		RequesterID: a.requesterID,
		ListingID:   a.listingID,
		Category:    string(a.category),
		Status:      string(a.status),
		BoundUnitID: a.boundUnitID,
		SubmittedAt: a.submittedAt,
		UpdatedAt:   a.updatedAt,
	}
	if a.reserved != nil {
		rec.ReservedUnitID = a.reserved.ID
	}
	return rec
}

func (a *applicationState) toApplication() *primary.Application {
	rec := a.toRecord()
	return &primary.Application{
		ID:             rec.ID,
		RequesterID:    rec.RequesterID,
		ListingID:      rec.ListingID,
		Category:       rec.Category,
		Status:         rec.Status,
		ReservedUnitID: rec.ReservedUnitID,
		BoundUnitID:    rec.BoundUnitID,
		SubmittedAt:    rec.SubmittedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

// registrationState is the lifecycle of one staff registration.
type registrationState struct {
	id          string
	staffID     string
	listingID   string
	status      registration.Status
	requestedAt time.Time
	decidedAt   *time.Time
	decidedBy   string
}

func (r *registrationState) toRecord() *secondary.RegistrationRecord {
	return &secondary.RegistrationRecord{
		ID:          r.id,
		StaffID:     r.staffID,
		ListingID:   r.listingID,
		Status:      string(r.status),
		RequestedAt: r.requestedAt,
		DecidedAt:   r.decidedAt,
		DecidedBy:   r.decidedBy,
	}
}

func (r *registrationState) toRegistration() *primary.Registration {
	return &primary.Registration{
		ID:          r.id,
		StaffID:     r.staffID,
		ListingID:   r.listingID,
		Status:      string(r.status),
		RequestedAt: r.requestedAt,
		DecidedAt:   r.decidedAt,
		DecidedBy:   r.decidedBy,
	}
}

// withdrawalState is the lifecycle of one withdrawal request.
type withdrawalState struct {
	id            string
	applicationID string
	reason        string
	status        withdrawal.Status
	requestedAt   time.Time
	decidedAt     *time.Time
	decidedBy     string
}

func (w *withdrawalState) toRecord() *secondary.WithdrawalRecord {
	return &secondary.WithdrawalRecord{
		ID:            w.id,
		ApplicationID: w.applicationID,
		Reason:        w.reason,
		Status:        string(w.status),
		RequestedAt:   w.requestedAt,
		DecidedAt:     w.decidedAt,
		DecidedBy:     w.decidedBy,
	}
}

func (w *withdrawalState) toWithdrawal() *primary.Withdrawal {
	return &primary.Withdrawal{
		ID:            w.id,
		ApplicationID: w.applicationID,
		Reason:        w.reason,
		Status:        string(w.status),
		RequestedAt:   w.requestedAt,
		DecidedAt:     w.decidedAt,
		DecidedBy:     w.decidedBy,
	}
}

// unitState is a flat unit created at booking time.
type unitState struct {
	id            string
	listingID     string
	category      listing.Category
	applicationID string
	bookedAt      time.Time
	releasedAt    *time.Time
}

func (u *unitState) toRecord() *secondary.UnitRecord {
	return &secondary.UnitRecord{
		ID:            u.id,
		ListingID:     u.listingID,
		Category:      string(u.category),
		ApplicationID: u.applicationID,
		BookedAt:      u.bookedAt,
		ReleasedAt:    u.releasedAt,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
