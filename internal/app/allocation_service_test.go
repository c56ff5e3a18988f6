package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ledger"
	"github.com/example/bto/internal/ports/primary"
	"github.com/example/bto/internal/ports/secondary"
)

const (
	twoRoom   = "2-room"
	threeRoom = "3-room"
)

func TestAllocation_SecondApprovalDowngradesWhenStockRunsOut(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	r2 := f.addUser("R2", 36, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})

	a1, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", a1.Application.Status)

	a2, err := f.submit(r2, listingID, twoRoom)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", a2.Application.Status)

	d1, err := f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: a1.Application.ID, Approve: true, Category: twoRoom})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESSFUL", d1.Application.Status)
	assert.NotEmpty(t, d1.Application.ReservedUnitID)
	assert.NoError(t, d1.Downgrade)

	l, err := f.svc.GetListing(mgr, listingID)
	require.NoError(t, err)
	assert.Equal(t, 0, availableOf(l, twoRoom))

	d2, err := f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: a2.Application.ID, Approve: true, Category: twoRoom})
	require.NoError(t, err)
	assert.Equal(t, "UNSUCCESSFUL", d2.Application.Status)
	assert.ErrorIs(t, d2.Downgrade, outcome.ErrNoAvailability)
	assert.Empty(t, d2.Application.ReservedUnitID)
}

func TestAllocation_WithdrawalRestoresAvailability(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	mgr2 := f.addUser("M2", 48, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	first := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})
	second := f.createListing(mgr2, listingOpts{name: "Birch", open: 5, cl: 25, twoRoom: 2})

	sub, err := f.submit(r1, first, twoRoom)
	require.NoError(t, err)
	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	require.NoError(t, err)

	_, err = f.submit(r1, second, twoRoom)
	assert.ErrorIs(t, err, outcome.ErrAlreadyActive)

	req, err := f.svc.RequestWithdrawal(r1, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "moving abroad"})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", req.Withdrawal.Status)

	dec, err := f.svc.DecideWithdrawal(mgr, primary.DecideWithdrawalRequest{WithdrawalID: req.Withdrawal.ID, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", dec.Withdrawal.Status)
	assert.Equal(t, "WITHDRAWN", dec.Application.Status)
	assert.Empty(t, dec.Application.ReservedUnitID)

	l, err := f.svc.GetListing(mgr, first)
	require.NoError(t, err)
	assert.Equal(t, 1, availableOf(l, twoRoom))

	again, err := f.submit(r1, second, twoRoom)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", again.Application.Status)
}

func TestAllocation_StaffWindowsAreExclusive(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	mgr2 := f.addUser("M2", 48, "married", ctxutil.RoleManager)
	staff := f.addUser("S1", 30, "married", ctxutil.RoleStaff)
	l1 := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})
	l2 := f.createListing(mgr2, listingOpts{name: "Birch", open: 15, cl: 45, twoRoom: 1})
	l3 := f.createListing(mgr, listingOpts{name: "Cedar", open: 31, cl: 60, twoRoom: 1})

	reg, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: l1})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", reg.Registration.Status)

	dec, err := f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg.Registration.ID, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", dec.Registration.Status)
	require.NotNil(t, dec.Registration.DecidedAt)

	listing, err := f.svc.GetListing(mgr, l1)
	require.NoError(t, err)
	assert.Equal(t, 4, listing.AvailableSlots)
	assert.Equal(t, []string{"S1"}, listing.StaffIDs)

	_, err = f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: l2})
	assert.ErrorIs(t, err, outcome.ErrWindowConflict)

	ok, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: l3})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", ok.Registration.Status)

	_, err = f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: l1})
	assert.ErrorIs(t, err, outcome.ErrAlreadyRegistered)
}

func TestAllocation_ApprovalRechecksWindows(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	mgr2 := f.addUser("M2", 48, "married", ctxutil.RoleManager)
	staff := f.addUser("S1", 30, "married", ctxutil.RoleStaff)
	l1 := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})
	l2 := f.createListing(mgr2, listingOpts{name: "Birch", open: 15, cl: 45, twoRoom: 1})

	// Both registrations are pending, so neither conflicts at registration time.
	reg1, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: l1})
	require.NoError(t, err)
	reg2, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: l2})
	require.NoError(t, err)

	_, err = f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg1.Registration.ID, Approve: true})
	require.NoError(t, err)

	_, err = f.svc.DecideRegistration(mgr2, primary.DecideRegistrationRequest{RegistrationID: reg2.Registration.ID, Approve: true})
	assert.ErrorIs(t, err, outcome.ErrWindowConflict)

	listing, err := f.svc.GetListing(mgr2, l2)
	require.NoError(t, err)
	assert.Equal(t, 5, listing.AvailableSlots)
	regs, err := f.svc.ListRegistrations(mgr2, primary.RegistrationFilters{})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "PENDING", regs[0].Status)
}

func TestAllocation_NoSlotsLeft(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	s1 := f.addUser("S1", 30, "married", ctxutil.RoleStaff)
	s2 := f.addUser("S2", 31, "married", ctxutil.RoleStaff)
	l1 := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1, staffSlots: 1})

	reg1, err := f.svc.RegisterStaff(s1, primary.RegisterStaffRequest{ListingID: l1})
	require.NoError(t, err)
	reg2, err := f.svc.RegisterStaff(s2, primary.RegisterStaffRequest{ListingID: l1})
	require.NoError(t, err)

	_, err = f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg1.Registration.ID, Approve: true})
	require.NoError(t, err)
	_, err = f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg2.Registration.ID, Approve: true})
	assert.ErrorIs(t, err, outcome.ErrNoSlots)

	s3 := f.addUser("S3", 32, "married", ctxutil.RoleStaff)
	_, err = f.svc.RegisterStaff(s3, primary.RegisterStaffRequest{ListingID: l1})
	assert.ErrorIs(t, err, outcome.ErrNoSlots)

	rej, err := f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg2.Registration.ID, Approve: false})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rej.Registration.Status)
}

func TestAllocation_Eligibility(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	young := f.addUser("R1", 34, "single", ctxutil.RoleRequester)
	single := f.addUser("R2", 40, "single", ctxutil.RoleRequester)
	married := f.addUser("R3", 25, "married", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 2, threeRoom: 2})

	for _, category := range []string{twoRoom, threeRoom} {
		_, err := f.submit(young, listingID, category)
		assert.ErrorIs(t, err, outcome.ErrIneligible, category)
	}

	_, err := f.submit(single, listingID, threeRoom)
	assert.ErrorIs(t, err, outcome.ErrIneligible)

	resp, err := f.submit(married, listingID, threeRoom)
	require.NoError(t, err)
	assert.Equal(t, threeRoom, resp.Application.Category)

	_, err = f.submit(married, listingID, twoRoom)
	assert.ErrorIs(t, err, outcome.ErrAlreadyActive)
}

func TestAllocation_SubmitRequiresVisibleOpenListing(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	hidden := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1, hidden: true})
	later := f.createListing(mgr, listingOpts{name: "Birch", open: 40, cl: 60, twoRoom: 1})

	_, err := f.submit(r1, hidden, twoRoom)
	assert.ErrorIs(t, err, outcome.ErrHidden)

	_, err = f.submit(r1, later, twoRoom)
	assert.ErrorIs(t, err, outcome.ErrNotOpen)

	_, err = f.submit(r1, "PROJ-999", twoRoom)
	assert.ErrorIs(t, err, outcome.ErrNotFound)

	_, err = f.submit(r1, hidden, "penthouse")
	assert.ErrorIs(t, err, outcome.ErrInvalidRequest)

	_, err = f.svc.SetListingVisibility(mgr, primary.SetVisibilityRequest{ListingID: hidden, Visible: true})
	require.NoError(t, err)
	_, err = f.submit(r1, hidden, twoRoom)
	assert.NoError(t, err)
}

func TestAllocation_Authorization(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	other := f.addUser("M2", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "no actor", ctx: context.Background()},
		{name: "unknown identity", ctx: as("X9", ctxutil.RoleRequester)},
		{name: "claimed role differs from profile", ctx: as("R1", ctxutil.RoleStaff)},
		{name: "managers cannot apply", ctx: mgr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.submit(tt.ctx, listingID, twoRoom)
			assert.ErrorIs(t, err, outcome.ErrUnauthorized)
		})
	}

	sub, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)

	_, err = f.svc.DecideApplication(other, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)

	_, err = f.svc.DecideApplication(r1, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)

	_, err = f.svc.SetListingVisibility(other, primary.SetVisibilityRequest{ListingID: listingID})
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)
}

func TestAllocation_DecideRejectsNonPendingAndCategoryMismatch(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 25, "married", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1, threeRoom: 1})

	sub, err := f.submit(r1, listingID, threeRoom)
	require.NoError(t, err)

	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true, Category: twoRoom})
	assert.ErrorIs(t, err, outcome.ErrNotApprovable)

	rej, err := f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: false})
	require.NoError(t, err)
	assert.Equal(t, "UNSUCCESSFUL", rej.Application.Status)
	assert.NoError(t, rej.Downgrade)

	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	assert.ErrorIs(t, err, outcome.ErrNotApprovable)

	l, err := f.svc.GetListing(mgr, listingID)
	require.NoError(t, err)
	assert.Equal(t, 1, availableOf(l, threeRoom))
}

func TestAllocation_StaffRoleConflict(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	mgr2 := f.addUser("M2", 50, "married", ctxutil.RoleManager)
	staff := f.addUser("S1", 30, "married", ctxutil.RoleStaff)
	handled := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})
	applied := f.createListing(mgr2, listingOpts{name: "Birch", open: 1, cl: 30, twoRoom: 1})

	_, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: handled})
	require.NoError(t, err)
	_, err = f.submit(staff, handled, twoRoom)
	assert.ErrorIs(t, err, outcome.ErrRoleConflict)

	_, err = f.submit(staff, applied, twoRoom)
	require.NoError(t, err)
	_, err = f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: applied})
	assert.ErrorIs(t, err, outcome.ErrRoleConflict)
}

func TestAllocation_BookBindsReservedUnit(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	staff := f.addUser("S1", 30, "married", ctxutil.RoleStaff)
	outsider := f.addUser("S2", 30, "married", ctxutil.RoleStaff)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	r2 := f.addUser("R2", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 2})

	reg, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: listingID})
	require.NoError(t, err)
	_, err = f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg.Registration.ID, Approve: true})
	require.NoError(t, err)

	sub, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)
	pending, err := f.submit(r2, listingID, twoRoom)
	require.NoError(t, err)

	_, err = f.svc.BookApplication(staff, primary.BookApplicationRequest{ApplicationID: pending.Application.ID})
	assert.ErrorIs(t, err, outcome.ErrNotApprovable)

	dec, err := f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	require.NoError(t, err)

	_, err = f.svc.BookApplication(outsider, primary.BookApplicationRequest{ApplicationID: sub.Application.ID})
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)

	_, err = f.svc.BookApplication(staff, primary.BookApplicationRequest{ApplicationID: sub.Application.ID, UnitID: "UNIT-missing"})
	assert.ErrorIs(t, err, outcome.ErrNotFound)

	booked, err := f.svc.BookApplication(staff, primary.BookApplicationRequest{ApplicationID: sub.Application.ID})
	require.NoError(t, err)
	assert.Equal(t, "BOOKED", booked.Application.Status)
	assert.Equal(t, dec.Application.ReservedUnitID, booked.Application.BoundUnitID)

	_, err = f.svc.BookApplication(mgr, primary.BookApplicationRequest{ApplicationID: sub.Application.ID})
	assert.ErrorIs(t, err, outcome.ErrNotApprovable)

	unit, err := f.repos.units.GetByID(context.Background(), booked.Application.BoundUnitID)
	require.NoError(t, err)
	assert.Equal(t, sub.Application.ID, unit.ApplicationID)

	rows, err := f.svc.BookingReport(mgr, primary.BookingReportFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "R1", rows[0].RequesterID)
	assert.Equal(t, 40, rows[0].Age)
	assert.Equal(t, "single", rows[0].MaritalStatus)
	assert.Equal(t, booked.Application.BoundUnitID, rows[0].UnitID)

	rows, err = f.svc.BookingReport(mgr, primary.BookingReportFilters{MaritalStatus: "married"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.svc.BookingReport(r1, primary.BookingReportFilters{})
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)
}

func TestAllocation_WithdrawBookedReleasesUnit(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})

	sub, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)
	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	require.NoError(t, err)
	booked, err := f.svc.BookApplication(mgr, primary.BookApplicationRequest{ApplicationID: sub.Application.ID})
	require.NoError(t, err)

	req, err := f.svc.RequestWithdrawal(r1, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "changed plans"})
	require.NoError(t, err)
	_, err = f.svc.RequestWithdrawal(r1, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "again"})
	assert.ErrorIs(t, err, outcome.ErrDuplicateRequest)

	dec, err := f.svc.DecideWithdrawal(mgr, primary.DecideWithdrawalRequest{WithdrawalID: req.Withdrawal.ID, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, "WITHDRAWN", dec.Application.Status)
	assert.Equal(t, booked.Application.BoundUnitID, dec.Application.BoundUnitID)

	unit, err := f.repos.units.GetByID(context.Background(), booked.Application.BoundUnitID)
	require.NoError(t, err)
	assert.NotNil(t, unit.ReleasedAt)

	l, err := f.svc.GetListing(mgr, listingID)
	require.NoError(t, err)
	assert.Equal(t, 1, availableOf(l, twoRoom))

	_, err = f.svc.RequestWithdrawal(r1, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "twice"})
	assert.ErrorIs(t, err, outcome.ErrNotWithdrawable)
}

func TestAllocation_WithdrawalOfApplicationThatBecameTerminal(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	r2 := f.addUser("R2", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})

	sub, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)

	_, err = f.svc.RequestWithdrawal(r2, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "not mine"})
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)

	req, err := f.svc.RequestWithdrawal(r1, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "changed plans"})
	require.NoError(t, err)
	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: false})
	require.NoError(t, err)

	_, err = f.svc.DecideWithdrawal(mgr, primary.DecideWithdrawalRequest{WithdrawalID: req.Withdrawal.ID, Approve: true})
	assert.ErrorIs(t, err, outcome.ErrNotWithdrawable)

	rej, err := f.svc.DecideWithdrawal(mgr, primary.DecideWithdrawalRequest{WithdrawalID: req.Withdrawal.ID, Approve: false})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rej.Withdrawal.Status)
	assert.Equal(t, "UNSUCCESSFUL", rej.Application.Status)
}

func TestAllocation_ConcurrentApprovalsNeverOversell(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 3})

	const requesters = 20
	ids := make([]string, 0, requesters)
	for i := 0; i < requesters; i++ {
		id := "R" + string(rune('A'+i))
		ctx := f.addUser(id, 30, "married", ctxutil.RoleRequester)
		sub, err := f.submit(ctx, listingID, twoRoom)
		require.NoError(t, err)
		ids = append(ids, sub.Application.ID)
	}

	var wg sync.WaitGroup
	statuses := make([]string, requesters)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			resp, err := f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: id, Approve: true})
			if err == nil {
				statuses[i] = resp.Application.Status
			}
		}(i, id)
	}
	wg.Wait()

	successful := 0
	for _, s := range statuses {
		if s == "SUCCESSFUL" {
			successful++
		} else {
			assert.Equal(t, "UNSUCCESSFUL", s)
		}
	}
	assert.Equal(t, 3, successful)

	l, err := f.svc.GetListing(mgr, listingID)
	require.NoError(t, err)
	assert.Equal(t, 0, availableOf(l, twoRoom))
}

func TestAllocation_ConcurrentSubmitsKeepOneActiveApplication(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 30, "married", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 3, threeRoom: 3})

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submit(r1, listingID, threeRoom)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, outcome.ErrAlreadyActive)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestAllocation_ReleaseOverflowIsReported(t *testing.T) {
	setup := func(t *testing.T, opts ...Option) (*fixture, context.Context, string) {
		f := newFixture(t, opts...)
		mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
		r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
		listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})
		sub, err := f.submit(r1, listingID, twoRoom)
		require.NoError(t, err)
		_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
		require.NoError(t, err)
		req, err := f.svc.RequestWithdrawal(r1, primary.RequestWithdrawalRequest{ApplicationID: sub.Application.ID, Reason: "changed plans"})
		require.NoError(t, err)

		// Simulate a stray release so the withdrawal's release overflows.
		require.NoError(t, f.svc.listings[listingID].inventory.Release("2-room"))
		return f, mgr, req.Withdrawal.ID
	}

	t.Run("lenient", func(t *testing.T) {
		f, mgr, id := setup(t)
		_, err := f.svc.DecideWithdrawal(mgr, primary.DecideWithdrawalRequest{WithdrawalID: id, Approve: true})
		assert.ErrorIs(t, err, ledger.ErrReleaseOverflow)
		assert.Equal(t, "PENDING", string(f.svc.withdrawals[id].status))
	})

	t.Run("strict", func(t *testing.T) {
		f, mgr, id := setup(t, WithStrict(true))
		assert.Panics(t, func() {
			_, _ = f.svc.DecideWithdrawal(mgr, primary.DecideWithdrawalRequest{WithdrawalID: id, Approve: true})
		})
	})
}

func TestAllocation_PersistenceFailureKeepsInMemoryState(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})

	f.repos.applications.failSave = true
	resp, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)
	require.Len(t, resp.Warnings, 1)
	assert.ErrorIs(t, resp.Warnings[0], outcome.ErrPersistenceFailed)

	got, err := f.svc.GetApplication(r1, resp.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)

	_, err = f.submit(r1, listingID, twoRoom)
	assert.ErrorIs(t, err, outcome.ErrAlreadyActive)
}

func TestAllocation_CreateListingRules(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1})

	base := primary.CreateListingRequest{
		Name: "Birch", Neighborhood: "Yishun", OpenAt: day(31), CloseAt: day(60), TwoRoomUnits: 1, StaffSlots: 3,
	}
	tests := []struct {
		name    string
		ctx     context.Context
		mutate  func(*primary.CreateListingRequest)
		wantErr error
	}{
		{name: "requester", ctx: r1, wantErr: outcome.ErrUnauthorized},
		{name: "duplicate name", ctx: mgr, mutate: func(r *primary.CreateListingRequest) { r.Name = "Acacia" }, wantErr: outcome.ErrInvalidRequest},
		{name: "inverted window", ctx: mgr, mutate: func(r *primary.CreateListingRequest) { r.OpenAt, r.CloseAt = day(60), day(31) }, wantErr: outcome.ErrInvalidRequest},
		{name: "too many slots", ctx: mgr, mutate: func(r *primary.CreateListingRequest) { r.StaffSlots = 11 }, wantErr: outcome.ErrInvalidRequest},
		{name: "overlapping managed window", ctx: mgr, mutate: func(r *primary.CreateListingRequest) { r.OpenAt = day(20) }, wantErr: outcome.ErrWindowConflict},
		{name: "missing neighborhood", ctx: mgr, mutate: func(r *primary.CreateListingRequest) { r.Neighborhood = "" }, wantErr: outcome.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := f.svc.CreateListing(tt.ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	resp, err := f.svc.CreateListing(mgr, base)
	require.NoError(t, err)
	assert.Equal(t, "PROJ-002", resp.Listing.ID)
}

func TestAllocation_RequesterQueries(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	mgr2 := f.addUser("M2", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	r2 := f.addUser("R2", 40, "single", ctxutil.RoleRequester)
	open := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 1, threeRoom: 1})
	f.createListing(mgr2, listingOpts{name: "Birch", open: 1, cl: 30, threeRoom: 4})
	f.createListing(mgr, listingOpts{name: "Cedar", open: 31, cl: 60, twoRoom: 4})

	listings, err := f.svc.ListListings(r1, primary.ListingFilters{})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, open, listings[0].ID)
	assert.Equal(t, []string{twoRoom}, listings[0].EligibleCategories)

	all, err := f.svc.ListListings(mgr, primary.ListingFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sub, err := f.submit(r1, open, twoRoom)
	require.NoError(t, err)

	_, err = f.svc.GetApplication(r2, sub.Application.ID)
	assert.ErrorIs(t, err, outcome.ErrUnauthorized)

	mine, err := f.svc.ListApplications(r2, primary.ApplicationFilters{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	active, err := f.svc.ActiveApplication(r1, "")
	require.NoError(t, err)
	assert.Equal(t, sub.Application.ID, active.ID)

	_, err = f.svc.ActiveApplication(r2, "")
	assert.ErrorIs(t, err, outcome.ErrNotFound)
}

func TestLoad_RestoresStateAndCounters(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	staff := f.addUser("S1", 30, "married", ctxutil.RoleStaff)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	r2 := f.addUser("R2", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 2})

	reg, err := f.svc.RegisterStaff(staff, primary.RegisterStaffRequest{ListingID: listingID})
	require.NoError(t, err)
	_, err = f.svc.DecideRegistration(mgr, primary.DecideRegistrationRequest{RegistrationID: reg.Registration.ID, Approve: true})
	require.NoError(t, err)
	sub, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)
	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	require.NoError(t, err)
	_, err = f.svc.BookApplication(staff, primary.BookApplicationRequest{ApplicationID: sub.Application.ID})
	require.NoError(t, err)

	loaded, err := Load(context.Background(), f.repos.repositories(),
		WithLogger(quietLogger()), WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)

	l, err := loaded.GetListing(mgr, listingID)
	require.NoError(t, err)
	assert.Equal(t, 1, availableOf(l, twoRoom))
	assert.Equal(t, 4, l.AvailableSlots)
	assert.Equal(t, []string{"S1"}, l.StaffIDs)

	got, err := loaded.GetApplication(r1, sub.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, "BOOKED", got.Status)

	next, err := loaded.SubmitApplication(r2, primary.SubmitApplicationRequest{ListingID: listingID, Category: twoRoom})
	require.NoError(t, err)
	assert.Equal(t, "APP-002", next.Application.ID)

	rows, err := loaded.BookingReport(staff, primary.BookingReportFilters{ListingID: listingID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, f.now, rows[0].BookedAt)
}

func TestLoad_RecomputesAvailability(t *testing.T) {
	f := newFixture(t)
	mgr := f.addUser("M1", 50, "married", ctxutil.RoleManager)
	r1 := f.addUser("R1", 40, "single", ctxutil.RoleRequester)
	listingID := f.createListing(mgr, listingOpts{name: "Acacia", open: 1, cl: 30, twoRoom: 3})
	sub, err := f.submit(r1, listingID, twoRoom)
	require.NoError(t, err)
	_, err = f.svc.DecideApplication(mgr, primary.DecideApplicationRequest{ApplicationID: sub.Application.ID, Approve: true})
	require.NoError(t, err)

	rec, err := f.repos.listings.GetByID(context.Background(), listingID)
	require.NoError(t, err)
	rec.TwoRoomAvailable = 3
	require.NoError(t, f.repos.listings.Save(context.Background(), rec))

	log, hook := logtest.NewNullLogger()
	loaded, err := Load(context.Background(), f.repos.repositories(), WithLogger(log), WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)

	l, err := loaded.GetListing(mgr, listingID)
	require.NoError(t, err)
	assert.Equal(t, 2, availableOf(l, twoRoom))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["listing_id"] == listingID {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning about the availability mismatch")
}

func TestLoad_DanglingReference(t *testing.T) {
	repos := newMockRepos()
	ctx := context.Background()
	require.NoError(t, repos.users.Save(ctx, &secondary.UserRecord{ID: "R1", Name: "R", Age: 40, MaritalStatus: "single", Role: "applicant"}))
	require.NoError(t, repos.applications.Save(ctx, &secondary.ApplicationRecord{
		ID: "APP-001", RequesterID: "R1", ListingID: "PROJ-404", Category: twoRoom, Status: "PENDING",
	}))

	_, err := Load(ctx, repos.repositories(), WithLogger(quietLogger()))
	assert.ErrorIs(t, err, outcome.ErrNotFound)
	assert.Contains(t, err.Error(), "PROJ-404")
}

func TestAddUser(t *testing.T) {
	f := newFixture(t)
	f.addUser("R1", 40, "single", ctxutil.RoleRequester)

	_, err := f.svc.AddUser(context.Background(), primary.AddUserRequest{ID: "R1", Name: "Dup", Age: 40, MaritalStatus: "single", Role: ctxutil.RoleRequester})
	assert.ErrorIs(t, err, outcome.ErrInvalidRequest)

	_, err = f.svc.AddUser(context.Background(), primary.AddUserRequest{ID: "R2", Name: "Bad", Age: 40, MaritalStatus: "divorced", Role: ctxutil.RoleRequester})
	assert.ErrorIs(t, err, outcome.ErrInvalidRequest)

	users, err := f.svc.ListUsers(context.Background(), ctxutil.RoleRequester)
	require.NoError(t, err)
	require.Len(t, users, 1)

	rec, err := f.repos.users.GetByID(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "applicant", rec.Role)
}
