package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ports/primary"
	"github.com/example/bto/internal/ports/secondary"
)

// memStore is an in-memory keyed record store. Setting failSave makes every
// Save return errStorage.
type memStore[T any] struct {
	mu       sync.Mutex
	records  map[string]*T
	failSave bool
}

var errStorage = errors.New("disk full")

func newMemStore[T any]() *memStore[T] {
	return &memStore[T]{records: make(map[string]*T)}
}

func (m *memStore[T]) save(id string, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errStorage
	}
	cp := *rec
	m.records[id] = &cp
	return nil
}

func (m *memStore[T]) get(id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore[T]) list(keep func(*T) bool) []*T {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*T
	for _, id := range ids {
		cp := *m.records[id]
		if keep == nil || keep(&cp) {
			out = append(out, &cp)
		}
	}
	return out
}

type mockUserRepo struct{ *memStore[secondary.UserRecord] }

func (r mockUserRepo) Save(ctx context.Context, u *secondary.UserRecord) error { return r.save(u.ID, u) }
func (r mockUserRepo) GetByID(ctx context.Context, id string) (*secondary.UserRecord, error) {
	return r.get(id)
}
func (r mockUserRepo) List(ctx context.Context, f secondary.UserFilters) ([]*secondary.UserRecord, error) {
	return r.list(func(u *secondary.UserRecord) bool { return f.Role == "" || u.Role == f.Role }), nil
}

type mockListingRepo struct{ *memStore[secondary.ListingRecord] }

func (r mockListingRepo) Save(ctx context.Context, l *secondary.ListingRecord) error {
	return r.save(l.ID, l)
}
func (r mockListingRepo) GetByID(ctx context.Context, id string) (*secondary.ListingRecord, error) {
	return r.get(id)
}
func (r mockListingRepo) List(ctx context.Context) ([]*secondary.ListingRecord, error) {
	return r.list(nil), nil
}

type mockApplicationRepo struct{ *memStore[secondary.ApplicationRecord] }

func (r mockApplicationRepo) Save(ctx context.Context, a *secondary.ApplicationRecord) error {
	return r.save(a.ID, a)
}
func (r mockApplicationRepo) GetByID(ctx context.Context, id string) (*secondary.ApplicationRecord, error) {
	return r.get(id)
}
func (r mockApplicationRepo) List(ctx context.Context, f secondary.ApplicationFilters) ([]*secondary.ApplicationRecord, error) {
	return r.list(func(a *secondary.ApplicationRecord) bool {
		return (f.ListingID == "" || a.ListingID == f.ListingID) &&
			(f.RequesterID == "" || a.RequesterID == f.RequesterID) &&
			(f.Status == "" || a.Status == f.Status)
	}), nil
}

type mockRegistrationRepo struct{ *memStore[secondary.RegistrationRecord] }

func (r mockRegistrationRepo) Save(ctx context.Context, reg *secondary.RegistrationRecord) error {
	return r.save(reg.ID, reg)
}
func (r mockRegistrationRepo) GetByID(ctx context.Context, id string) (*secondary.RegistrationRecord, error) {
	return r.get(id)
}
func (r mockRegistrationRepo) List(ctx context.Context, f secondary.RegistrationFilters) ([]*secondary.RegistrationRecord, error) {
	return r.list(func(reg *secondary.RegistrationRecord) bool {
		return (f.ListingID == "" || reg.ListingID == f.ListingID) &&
			(f.StaffID == "" || reg.StaffID == f.StaffID) &&
			(f.Status == "" || reg.Status == f.Status)
	}), nil
}

type mockWithdrawalRepo struct{ *memStore[secondary.WithdrawalRecord] }

func (r mockWithdrawalRepo) Save(ctx context.Context, w *secondary.WithdrawalRecord) error {
	return r.save(w.ID, w)
}
func (r mockWithdrawalRepo) GetByID(ctx context.Context, id string) (*secondary.WithdrawalRecord, error) {
	return r.get(id)
}
func (r mockWithdrawalRepo) List(ctx context.Context, f secondary.WithdrawalFilters) ([]*secondary.WithdrawalRecord, error) {
	return r.list(func(w *secondary.WithdrawalRecord) bool {
		return (f.ApplicationID == "" || w.ApplicationID == f.ApplicationID) &&
			(f.Status == "" || w.Status == f.Status)
	}), nil
}

type mockUnitRepo struct{ *memStore[secondary.UnitRecord] }

func (r mockUnitRepo) Save(ctx context.Context, u *secondary.UnitRecord) error { return r.save(u.ID, u) }
func (r mockUnitRepo) GetByID(ctx context.Context, id string) (*secondary.UnitRecord, error) {
	return r.get(id)
}
func (r mockUnitRepo) List(ctx context.Context, listingID string) ([]*secondary.UnitRecord, error) {
	return r.list(func(u *secondary.UnitRecord) bool { return u.ListingID == listingID }), nil
}

type mockRepos struct {
	users         mockUserRepo
	listings      mockListingRepo
	applications  mockApplicationRepo
	registrations mockRegistrationRepo
	withdrawals   mockWithdrawalRepo
	units         mockUnitRepo
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		users:         mockUserRepo{newMemStore[secondary.UserRecord]()},
		listings:      mockListingRepo{newMemStore[secondary.ListingRecord]()},
		applications:  mockApplicationRepo{newMemStore[secondary.ApplicationRecord]()},
		registrations: mockRegistrationRepo{newMemStore[secondary.RegistrationRecord]()},
		withdrawals:   mockWithdrawalRepo{newMemStore[secondary.WithdrawalRecord]()},
		units:         mockUnitRepo{newMemStore[secondary.UnitRecord]()},
	}
}

func (m *mockRepos) repositories() secondary.Repositories {
	return secondary.Repositories{
		Users:         m.users,
		Listings:      m.listings,
		Applications:  m.applications,
		Registrations: m.registrations,
		Withdrawals:   m.withdrawals,
		Units:         m.units,
	}
}

// day returns midnight of the nth day of January 2026.
func day(n int) time.Time {
	return time.Date(2026, time.January, n, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	t     *testing.T
	svc   *AllocationServiceImpl
	repos *mockRepos
	now   time.Time
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{t: t, repos: newMockRepos(), now: day(10)}
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return f.now }),
	}, opts...)
	f.svc = NewAllocationService(f.repos.repositories(), opts...)
	return f
}

func as(id string, role ctxutil.Role) context.Context {
	return ctxutil.WithActor(context.Background(), ctxutil.Actor{ID: id, Role: role})
}

func (f *fixture) addUser(id string, age int, marital string, role ctxutil.Role) context.Context {
	f.t.Helper()
	_, err := f.svc.AddUser(context.Background(), primary.AddUserRequest{
		ID: id, Name: "User " + id, Age: age, MaritalStatus: marital, Role: role,
	})
	require.NoError(f.t, err)
	return as(id, role)
}

type listingOpts struct {
	name       string
	open, cl   int
	twoRoom    int
	threeRoom  int
	staffSlots int
	hidden     bool
}

func (f *fixture) createListing(ctx context.Context, o listingOpts) string {
	f.t.Helper()
	if o.staffSlots == 0 {
		o.staffSlots = 5
	}
	resp, err := f.svc.CreateListing(ctx, primary.CreateListingRequest{
		Name:           o.name,
		Neighborhood:   "Tampines",
		OpenAt:         day(o.open),
		CloseAt:        day(o.cl),
		TwoRoomUnits:   o.twoRoom,
		ThreeRoomUnits: o.threeRoom,
		StaffSlots:     o.staffSlots,
		Visible:        !o.hidden,
	})
	require.NoError(f.t, err)
	return resp.Listing.ID
}

func (f *fixture) submit(ctx context.Context, listingID, category string) (*primary.ApplicationResponse, error) {
	return f.svc.SubmitApplication(ctx, primary.SubmitApplicationRequest{ListingID: listingID, Category: category})
}

func availableOf(l *primary.Listing, category string) int {
	for _, c := range l.Units {
		if c.Category == category {
			return c.Available
		}
	}
	return -1
}
