// Package app contains the application layer - the allocation engine that
// orchestrates guards, ledgers and write-through persistence.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/example/bto/internal/clock"
	"github.com/example/bto/internal/core/application"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/core/registration"
	"github.com/example/bto/internal/core/withdrawal"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ports/primary"
	"github.com/example/bto/internal/ports/secondary"
)

// AllocationServiceImpl implements the AllocationService interface.
// In-memory state is authoritative for the running process; repositories are
// written through after each successful mutation.
type AllocationServiceImpl struct {
	repos    secondary.Repositories
	log      logrus.FieldLogger
	now      func() time.Time
	strict   bool
	validate *validator.Validate

	// mu serializes every mutation. Ledgers keep their own lock as well.
	mu            sync.RWMutex
	users         map[string]*user
	listings      map[string]*listingState
	applications  map[string]*applicationState
	registrations map[string]*registrationState
	withdrawals   map[string]*withdrawalState
	units         map[string]*unitState

	maxListing      int
	maxApplication  int
	maxRegistration int
	maxWithdrawal   int
}

// Option configures an AllocationServiceImpl.
type Option func(*AllocationServiceImpl)

// WithLogger sets the structured logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *AllocationServiceImpl) { s.log = log }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *AllocationServiceImpl) { s.now = now }
}

// WithStrict makes ledger invariant violations panic instead of being
// logged and returned.
func WithStrict(strict bool) Option {
	return func(s *AllocationServiceImpl) { s.strict = strict }
}

// NewAllocationService creates an empty AllocationService with injected repositories.
// Call Load to hydrate it from persistence.
func NewAllocationService(repos secondary.Repositories, opts ...Option) *AllocationServiceImpl {
	s := &AllocationServiceImpl{
		repos:         repos,
		log:           logrus.StandardLogger(),
		now:           clock.Now,
		validate:      validator.New(),
		users:         make(map[string]*user),
		listings:      make(map[string]*listingState),
		applications:  make(map[string]*applicationState),
		registrations: make(map[string]*registrationState),
		withdrawals:   make(map[string]*withdrawalState),
		units:         make(map[string]*unitState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load creates an AllocationService and hydrates it from repos.
func Load(ctx context.Context, repos secondary.Repositories, opts ...Option) (*AllocationServiceImpl, error) {
	s := NewAllocationService(repos, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ primary.AllocationService = (*AllocationServiceImpl)(nil)

// authorize resolves the context actor against the loaded profiles and
// checks it acts under one of roles.
func (s *AllocationServiceImpl) authorize(ctx context.Context, roles ...ctxutil.Role) (*user, error) {
	actor, ok := ctxutil.ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no authenticated actor", outcome.ErrUnauthorized)
	}
	u, ok := s.users[actor.ID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown identity %s", outcome.ErrUnauthorized, actor.ID)
	}
	if u.role != actor.Role {
		return nil, fmt.Errorf("%w: %s is not a %s", outcome.ErrUnauthorized, actor.ID, actor.Role)
	}
	for _, r := range roles {
		if u.role == r {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s acting as %s cannot perform this operation", outcome.ErrUnauthorized, u.id, u.role)
}

func (s *AllocationServiceImpl) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", outcome.ErrInvalidRequest, err)
	}
	return nil
}

// violation reports a ledger invariant breach. Strict mode panics.
func (s *AllocationServiceImpl) violation(err error, fields logrus.Fields) error {
	s.log.WithFields(fields).WithError(err).Error("ledger invariant violated")
	if s.strict {
		panic(err)
	}
	return err
}

func (s *AllocationServiceImpl) listingByID(id string) (*listingState, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %s", outcome.ErrNotFound, id)
	}
	return l, nil
}

func (s *AllocationServiceImpl) applicationByID(id string) (*applicationState, error) {
	a, ok := s.applications[id]
	if !ok {
		return nil, fmt.Errorf("%w: application %s", outcome.ErrNotFound, id)
	}
	return a, nil
}

// activeApplication returns the requester's PENDING/SUCCESSFUL/BOOKED application.
func (s *AllocationServiceImpl) activeApplication(requesterID string) *applicationState {
	for _, a := range s.applications {
		if a.requesterID == requesterID && application.IsActive(a.status) {
			return a
		}
	}
	return nil
}

// heldRegistration returns the PENDING/APPROVED registration of (staff, listing).
func (s *AllocationServiceImpl) heldRegistration(staffID, listingID string) *registrationState {
	for _, r := range s.registrations {
		if r.staffID == staffID && r.listingID == listingID && registration.IsHeld(r.status) {
			return r
		}
	}
	return nil
}

// approvedAssignments returns the windows of every listing the staff handles.
func (s *AllocationServiceImpl) approvedAssignments(staffID string) []registration.Assignment {
	var out []registration.Assignment
	for _, r := range s.registrations {
		if r.staffID != staffID || r.status != registration.StatusApproved {
			continue
		}
		if l, ok := s.listings[r.listingID]; ok {
			out = append(out, registration.Assignment{ListingID: l.id, Window: l.window})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ListingID < out[j].ListingID })
	return out
}

func (s *AllocationServiceImpl) pendingWithdrawal(applicationID string) *withdrawalState {
	for _, w := range s.withdrawals {
		if w.applicationID == applicationID && w.status == withdrawal.StatusPending {
			return w
		}
	}
	return nil
}
