package app

import (
	"context"
	"fmt"

	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/ports/primary"
)

// writeThrough collects best-effort saves issued after a mutation has been
// committed in memory. A failed save is logged and recorded as a warning; the
// in-memory state is never rolled back.
type writeThrough struct {
	s        *AllocationServiceImpl
	ctx      context.Context
	warnings primary.Warnings
}

func (s *AllocationServiceImpl) writeThrough(ctx context.Context) *writeThrough {
	return &writeThrough{s: s, ctx: ctx}
}

func (w *writeThrough) save(entity, id string, fn func(context.Context) error) {
	if err := fn(w.ctx); err != nil {
		warning := fmt.Errorf("%w: save %s %s: %v", outcome.ErrPersistenceFailed, entity, id, err)
		w.s.log.WithField("entity", entity).WithField("id", id).WithError(err).Warn("write-through failed, keeping in-memory state")
		w.warnings = append(w.warnings, warning)
	}
}

func (w *writeThrough) user(u *user) {
	if w.s.repos.Users == nil {
		return
	}
	rec := u.toRecord()
	w.save("user", u.id, func(ctx context.Context) error { return w.s.repos.Users.Save(ctx, rec) })
}

func (w *writeThrough) listing(l *listingState) {
	if w.s.repos.Listings == nil {
		return
	}
	rec := l.toRecord()
	w.save("listing", l.id, func(ctx context.Context) error { return w.s.repos.Listings.Save(ctx, rec) })
}

func (w *writeThrough) application(a *applicationState) {
	if w.s.repos.Applications == nil {
		return
	}
	rec := a.toRecord()
	w.save("application", a.id, func(ctx context.Context) error { return w.s.repos.Applications.Save(ctx, rec) })
}

func (w *writeThrough) registration(r *registrationState) {
	if w.s.repos.Registrations == nil {
		return
	}
	rec := r.toRecord()
	w.save("registration", r.id, func(ctx context.Context) error { return w.s.repos.Registrations.Save(ctx, rec) })
}

func (w *writeThrough) withdrawal(wd *withdrawalState) {
	if w.s.repos.Withdrawals == nil {
		return
	}
	rec := wd.toRecord()
	w.save("withdrawal", wd.id, func(ctx context.Context) error { return w.s.repos.Withdrawals.Save(ctx, rec) })
}

func (w *writeThrough) unit(u *unitState) {
	if w.s.repos.Units == nil {
		return
	}
	rec := u.toRecord()
	w.save("unit", u.id, func(ctx context.Context) error { return w.s.repos.Units.Save(ctx, rec) })
}
