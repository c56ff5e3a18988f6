package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/example/bto/internal/core/application"
	"github.com/example/bto/internal/core/outcome"
	"github.com/example/bto/internal/core/withdrawal"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ports/primary"
)

// RequestWithdrawal files a PENDING withdrawal for the caller's own application.
func (s *AllocationServiceImpl) RequestWithdrawal(ctx context.Context, req primary.RequestWithdrawalRequest) (*primary.WithdrawalResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requester, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff)
	if err != nil {
		return nil, err
	}
	a, err := s.applicationByID(req.ApplicationID)
	if err != nil {
		return nil, err
	}

	guardCtx := withdrawal.RequestContext{
		ApplicationID:     a.id,
		ApplicationStatus: a.status,
		OwnerID:           a.requesterID,
		ActorID:           requester.id,
	}
	if pending := s.pendingWithdrawal(a.id); pending != nil {
		guardCtx.PendingRequestID = pending.id
	}
	if result := withdrawal.CanRequest(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	w := &withdrawalState{
		id:            withdrawal.GenerateWithdrawalID(s.maxWithdrawal),
		applicationID: a.id,
		reason:        req.Reason,
		status:        withdrawal.StatusPending,
		requestedAt:   s.now(),
	}
	s.withdrawals[w.id] = w
	s.maxWithdrawal++

	s.log.WithFields(logrus.Fields{
		"withdrawal_id":  w.id,
		"application_id": a.id,
	}).Info("withdrawal requested")

	wt := s.writeThrough(ctx)
	wt.withdrawal(w)
	return &primary.WithdrawalResponse{Withdrawal: w.toWithdrawal(), Application: a.toApplication(), Warnings: wt.warnings}, nil
}

// DecideWithdrawal approves or rejects a PENDING withdrawal. Approval moves
// the application to WITHDRAWN and returns any held unit to the inventory.
func (s *AllocationServiceImpl) DecideWithdrawal(ctx context.Context, req primary.DecideWithdrawalRequest) (*primary.WithdrawalResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manager, err := s.authorize(ctx, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}
	w, ok := s.withdrawals[req.WithdrawalID]
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %s", outcome.ErrNotFound, req.WithdrawalID)
	}
	a, err := s.applicationByID(w.applicationID)
	if err != nil {
		return nil, err
	}
	l, err := s.listingByID(a.listingID)
	if err != nil {
		return nil, err
	}

	guardCtx := withdrawal.DecideContext{
		RequestID:         w.id,
		Status:            w.status,
		Approve:           req.Approve,
		ApplicationStatus: a.status,
		ActorID:           manager.id,
		ManagerID:         l.managerID,
	}
	if result := withdrawal.CanDecide(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	now := s.now()
	wt := s.writeThrough(ctx)
	var unit *unitState
	released := false
	if req.Approve {
		if application.HoldsUnit(a.status) {
			if err := l.inventory.Release(a.category); err != nil {
				return nil, s.violation(err, logrus.Fields{
					"application_id": a.id,
					"listing_id":     l.id,
					"category":       a.category,
				})
			}
			released = true
		}
		if a.status == application.StatusBooked {
			if u, ok := s.units[a.boundUnitID]; ok {
				u.releasedAt = timePtr(now)
				unit = u
			}
		}
		a.reserved = nil
		a.status = application.StatusWithdrawn
		a.updatedAt = now
		w.status = withdrawal.StatusApproved
	} else {
		w.status = withdrawal.StatusRejected
	}
	w.decidedAt = timePtr(now)
	w.decidedBy = manager.id

	s.log.WithFields(logrus.Fields{
		"withdrawal_id":  w.id,
		"application_id": a.id,
		"status":         w.status,
		"unit_released":  released,
	}).Info("withdrawal decided")

	wt.withdrawal(w)
	if req.Approve {
		wt.application(a)
	}
	if unit != nil {
		wt.unit(unit)
	}
	if released {
		l.updatedAt = now
		wt.listing(l)
	}
	return &primary.WithdrawalResponse{Withdrawal: w.toWithdrawal(), Application: a.toApplication(), Warnings: wt.warnings}, nil
}

// ListWithdrawals lists withdrawal requests, ordered by ID. Managers see
// requests on listings they run; others see requests on their own applications.
func (s *AllocationServiceImpl) ListWithdrawals(ctx context.Context, filters primary.WithdrawalFilters) ([]*primary.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.authorize(ctx, ctxutil.RoleRequester, ctxutil.RoleStaff, ctxutil.RoleManager)
	if err != nil {
		return nil, err
	}

	var out []*primary.Withdrawal
	for _, w := range s.sortedWithdrawals() {
		a, ok := s.applications[w.applicationID]
		if !ok {
			continue
		}
		if filters.ApplicationID != "" && w.applicationID != filters.ApplicationID {
			continue
		}
		if filters.ListingID != "" && a.listingID != filters.ListingID {
			continue
		}
		if filters.Status != "" && string(w.status) != filters.Status {
			continue
		}
		if u.role == ctxutil.RoleManager {
			if l, ok := s.listings[a.listingID]; !ok || l.managerID != u.id {
				continue
			}
		} else if a.requesterID != u.id {
			continue
		}
		out = append(out, w.toWithdrawal())
	}
	return out, nil
}

func (s *AllocationServiceImpl) sortedWithdrawals() []*withdrawalState {
	out := make([]*withdrawalState, 0, len(s.withdrawals))
	for _, w := range s.withdrawals {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
