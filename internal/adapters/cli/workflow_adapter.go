package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/example/bto/internal/ports/primary"
)

// Register requests a staff registration for the context actor.
func (a *AllocationAdapter) Register(ctx context.Context, listingID string) (*primary.Registration, error) {
	resp, err := a.service.RegisterStaff(ctx, primary.RegisterStaffRequest{ListingID: listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Registration %s requested for %s\n", resp.Registration.ID, listingID)
	a.printWarnings(resp.Warnings)
	return resp.Registration, nil
}

// DecideRegistration approves or rejects a pending staff registration.
func (a *AllocationAdapter) DecideRegistration(ctx context.Context, registrationID string, approve bool) (*primary.Registration, error) {
	resp, err := a.service.DecideRegistration(ctx, primary.DecideRegistrationRequest{
		RegistrationID: registrationID,
		Approve:        approve,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decide registration: %w", err)
	}

	reg := resp.Registration
	fmt.Fprintf(a.out, "✓ Registration %s is %s\n", reg.ID, statusColor(reg.Status))
	a.printWarnings(resp.Warnings)
	return reg, nil
}

// ListRegistrations prints registrations visible to the caller.
func (a *AllocationAdapter) ListRegistrations(ctx context.Context, filters primary.RegistrationFilters) ([]*primary.Registration, error) {
	regs, err := a.service.ListRegistrations(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	if len(regs) == 0 {
		fmt.Fprintln(a.out, "No registrations found.")
		return regs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tSTAFF\tSTATUS\tREQUESTED\tDECIDED BY")
	fmt.Fprintln(w, "--\t-------\t-----\t------\t---------\t----------")
	for _, r := range regs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.ListingID,
			r.StaffID,
			statusColor(r.Status),
			r.RequestedAt.Format(dateLayout),
			orDash(r.DecidedBy),
		)
	}
	w.Flush()
	return regs, nil
}

// RequestWithdrawal files a withdrawal request for an application.
func (a *AllocationAdapter) RequestWithdrawal(ctx context.Context, applicationID, reason string) (*primary.Withdrawal, error) {
	resp, err := a.service.RequestWithdrawal(ctx, primary.RequestWithdrawalRequest{
		ApplicationID: applicationID,
		Reason:        reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request withdrawal: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Withdrawal %s requested for %s\n", resp.Withdrawal.ID, applicationID)
	a.printWarnings(resp.Warnings)
	return resp.Withdrawal, nil
}

// DecideWithdrawal approves or rejects a pending withdrawal request.
func (a *AllocationAdapter) DecideWithdrawal(ctx context.Context, withdrawalID string, approve bool) (*primary.Withdrawal, error) {
	resp, err := a.service.DecideWithdrawal(ctx, primary.DecideWithdrawalRequest{
		WithdrawalID: withdrawalID,
		Approve:      approve,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decide withdrawal: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Withdrawal %s is %s\n", resp.Withdrawal.ID, statusColor(resp.Withdrawal.Status))
	if resp.Application != nil {
		fmt.Fprintf(a.out, "  Application %s: %s\n", resp.Application.ID, statusColor(resp.Application.Status))
	}
	a.printWarnings(resp.Warnings)
	return resp.Withdrawal, nil
}

// ListWithdrawals prints withdrawal requests visible to the caller.
func (a *AllocationAdapter) ListWithdrawals(ctx context.Context, filters primary.WithdrawalFilters) ([]*primary.Withdrawal, error) {
	wds, err := a.service.ListWithdrawals(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}

	if len(wds) == 0 {
		fmt.Fprintln(a.out, "No withdrawals found.")
		return wds, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tAPPLICATION\tSTATUS\tREQUESTED\tREASON")
	fmt.Fprintln(w, "--\t-----------\t------\t---------\t------")
	for _, wd := range wds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			wd.ID,
			wd.ApplicationID,
			statusColor(wd.Status),
			wd.RequestedAt.Format(dateLayout),
			wd.Reason,
		)
	}
	w.Flush()
	return wds, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
