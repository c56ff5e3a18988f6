// Package cli contains presentation adapters that translate CLI operations to
// primary-port calls and render the results.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/bto/internal/ports/primary"
)

const dateLayout = "2006-01-02"

// AllocationAdapter is a thin adapter that translates CLI operations to AllocationService calls.
// It depends only on the AllocationService interface, enabling easy testing with mocks.
type AllocationAdapter struct {
	service primary.AllocationService
	out     io.Writer
}

// NewAllocationAdapter creates a new AllocationAdapter with the given service.
func NewAllocationAdapter(service primary.AllocationService, out io.Writer) *AllocationAdapter {
	return &AllocationAdapter{
		service: service,
		out:     out,
	}
}

// CreateListing creates a listing as the context manager.
func (a *AllocationAdapter) CreateListing(ctx context.Context, req primary.CreateListingRequest) (*primary.Listing, error) {
	resp, err := a.service.CreateListing(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Created listing %s: %s\n", resp.Listing.ID, resp.Listing.Name)
	fmt.Fprintf(a.out, "  Window: %s\n", formatWindow(resp.Listing.OpenAt, resp.Listing.CloseAt))
	a.printWarnings(resp.Warnings)
	return resp.Listing, nil
}

// SetVisibility toggles whether requesters can discover a listing.
func (a *AllocationAdapter) SetVisibility(ctx context.Context, listingID string, visible bool) (*primary.Listing, error) {
	resp, err := a.service.SetListingVisibility(ctx, primary.SetVisibilityRequest{
		ListingID: listingID,
		Visible:   visible,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set visibility: %w", err)
	}

	state := "hidden"
	if visible {
		state = "visible"
	}
	fmt.Fprintf(a.out, "✓ Listing %s is now %s\n", listingID, state)
	a.printWarnings(resp.Warnings)
	return resp.Listing, nil
}

// ListListings prints the listings the caller may see.
func (a *AllocationAdapter) ListListings(ctx context.Context, filters primary.ListingFilters) ([]*primary.Listing, error) {
	listings, err := a.service.ListListings(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	if len(listings) == 0 {
		fmt.Fprintln(a.out, "No listings found.")
		return listings, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tNEIGHBORHOOD\tWINDOW\tUNITS\tSLOTS\tVISIBLE")
	fmt.Fprintln(w, "--\t----\t------------\t------\t-----\t-----\t-------")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%t\n",
			l.ID,
			l.Name,
			l.Neighborhood,
			formatWindow(l.OpenAt, l.CloseAt),
			formatUnits(l.Units),
			l.AvailableSlots,
			l.StaffSlots,
			l.Visible,
		)
	}
	w.Flush()
	return listings, nil
}

// ShowListing displays details for a single listing.
func (a *AllocationAdapter) ShowListing(ctx context.Context, listingID string) (*primary.Listing, error) {
	l, err := a.service.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	fmt.Fprintf(a.out, "\nListing: %s\n", l.ID)
	fmt.Fprintf(a.out, "Name:         %s\n", l.Name)
	fmt.Fprintf(a.out, "Neighborhood: %s\n", l.Neighborhood)
	fmt.Fprintf(a.out, "Manager:      %s\n", l.ManagerID)
	fmt.Fprintf(a.out, "Window:       %s\n", formatWindow(l.OpenAt, l.CloseAt))
	fmt.Fprintf(a.out, "Visible:      %t\n", l.Visible)
	for _, c := range l.Units {
		fmt.Fprintf(a.out, "%-13s %d of %d available\n", c.Category+":", c.Available, c.Total)
	}
	fmt.Fprintf(a.out, "Staff slots:  %d of %d available\n", l.AvailableSlots, l.StaffSlots)
	if len(l.StaffIDs) > 0 {
		fmt.Fprintf(a.out, "Staff:        %s\n", strings.Join(l.StaffIDs, ", "))
	}
	if len(l.EligibleCategories) > 0 {
		fmt.Fprintf(a.out, "You may apply for: %s\n", strings.Join(l.EligibleCategories, ", "))
	}
	fmt.Fprintln(a.out)
	return l, nil
}

// Apply submits an application for the context requester.
func (a *AllocationAdapter) Apply(ctx context.Context, listingID, category string) (*primary.Application, error) {
	resp, err := a.service.SubmitApplication(ctx, primary.SubmitApplicationRequest{
		ListingID: listingID,
		Category:  category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Submitted application %s for %s (%s)\n", resp.Application.ID, listingID, category)
	a.printWarnings(resp.Warnings)
	return resp.Application, nil
}

// DecideApplication approves or rejects a pending application.
func (a *AllocationAdapter) DecideApplication(ctx context.Context, applicationID string, approve bool, category string) (*primary.Application, error) {
	resp, err := a.service.DecideApplication(ctx, primary.DecideApplicationRequest{
		ApplicationID: applicationID,
		Approve:       approve,
		Category:      category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decide application: %w", err)
	}

	app := resp.Application
	fmt.Fprintf(a.out, "✓ Application %s is %s\n", app.ID, statusColor(app.Status))
	if resp.Downgrade != nil {
		fmt.Fprintf(a.out, "  %s\n", color.New(color.FgYellow).Sprintf("approval downgraded: %v", resp.Downgrade))
	}
	if app.ReservedUnitID != "" {
		fmt.Fprintf(a.out, "  Reserved unit: %s\n", app.ReservedUnitID)
	}
	a.printWarnings(resp.Warnings)
	return app, nil
}

// Book binds the reserved unit of a successful application.
func (a *AllocationAdapter) Book(ctx context.Context, applicationID, unitID string) (*primary.Application, error) {
	resp, err := a.service.BookApplication(ctx, primary.BookApplicationRequest{
		ApplicationID: applicationID,
		UnitID:        unitID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to book application: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Booked application %s\n", resp.Application.ID)
	fmt.Fprintf(a.out, "  Unit: %s\n", resp.Application.BoundUnitID)
	a.printWarnings(resp.Warnings)
	return resp.Application, nil
}

// ListApplications prints applications visible to the caller.
func (a *AllocationAdapter) ListApplications(ctx context.Context, filters primary.ApplicationFilters) ([]*primary.Application, error) {
	apps, err := a.service.ListApplications(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	if len(apps) == 0 {
		fmt.Fprintln(a.out, "No applications found.")
		return apps, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tREQUESTER\tCATEGORY\tSTATUS\tSUBMITTED")
	fmt.Fprintln(w, "--\t-------\t---------\t--------\t------\t---------")
	for _, app := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			app.ID,
			app.ListingID,
			app.RequesterID,
			app.Category,
			statusColor(app.Status),
			app.SubmittedAt.Format(dateLayout),
		)
	}
	w.Flush()
	return apps, nil
}

// ShowApplication displays one application. An empty ID shows the caller's
// active application.
func (a *AllocationAdapter) ShowApplication(ctx context.Context, applicationID string) (*primary.Application, error) {
	var (
		app *primary.Application
		err error
	)
	if applicationID == "" {
		app, err = a.service.ActiveApplication(ctx, "")
	} else {
		app, err = a.service.GetApplication(ctx, applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	fmt.Fprintf(a.out, "\nApplication: %s\n", app.ID)
	fmt.Fprintf(a.out, "Listing:   %s\n", app.ListingID)
	fmt.Fprintf(a.out, "Requester: %s\n", app.RequesterID)
	fmt.Fprintf(a.out, "Category:  %s\n", app.Category)
	fmt.Fprintf(a.out, "Status:    %s\n", statusColor(app.Status))
	if app.ReservedUnitID != "" {
		fmt.Fprintf(a.out, "Reserved:  %s\n", app.ReservedUnitID)
	}
	if app.BoundUnitID != "" {
		fmt.Fprintf(a.out, "Unit:      %s\n", app.BoundUnitID)
	}
	fmt.Fprintf(a.out, "Submitted: %s\n", app.SubmittedAt.Format(time.RFC3339))
	fmt.Fprintf(a.out, "Updated:   %s\n", app.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintln(a.out)
	return app, nil
}

// BookingReport prints booked applications with requester demographics.
func (a *AllocationAdapter) BookingReport(ctx context.Context, filters primary.BookingReportFilters) ([]*primary.BookingReportRow, error) {
	rows, err := a.service.BookingReport(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to build booking report: %w", err)
	}

	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No bookings found.")
		return rows, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "APPLICATION\tLISTING\tCATEGORY\tUNIT\tREQUESTER\tAGE\tMARITAL\tBOOKED")
	fmt.Fprintln(w, "-----------\t-------\t--------\t----\t---------\t---\t-------\t------")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ApplicationID,
			r.ListingName,
			r.Category,
			r.UnitID,
			r.RequesterName,
			r.Age,
			r.MaritalStatus,
			r.BookedAt.Format(dateLayout),
		)
	}
	w.Flush()
	fmt.Fprintf(a.out, "\n%d booking(s)\n", len(rows))
	return rows, nil
}

func (a *AllocationAdapter) printWarnings(warnings primary.Warnings) {
	for _, w := range warnings {
		fmt.Fprintf(a.out, "  %s %v\n", color.New(color.FgYellow).Sprint("warning:"), w)
	}
}

func statusColor(status string) string {
	switch status {
	case "SUCCESSFUL", "APPROVED":
		return color.New(color.FgGreen).Sprint(status)
	case "BOOKED":
		return color.New(color.FgHiGreen).Sprint(status)
	case "UNSUCCESSFUL", "REJECTED":
		return color.New(color.FgRed).Sprint(status)
	case "WITHDRAWN":
		return color.New(color.FgYellow).Sprint(status)
	case "PENDING":
		return color.New(color.FgCyan).Sprint(status)
	default:
		return status
	}
}

func formatWindow(openAt, closeAt time.Time) string {
	return openAt.Format(dateLayout) + " → " + closeAt.Format(dateLayout)
}

func formatUnits(counts []primary.CategoryCount) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s %d/%d", c.Category, c.Available, c.Total))
	}
	return strings.Join(parts, ", ")
}
