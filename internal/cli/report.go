package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/bto/internal/ports/primary"
)

// ReportCmd returns the report command
func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports for officers and managers",
	}

	cmd.AddCommand(reportBookingsCmd())
	return cmd
}

func reportBookingsCmd() *cobra.Command {
	var filters primary.BookingReportFilters

	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List booked units with applicant details",
		Long: `List booked applications on listings you manage or handle.

Examples:
  bto report bookings --marital married
  bto report bookings --listing PROJ-001 --category 3-room`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			filters.Category = normalize(filters.Category)
			filters.MaritalStatus = normalize(filters.MaritalStatus)
			_, err = adapter.BookingReport(NewContext(), filters)
			return err
		},
	}

	cmd.Flags().StringVar(&filters.ListingID, "listing", "", "Filter by listing")
	cmd.Flags().StringVar(&filters.Category, "category", "", "Filter by unit category")
	cmd.Flags().StringVar(&filters.MaritalStatus, "marital", "", "Filter by marital status (single, married)")
	return cmd
}
