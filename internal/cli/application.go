package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/ports/primary"
)

// ApplicationCmd returns the application command
func ApplicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "application",
		Aliases: []string{"app"},
		Short:   "Review, decide and book applications",
	}

	cmd.AddCommand(applicationListCmd())
	cmd.AddCommand(applicationShowCmd())
	cmd.AddCommand(applicationDecideCmd())
	cmd.AddCommand(applicationBookCmd())

	return cmd
}

func applicationListCmd() *cobra.Command {
	var filters primary.ApplicationFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Long: `List applications visible to the acting user.

Applicants see their own applications, officers those of listings they
handle, managers those of listings they manage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			filters.Status = strings.ToUpper(filters.Status)
			_, err = adapter.ListApplications(NewContext(), filters)
			return err
		},
	}

	cmd.Flags().StringVar(&filters.ListingID, "listing", "", "Filter by listing")
	cmd.Flags().StringVar(&filters.RequesterID, "requester", "", "Filter by requester")
	cmd.Flags().StringVar(&filters.Status, "status", "", "Filter by status (pending, successful, unsuccessful, booked, withdrawn)")
	return cmd
}

func applicationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [application-id]",
		Short: "Show an application (defaults to your active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			_, err = adapter.ShowApplication(NewContext(), id)
			return err
		},
	}
}

func applicationDecideCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "decide [application-id]",
		Short: "Approve or reject a pending application (manager)",
		Long: `Approve or reject a pending application.

Approval reserves a unit of the requested category. When none is left the
application becomes UNSUCCESSFUL instead.

Examples:
  bto application decide APP-001 --approve
  bto application decide APP-002 --reject`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.DecideApplication(NewContext(), args[0], approved(cmd), normalize(category))
			return err
		},
	}

	addDecisionFlags(cmd)
	cmd.Flags().StringVarP(&category, "category", "c", "", "Expected category; must match the application")
	return cmd
}

func applicationBookCmd() *cobra.Command {
	var unitID string

	cmd := &cobra.Command{
		Use:   "book [application-id]",
		Short: "Book the reserved unit of a successful application (officer or manager)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Book(NewContext(), args[0], unitID)
			return err
		},
	}

	cmd.Flags().StringVar(&unitID, "unit", "", "Unit to bind (defaults to the reserved unit)")
	return cmd
}
