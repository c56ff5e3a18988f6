package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/ports/primary"
)

// RegistrationCmd returns the registration command
func RegistrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registration",
		Aliases: []string{"reg"},
		Short:   "Manage officer registrations to handle listings",
	}

	cmd.AddCommand(registrationCreateCmd())
	cmd.AddCommand(registrationListCmd())
	cmd.AddCommand(registrationDecideCmd())

	return cmd
}

func registrationCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [listing-id]",
		Short: "Register to handle a listing (officer)",
		Long: `Request a staff slot on a listing.

An officer may not handle a listing they applied for, nor hold two
listings whose windows overlap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Register(NewContext(), args[0])
			return err
		},
	}
}

func registrationListCmd() *cobra.Command {
	var filters primary.RegistrationFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			filters.Status = strings.ToUpper(filters.Status)
			_, err = adapter.ListRegistrations(NewContext(), filters)
			return err
		},
	}

	cmd.Flags().StringVar(&filters.ListingID, "listing", "", "Filter by listing")
	cmd.Flags().StringVar(&filters.StaffID, "staff", "", "Filter by officer")
	cmd.Flags().StringVar(&filters.Status, "status", "", "Filter by status (pending, approved, rejected)")
	return cmd
}

func registrationDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide [registration-id]",
		Short: "Approve or reject a registration (manager)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.DecideRegistration(NewContext(), args[0], approved(cmd))
			return err
		},
	}

	addDecisionFlags(cmd)
	return cmd
}
