package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/ports/primary"
)

// WithdrawalCmd returns the withdrawal command
func WithdrawalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawal",
		Short: "Request and decide application withdrawals",
	}

	cmd.AddCommand(withdrawalRequestCmd())
	cmd.AddCommand(withdrawalListCmd())
	cmd.AddCommand(withdrawalDecideCmd())

	return cmd
}

func withdrawalRequestCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "request [application-id]",
		Short: "Ask to withdraw an application",
		Long: `Ask the listing manager to withdraw an application.

Approval releases any reserved or booked unit back to the listing.

Examples:
  bto withdrawal request APP-001 --reason "found another flat"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.RequestWithdrawal(NewContext(), args[0], reason)
			return err
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason for withdrawing (required)")
	cmd.MarkFlagRequired("reason")
	return cmd
}

func withdrawalListCmd() *cobra.Command {
	var filters primary.WithdrawalFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List withdrawal requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			filters.Status = strings.ToUpper(filters.Status)
			_, err = adapter.ListWithdrawals(NewContext(), filters)
			return err
		},
	}

	cmd.Flags().StringVar(&filters.ListingID, "listing", "", "Filter by listing")
	cmd.Flags().StringVar(&filters.ApplicationID, "application", "", "Filter by application")
	cmd.Flags().StringVar(&filters.Status, "status", "", "Filter by status (pending, approved, rejected)")
	return cmd
}

func withdrawalDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide [withdrawal-id]",
		Short: "Approve or reject a withdrawal request (manager)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.DecideWithdrawal(NewContext(), args[0], approved(cmd))
			return err
		},
	}

	addDecisionFlags(cmd)
	return cmd
}
