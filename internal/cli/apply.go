package cli

import (
	"github.com/spf13/cobra"
)

// ApplyCmd returns the apply command
func ApplyCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "apply [listing-id]",
		Short: "Apply for a unit category in a listing",
		Long: `Submit an application as the acting applicant or officer.

Only one application may be active at a time.

Examples:
  bto apply PROJ-001 --category 2-room --as S1234567A --role applicant`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Apply(NewContext(), args[0], normalize(category))
			return err
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Unit category: 2-room or 3-room (required)")
	cmd.MarkFlagRequired("category")
	return cmd
}
