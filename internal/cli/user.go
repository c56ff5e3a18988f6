package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/bto/internal/ports/primary"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user profiles",
		Long:  `Add and list the identity profiles the engine authorizes against.`,
	}

	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userListCmd())

	return cmd
}

func userAddCmd() *cobra.Command {
	var name, marital, role string
	var age int

	cmd := &cobra.Command{
		Use:   "add [id]",
		Short: "Add a user profile",
		Long: `Add a user profile keyed by its NRIC.

Examples:
  bto user add S1234567A --name John --age 35 --marital single --user-role applicant
  bto user add T8765432F --name Michael --age 36 --marital single --user-role manager`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := identityAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Add(NewContext(), primary.AddUserRequest{
				ID:            args[0],
				Name:          name,
				Age:           age,
				MaritalStatus: normalize(marital),
				Role:          primary.Role(normalize(role)),
			})
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().IntVar(&age, "age", 0, "Age in years (required)")
	cmd.Flags().StringVar(&marital, "marital", "", "Marital status: single or married (required)")
	cmd.Flags().StringVar(&role, "user-role", "", "Role: applicant, officer or manager (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("age")
	cmd.MarkFlagRequired("marital")
	cmd.MarkFlagRequired("user-role")

	return cmd
}

func userListCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := identityAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.List(NewContext(), primary.Role(normalize(role)))
			return err
		},
	}

	cmd.Flags().StringVar(&role, "user-role", "", "Only list users with this role")
	return cmd
}
