package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the bto database",
		Long: `Create the SQLite database and its schema.

Safe to run repeatedly; an existing database is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(globalConfig.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			fmt.Printf("✓ Database ready at %s (schema v%d)\n", globalConfig.DBPath, db.SchemaVersion)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  bto seed                      # load development users and listings")
			fmt.Println("  bto listing list --as S1234567A --role applicant")
			return nil
		},
	}
}
