package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/fixtures"
	"github.com/example/bto/internal/wire"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and listings from a fixture file",
		Long: `Load users and listings through the allocation engine.

Without --file the built-in development fixtures are used. Listings are
created acting as the manager named in the fixture.

Examples:
  bto seed
  bto seed --file fixtures.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFixtures(file)
			if err != nil {
				return err
			}

			a, err := wire.Current()
			if err != nil {
				return err
			}

			summary, err := fixtures.Apply(NewContext(), a.Service, f)
			if summary != nil {
				fmt.Printf("✓ Seeded %d user(s) and %d listing(s)\n", summary.Users, summary.Listings)
				for _, w := range summary.Warnings {
					fmt.Printf("  warning: %v\n", w)
				}
			}
			if err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture file")
	return cmd
}

func loadFixtures(path string) (*fixtures.File, error) {
	if path == "" {
		return fixtures.Default()
	}
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer r.Close()
	return fixtures.Parse(r)
}
