package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/cli"
	"github.com/example/bto/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "bto",
		Short:   "bto - build-to-order housing allocation",
		Version: version.String(),
		Long: `bto manages housing listings, applications, officer registrations
and withdrawals. Every command acts as the user given by --as and --role
(or actor.id / actor.role in the config file).`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  cli.Bootstrap,
		PersistentPostRunE: cli.Shutdown,
	}
	cli.AddGlobalFlags(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.UserCmd())

	// Allocation workflow
	rootCmd.AddCommand(cli.ListingCmd())
	rootCmd.AddCommand(cli.ApplyCmd())
	rootCmd.AddCommand(cli.ApplicationCmd())
	rootCmd.AddCommand(cli.RegistrationCmd())
	rootCmd.AddCommand(cli.WithdrawalCmd())
	rootCmd.AddCommand(cli.ReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
