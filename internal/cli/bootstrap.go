// Package cli provides CLI commands for the bto application.
package cli

import (
	gocontext "context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/bto/internal/adapters/cli"
	"github.com/example/bto/internal/config"
	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/wire"
)

// globalConfig stores the configuration resolved for the current CLI invocation.
// Set once at startup by Bootstrap.
var globalConfig *config.Config

var configPath string

// AddGlobalFlags registers the persistent flags every command accepts.
func AddGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default $HOME/.bto/config.yaml)")
	pf.String("db", "", "SQLite database path")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("as", "", "ID of the user to act as")
	pf.String("role", "", "Role to act under (applicant, officer, manager)")
}

// Bootstrap loads configuration for the invoked command.
// Should be called once at CLI startup in PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	globalConfig = cfg
	wire.Configure(cfg)
	return nil
}

// Shutdown releases resources opened during the invocation.
func Shutdown(_ *cobra.Command, _ []string) error {
	return wire.Shutdown()
}

// NewContext creates a context.Background() with the configured actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalConfig == nil {
		return ctx
	}
	if actor, ok := globalConfig.ActorContext(); ok {
		return ctxutil.WithActor(ctx, actor)
	}
	return ctx
}

func allocationAdapter() (*cliadapter.AllocationAdapter, error) {
	a, err := wire.Current()
	if err != nil {
		return nil, err
	}
	return a.AllocationAdapter(os.Stdout), nil
}

func identityAdapter() (*cliadapter.IdentityAdapter, error) {
	a, err := wire.Current()
	if err != nil {
		return nil, err
	}
	return a.IdentityAdapter(os.Stdout), nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// addDecisionFlags adds the mutually exclusive --approve/--reject pair.
func addDecisionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("approve", false, "Approve the request")
	cmd.Flags().Bool("reject", false, "Reject the request")
	cmd.MarkFlagsMutuallyExclusive("approve", "reject")
	cmd.MarkFlagsOneRequired("approve", "reject")
}

func approved(cmd *cobra.Command) bool {
	approve, _ := cmd.Flags().GetBool("approve")
	return approve
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
