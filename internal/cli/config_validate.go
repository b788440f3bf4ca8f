package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/store"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var (
		verbose bool
		server  bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Validates the effective configuration (global file, project overlay and
environment overrides) for semantic correctness.

This includes:
- Output format and display unit
- Logging level and format
- Store driver
- Baseline, leaderboard limit and period
- With --server: the JWT secret and listen address needed by 'serve'`,
		Example: `  # Validate current configuration
  planetzero config validate

  # Also check what 'serve' needs, with details
  planetzero config validate --server --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose, server)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	cmd.Flags().BoolVar(&server, "server", false, "also require the settings used by 'serve'")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose, server bool) error {
	cfg := config.GetGlobalConfig()

	validate := cfg.Validate
	if server {
		validate = cfg.ValidateServer
	}
	if err := validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.ConfigPath())
	if dir := config.GetResolvedProjectDir(); dir != "" {
		cmd.Printf("  Project directory: %s\n", dir)
	}
	cmd.Printf("  Output format: %s (unit %s)\n", cfg.Output.DefaultFormat, cfg.Output.Unit)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}
	cmd.Printf("  Audit log: %t\n", cfg.Logging.Audit.Enabled)

	printStoreDetails(cmd, cfg)

	cmd.Printf("  Baseline: %g kg CO2e per day\n", cfg.Emissions.BaselineDailyKg)
	cmd.Printf("  Leaderboard: %s, top %d\n", cfg.Leaderboard.DefaultPeriod, cfg.Leaderboard.DefaultLimit)
	if cfg.Identity.User != "" {
		cmd.Printf("  User: %s\n", cfg.Identity.User)
	} else {
		cmd.Println("  No user configured (pass --user or set identity.user)")
	}
}

// printStoreDetails prints where data is stored.
func printStoreDetails(cmd *cobra.Command, cfg *config.Config) {
	opts, err := storeOptions(cfg)
	if err != nil {
		cmd.Printf("  Store: %s (path unresolved: %v)\n", cfg.Store.Driver, err)
		return
	}
	if opts.Driver == store.DriverMemory {
		cmd.Println("  Store: memory (data is discarded on exit)")
		return
	}
	cmd.Printf("  Store: %s at %s\n", opts.Driver, opts.Path)
}
