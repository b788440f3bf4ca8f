package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	debug      bool
	user       string
	configPath string
	projectDir string
	output     string
}

// NewRootCmd creates the root Cobra command for the planetzero CLI.
// It loads configuration (global file, project overlay, environment, then
// flags), wires up logging, tracing and audit logging, and registers the
// subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		flags     globalFlags
		logResult *logging.LogPathResult
	)

	cmd := &cobra.Command{
		Use:           "planetzero",
		Short:         "Personal carbon footprint tracker",
		Long:          "planetzero: log daily activities, calculate kg CO2e emissions and compare them over time",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd, flags); err != nil {
				return err
			}
			if flags.output != "" && !slices.Contains([]string{formatTable, formatJSON}, flags.output) {
				return fmt.Errorf("%w: --output must be table or json, got %q", engine.ErrValidation, flags.output)
			}

			result := setupLogging(cmd, flags.debug)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.StringVarP(&flags.user, "user", "u", "", "user ID to act as (overrides identity.user and "+config.EnvUser+")")
	pf.StringVar(&flags.configPath, "config", "", "config file (default $"+config.EnvHome+"/config.yaml)")
	pf.StringVar(&flags.projectDir, "project-dir", "", "project directory holding .planetzero/config.yaml")
	pf.StringVarP(&flags.output, "output", "o", "", "output format: table or json (default output.default_format)")

	cmd.AddCommand(
		newLogCmd(),
		NewDashboardCmd(), NewSummaryCmd(), NewHistoryCmd(),
		NewLeaderboardCmd(), NewRecommendationsCmd(),
		NewProfileCmd(), NewFactorsCmd(),
		newUserCmd(), newConfigCmd(),
		NewServeCmd(), NewTokenCmd(), NewSetupCmd(),
	)

	return cmd
}

// loadConfig resolves the project directory, builds the effective
// configuration and installs it as the global config.
func loadConfig(cmd *cobra.Command, flags globalFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
		cmd.SetContext(ctx)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	projectDir := config.ResolveProjectDir(ctx, flags.projectDir, cwd)
	config.SetResolvedProjectDir(projectDir)

	var cfg *config.Config
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	} else {
		cfg = config.NewWithProjectDir(ctx, projectDir)
	}

	if flags.user != "" {
		cfg.Identity.User = flags.user
	}
	if flags.output != "" {
		cfg.Output.DefaultFormat = flags.output
	}
	config.SetGlobalConfig(cfg)
	return nil
}

const rootCmdExample = `  # Log today's activity from flags
  planetzero log submit --transport car_petrol:20 --kwh 10 --meal veg:2

  # Log a day from a YAML file
  planetzero log submit --date 2026-01-10 --file day.yaml

  # Import many days at once
  planetzero log import --file days.yaml

  # Show today, the last 7 days and the last 30 days
  planetzero dashboard

  # Weekly leaderboard as JSON
  planetzero leaderboard --period weekly --output json

  # Serve the HTTP API
  PLANETZERO_JWT_SECRET=change-me planetzero serve

  # Initialize configuration
  planetzero config init

  # Set configuration values
  planetzero config set identity.user alice`

// newLogCmd creates the log command group for daily activity logs.
func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Daily activity log commands"}
	cmd.AddCommand(NewLogSubmitCmd(), NewLogGetCmd(), NewLogImportCmd())
	return cmd
}

// newUserCmd creates the user command group.
func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "User identity and onboarding commands"}
	cmd.AddCommand(NewUserAddCmd(), NewUserOnboardCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		NewConfigInitCmd(), NewConfigSetCmd(), NewConfigGetCmd(),
		NewConfigListCmd(), NewConfigValidateCmd(),
	)
	return cmd
}
