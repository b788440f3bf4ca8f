package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/logging"
	"github.com/rshade/planetzero/internal/store"
	"github.com/rshade/planetzero/pkg/version"
)

// StepStatus represents the outcome of a single setup step.
type StepStatus int

const (
	// StepSuccess indicates the step completed successfully.
	StepSuccess StepStatus = iota
	// StepWarning indicates the step completed with a non-fatal issue.
	StepWarning
	// StepSkipped indicates the step was intentionally skipped via flag.
	StepSkipped
	// StepError indicates the step failed.
	StepError
)

// StepResult describes the outcome of executing a single setup step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Message  string
	Critical bool
	Err      error
}

// SetupOptions holds the configuration for the setup command, derived from CLI flags.
type SetupOptions struct {
	SkipStore      bool
	NonInteractive bool
}

// SetupResult is the aggregate outcome of all setup steps.
type SetupResult struct {
	Steps       []StepResult
	HasErrors   bool
	HasWarnings bool
}

// dirPermBase is the permission mode for the base and log directories.
const dirPermBase = 0o700

// formatStatus returns a status marker appropriate for the output mode.
func formatStatus(status StepStatus, nonInteractive bool) string {
	if nonInteractive {
		switch status {
		case StepSuccess:
			return "[OK]"
		case StepWarning:
			return "[WARN]"
		case StepSkipped:
			return "[SKIP]"
		case StepError:
			return "[ERR]"
		default:
			return "[??]"
		}
	}

	switch status {
	case StepSuccess:
		return "✓"
	case StepWarning:
		return "!"
	case StepSkipped:
		return "-"
	case StepError:
		return "✗"
	default:
		return "?"
	}
}

// NewSetupCmd creates the top-level setup command that bootstraps the planetzero environment.
func NewSetupCmd() *cobra.Command {
	var opts SetupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Bootstrap the planetzero environment",
		Long: `Sets up planetzero by creating its directories, initializing the global
configuration, creating the data store and registering the current user.

Safe to run repeatedly: existing configuration and data are preserved. When
--user is given and no identity is configured yet, it is saved as
identity.user.`,
		Example: `  # Full setup for alice
  planetzero setup --user alice

  # CI setup (plain status markers)
  planetzero setup --non-interactive

  # Directories and config only
  planetzero setup --skip-store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false,
		"Disable TTY-dependent output (status symbols)")
	cmd.Flags().BoolVar(&opts.SkipStore, "skip-store", false,
		"Skip store creation and user registration")

	return cmd
}

// runSetup runs every step in order with a collect-and-continue pattern.
// Failures in one step do not prevent later steps from running. The function
// returns an error only if a critical step fails.
func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	// Auto-detect non-interactive mode when stdout is not a TTY
	if !opts.NonInteractive && !isWriterTerminal(cmd.OutOrStdout()) {
		opts.NonInteractive = true
	}

	result := &SetupResult{}
	record := func(steps ...StepResult) {
		for _, s := range steps {
			printStep(cmd, s, opts.NonInteractive)
			result.Steps = append(result.Steps, s)
		}
	}

	record(stepDisplayVersion())
	record(stepCreateDirectories()...)
	record(stepInitConfig(config.GetGlobalConfig().Identity.User))

	if opts.SkipStore {
		record(StepResult{
			Name:    "Store creation",
			Status:  StepSkipped,
			Message: "Skipped store creation",
		})
	} else {
		record(stepOpenStore(ctx))
	}

	for _, s := range result.Steps {
		if s.Status == StepError && s.Critical {
			result.HasErrors = true
		}
		if s.Status == StepWarning {
			result.HasWarnings = true
		}
	}

	printSummary(cmd, result)

	if result.HasErrors {
		log.Error().
			Ctx(ctx).
			Str("component", "setup").
			Msg("setup completed with critical errors")
		return errors.New("setup failed: one or more critical steps failed")
	}

	return nil
}

// printStep outputs a single step's status line.
func printStep(cmd *cobra.Command, step StepResult, nonInteractive bool) {
	marker := formatStatus(step.Status, nonInteractive)
	cmd.Printf("%s %s\n", marker, step.Message)
}

// printSummary outputs the final completion message.
func printSummary(cmd *cobra.Command, result *SetupResult) {
	cmd.Println()
	if result.HasErrors {
		cmd.Println("Setup completed with errors. Review the messages above for remediation steps.")
	} else {
		cmd.Println("Setup complete! Run 'planetzero log submit --kwh 8 --meal veg:3' to log today.")
	}
}

// stepDisplayVersion reports the planetzero version and Go runtime.
func stepDisplayVersion() StepResult {
	return StepResult{
		Name:    "Version display",
		Status:  StepSuccess,
		Message: fmt.Sprintf("planetzero v%s (%s)", version.GetVersion(), runtime.Version()),
	}
}

// stepCreateDirectories creates the configuration and log directories.
// Returns one StepResult per directory.
func stepCreateDirectories() []StepResult {
	baseDir, err := config.GetConfigDir()
	if err != nil {
		return []StepResult{{
			Name:     "Directory creation",
			Status:   StepError,
			Message:  fmt.Sprintf("Cannot resolve configuration directory: %v", err),
			Critical: true,
			Err:      err,
		}}
	}

	var results []StepResult
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "logs")} {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			results = append(results, StepResult{
				Name:     "Directory creation",
				Status:   StepSuccess,
				Message:  fmt.Sprintf("Directory exists: %s", dir),
				Critical: true,
			})
			continue
		}

		if mkErr := os.MkdirAll(dir, dirPermBase); mkErr != nil {
			results = append(results, StepResult{
				Name:   "Directory creation",
				Status: StepError,
				Message: fmt.Sprintf("Failed to create %s: %v\n  Try: export %s=/path/to/writable/directory",
					dir, mkErr, config.EnvHome),
				Critical: true,
				Err:      mkErr,
			})
			continue
		}

		results = append(results, StepResult{
			Name:     "Directory creation",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Created %s", dir),
			Critical: true,
		})
	}

	return results
}

// stepInitConfig writes the default global config if none exists, recording
// user as identity.user. An existing file only gains an identity when it has
// none.
func stepInitConfig(user string) StepResult {
	cfg, err := config.LoadFile(config.Defaults().ConfigPath())
	if err != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Existing config is unreadable: %v", err),
			Critical: true,
			Err:      err,
		}
	}
	configPath := cfg.ConfigPath()

	_, statErr := os.Stat(configPath)
	exists := statErr == nil
	if exists && (cfg.Identity.User != "" || user == "") {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Config already exists (%s)", configPath),
			Critical: true,
		}
	}

	if cfg.Identity.User == "" {
		cfg.Identity.User = user
	}
	if err = cfg.Save(); err != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to initialize config: %v", err),
			Critical: true,
			Err:      err,
		}
	}

	msg := fmt.Sprintf("Initialized config (%s)", configPath)
	if exists {
		msg = fmt.Sprintf("Saved identity.user %s (%s)", user, configPath)
	}
	return StepResult{
		Name:     "Config initialization",
		Status:   StepSuccess,
		Message:  msg,
		Critical: true,
	}
}

// stepOpenStore creates the configured store and registers the current user.
func stepOpenStore(ctx context.Context) StepResult {
	eng, cleanup, err := openEngine(ctx)
	if err != nil {
		return StepResult{
			Name:     "Store creation",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to open store: %v", err),
			Critical: true,
			Err:      err,
		}
	}
	defer cleanup()

	cfg := config.GetGlobalConfig()
	where := cfg.Store.Driver
	if opts, optErr := storeOptions(cfg); optErr == nil && opts.Driver != store.DriverMemory {
		where = fmt.Sprintf("%s at %s", opts.Driver, opts.Path)
	}

	user, err := ensureCurrentUser(ctx, eng)
	if err != nil {
		return StepResult{
			Name:    "Store creation",
			Status:  StepWarning,
			Message: fmt.Sprintf("Store ready (%s); no user registered: %v", where, err),
			Err:     err,
		}
	}
	return StepResult{
		Name:    "Store creation",
		Status:  StepSuccess,
		Message: fmt.Sprintf("Store ready (%s), user %s registered", where, user),
	}
}
