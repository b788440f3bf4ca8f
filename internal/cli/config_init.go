package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// When a project directory is in effect (without --global), it creates a
// project-local .planetzero/ directory with config.yaml and .gitignore.
// Otherwise, it creates the global ~/.planetzero/config.yaml.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

With --project-dir (or PLANETZERO_PROJECT_DIR, or inside a directory that
already has .planetzero/config.yaml), creates project-local configuration at
$PROJECT/.planetzero/config.yaml with a .gitignore that keeps local data files
out of version control. Use --global to force global configuration
initialization even inside a project.`,
		Example: `  # Create global configuration
  planetzero config init

  # Create project-local configuration
  planetzero config init --project-dir .

  # Create configuration, overwriting existing
  planetzero config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir := config.GetResolvedProjectDir()

			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}

			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "force global configuration init even inside a project")

	return cmd
}

// errConfigExists is returned when init would overwrite without --force.
var errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

// checkConfigAbsent fails when path exists and force is not set.
func checkConfigAbsent(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return errConfigExists
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
	return nil
}

// initProjectConfig creates project-local config at projectDir/config.yaml with .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := checkConfigAbsent(configPath, force); err != nil {
		return err
	}

	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return fmt.Errorf("failed to create project config directory: %w", err)
	}

	cfg := config.Defaults()
	cfg.SetConfigPath(configPath)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	added, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if len(added) > 0 {
		cmd.Printf("Added %s to .gitignore\n", strings.Join(added, ", "))
	}

	return nil
}

// initGlobalConfig creates global config at ~/.planetzero/config.yaml.
func initGlobalConfig(cmd *cobra.Command, force bool) error {
	cfg := config.Defaults()
	if err := checkConfigAbsent(cfg.ConfigPath(), force); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", cfg.ConfigPath())

	return nil
}
