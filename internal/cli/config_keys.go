package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
)

// maskedValue replaces secret values in listings.
const maskedValue = "********"

// NewConfigGetCmd creates the config get command.
func NewConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective configuration value",
		Example: `  planetzero config get store.driver
  planetzero config get emissions.baseline_daily_kg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.GetGlobalConfig().Get(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
}

// NewConfigSetCmd creates the config set command.
func NewConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value in the configuration file",
		Long: `Sets a dotted key in the configuration file. The project file is edited
when a project directory is in effect, otherwise the global file. Environment
overrides are never written back. The result must pass validation.`,
		Example: `  planetzero config set identity.user alice
  planetzero config set store.driver file
  planetzero config set leaderboard.default_period weekly --global`,
		Args: cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFileTarget(global)
			cfg, err := config.LoadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
			}
			if err = cfg.Set(args[0], args[1]); err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
			}
			if err = cfg.Validate(); err != nil {
				return err
			}
			if err = cfg.Save(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			cmd.Printf("Set %s in %s\n", args[0], path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "edit the global file even when a project directory is in effect")

	return cmd
}

// configFileTarget picks the file `config set` edits.
func configFileTarget(global bool) string {
	if dir := config.GetResolvedProjectDir(); dir != "" && !global {
		return filepath.Join(dir, "config.yaml")
	}
	return config.Defaults().ConfigPath()
}

// NewConfigListCmd creates the config list command.
func NewConfigListCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every effective configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			r := newRenderer(cmd)

			values := make(map[string]string, len(config.Keys()))
			for _, key := range config.Keys() {
				v, _ := cfg.Get(key)
				if config.IsSecret(key) && v != "" && !showSecrets {
					v = maskedValue
				}
				values[key] = v
			}
			if r.isJSON() {
				return r.writeJSON(values)
			}

			tw := newTable(r.w)
			for _, key := range config.Keys() {
				printLine(tw, "%s\t%s", key, values[key])
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values instead of masking them")

	return cmd
}
