package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvlist/internal/config"
)

// newConfigCmd groups the configuration subcommands. They honor the
// persistent --config flag.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect kvlist configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := config.Load(resolveConfigPath(configFile))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out, err := f.Marshal(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	getCmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml|toml")

	defaultCmd := &cobra.Command{
		Use:   "default",
		Short: "Print the built-in configuration with comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
			return err
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := resolveConfigPath(configFile)
			f, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := f.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if path == "" {
				path = "built-in defaults"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			return nil
		},
	}

	themesCmd := &cobra.Command{
		Use:     "themes",
		Aliases: []string{"theme"},
		Short:   "List available theme presets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := config.Load(resolveConfigPath(configFile))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Available themes (default: %s):\n", f.Theme.Preset)
			for _, name := range f.PresetNames() {
				fmt.Fprintf(cmd.OutOrStdout(), " - %s\n", name)
			}
			return nil
		},
	}

	configCmd.AddCommand(getCmd, defaultCmd, validateCmd, themesCmd)
	return configCmd
}
