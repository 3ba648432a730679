package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keelhq/warden/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .warden/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  registry.path,
  audit.backend, audit.log_path, audit.sqlite_path, audit.postgres_dsn,
  gate.mode, gate.timeout_seconds,
  api.listen, api.mcp_listen,
  workers.num, workers.queue_size

Examples:
  warden config set gate.mode terminal
  warden config set gate.timeout_seconds 60
  warden config set audit.backend postgres`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(key, value, configDir string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.Keys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Printf("Set %s = %q in %s\n", key, value, cfger.Path())
	return nil
}
