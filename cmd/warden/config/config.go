// Package configcmder provides the config command for managing
// persistent warden configuration stored in the .warden/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent warden configuration.

Configuration is stored as config.toml in the .warden/ directory and
provides default values for command flags. CLI flags always take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  registry.path,
  audit.backend, audit.log_path, audit.sqlite_path, audit.postgres_dsn,
  gate.mode, gate.timeout_seconds,
  api.listen, api.mcp_listen,
  workers.num, workers.queue_size

Use subcommands to get, set, or list configuration values:
  warden config set <key> <value>    Set a configuration value
  warden config get <key>            Get a configuration value
  warden config list                 List all configuration values

Examples:
  warden config set gate.mode auto-reject
  warden config set audit.backend sqlite
  warden config get registry.path
  warden config list`

const configShortDesc string = "Manage persistent warden configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
