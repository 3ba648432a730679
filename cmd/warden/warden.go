// Package wardencmder
package wardencmder

import (
	"github.com/spf13/cobra"

	versioncmder "github.com/keelhq/warden/cmd/version"
	configcmder "github.com/keelhq/warden/cmd/warden/config"
	initcmder "github.com/keelhq/warden/cmd/warden/init"
	intentscmder "github.com/keelhq/warden/cmd/warden/intents"
	servecmder "github.com/keelhq/warden/cmd/warden/serve"
	tracescmder "github.com/keelhq/warden/cmd/warden/traces"
)

const wardenLongDesc string = `Warden gates an autonomous coding agent's destructive operations
behind declared intent, scope validation, and human authorization,
and records every permitted mutation in a content-addressed audit
trail.

Common commands:
  warden init            Initialize a local .warden/ directory
  warden serve           Run the gate API and MCP servers
  warden intents list    List the intents in the registry
  warden traces list     Query the audit trail`

const wardenShortDesc string = "Warden - Intent-gated operations for coding agents"

func NewWardenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: wardenShortDesc,
		Long:  wardenLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .warden/ directory location")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(intentscmder.NewIntentsCmd())
	cmd.AddCommand(tracescmder.NewTracesCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
