// Package intentscmder provides commands for inspecting and validating
// the intent registry.
package intentscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keelhq/warden/pkg/config"
	"github.com/keelhq/warden/pkg/intent"
	"github.com/keelhq/warden/pkg/logger"
)

const intentsLongDesc string = `Inspect and validate the intent registry.

The registry is a YAML document listing the intents agents may declare,
each with an owned scope of glob patterns. Its location comes from
registry.path in config.toml (default: intents.yaml inside .warden/).

Use subcommands to work with the registry:
  warden intents list          List intents with status and scope
  warden intents show <id>     Show one intent in full
  warden intents validate      Check the registry for problems

Examples:
  warden intents list
  warden intents show INT-001
  warden intents validate`

const intentsShortDesc string = "Inspect and validate the intent registry"

func NewIntentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intents",
		Short: intentsShortDesc,
		Long:  intentsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}

// openStore resolves the registry path through the config and returns a
// store bound to it.
func openStore(cmd *cobra.Command) (*intent.Store, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, err
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return intent.NewStore(cfger.ResolvePath(cfg.Registry.Path), logger.NewLogger(debug)), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List intents with status and scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			return runList(store)
		},
	}
}

func runList(store *intent.Store) error {
	reg := store.Load()
	if len(reg.Intents) == 0 {
		fmt.Printf("No intents found in %s\n", store.Path())
		return nil
	}

	maxID := 0
	for _, in := range reg.Intents {
		if len(in.ID) > maxID {
			maxID = len(in.ID)
		}
	}

	for _, in := range reg.Intents {
		fmt.Printf("%-*s  %-12s  %s\n", maxID, in.ID, in.Status, strings.Join(in.OwnedScope, ", "))
	}

	return nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one intent in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			return runShow(store, args[0])
		},
	}
}

func runShow(store *intent.Store, id string) error {
	in, err := store.FindByID(id)
	if err != nil {
		return err
	}

	fmt.Println(intent.FormatAsContext(in))
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the registry for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			return runValidate(store)
		},
	}
}

func runValidate(store *intent.Store) error {
	reg, problems := store.LoadStrict()

	if len(problems) == 0 {
		fmt.Printf("OK: %d intent(s) in %s\n", len(reg.Intents), store.Path())
		return nil
	}

	for _, p := range problems {
		fmt.Printf("  - %v\n", p)
	}
	return fmt.Errorf("registry has %d problem(s)", len(problems))
}
