// Package initcmder provides the init command for initializing a local
// .warden directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keelhq/warden/pkg/config"
)

const (
	dirName      = ".warden"
	registryName = "intents.yaml"
)

const starterRegistry = `# Warden intent registry.
#
# Every file write and command execution must run under one of these
# intents. Declare one with the select_intent tool before mutating
# anything.
intents:
  - id: INT-001
    description: "Describe the unit of work this intent covers"
    status: draft
    owned_scope:
      - "src/**"
    constraints: []
    acceptance_criteria: []
`

const initLongDesc string = `Initialize a new .warden/ directory in the current working directory.

Creates a local .warden/ directory that takes precedence over the
default ~/.warden/ directory, writes a config.toml with defaults, and
seeds a starter intents.yaml registry.

This is useful for maintaining separate gate state per project.

Examples:
  warden init`

const initShortDesc string = "Initialize a local .warden/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .warden directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}
	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("writing config.toml: %w", err)
	}

	registryPath := filepath.Join(dir, registryName)
	if _, err := os.Stat(registryPath); os.IsNotExist(err) {
		if err := os.WriteFile(registryPath, []byte(starterRegistry), 0o644); err != nil {
			return fmt.Errorf("writing starter registry: %w", err)
		}
	}

	fmt.Printf("Initialized .warden directory: %s\n", dir)
	fmt.Printf("  config:   %s\n", cfger.Path())
	fmt.Printf("  registry: %s\n", registryPath)
	return nil
}
