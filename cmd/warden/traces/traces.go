// Package tracescmder provides commands for querying and verifying the
// audit trail.
package tracescmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keelhq/warden/pkg/config"
	"github.com/keelhq/warden/pkg/trace"
	"github.com/keelhq/warden/pkg/trace/jsonl"
	"github.com/keelhq/warden/pkg/trace/postgres"
	"github.com/keelhq/warden/pkg/trace/sqlite"
)

const tracesLongDesc string = `Query and verify the audit trail.

Every permitted mutation is recorded as an append-only trace record
binding the touched file ranges, their content hashes, and the intent
the session was working under.

Use subcommands to work with the trail:
  warden traces list      List trace records, newest first
  warden traces verify    Re-hash recorded ranges against the working tree

Examples:
  warden traces list --intent INT-001
  warden traces list --file src/auth/login.go --limit 10
  warden traces verify`

const tracesShortDesc string = "Query and verify the audit trail"

func NewTracesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: tracesShortDesc,
		Long:  tracesLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newVerifyCmd())

	return cmd
}

// openStore builds the trace store named by audit.backend in the
// config. The in-memory backend has nothing to query from a fresh
// process, so it is rejected here.
func openStore(cmd *cobra.Command) (trace.Store, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, err
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	switch cfg.Audit.Backend {
	case "jsonl":
		return jsonl.NewStore(cfger.ResolvePath(cfg.Audit.LogPath))
	case "sqlite":
		return sqlite.NewStore(cfger.ResolvePath(cfg.Audit.SQLitePath))
	case "postgres":
		return postgres.NewStore(context.Background(), cfg.Audit.PostgresDSN)
	default:
		return nil, fmt.Errorf("audit backend %q cannot be queried from the CLI", cfg.Audit.Backend)
	}
}

func newListCmd() *cobra.Command {
	var (
		filePath string
		intentID string
		session  string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trace records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			return runList(store, trace.Query{
				FilePath:   filePath,
				IntentID:   intentID,
				SessionURL: session,
				Limit:      limit,
				Offset:     offset,
			})
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Filter by touched file path")
	cmd.Flags().StringVar(&intentID, "intent", "", "Filter by intent id")
	cmd.Flags().StringVar(&session, "session", "", "Filter by session URL")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")

	return cmd
}

func runList(store trace.Store, q trace.Query) error {
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return fmt.Errorf("querying traces: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("No trace records found.")
		return nil
	}

	for _, rec := range recs {
		intents := rec.IntentIDs()
		intentCol := "-"
		if len(intents) > 0 {
			intentCol = intents[0]
		}

		targets := make([]string, 0, len(rec.Files)+len(rec.Operations))
		for _, f := range rec.Files {
			targets = append(targets, f.Path)
		}
		for _, cmd := range rec.Commands() {
			targets = append(targets, "$ "+cmd)
		}

		fmt.Printf("%s  %s  %-8s  %v\n", rec.Timestamp, rec.ID, intentCol, targets)
	}

	return nil
}

func newVerifyCmd() *cobra.Command {
	var intentID string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-hash recorded ranges against the working tree",
		Long: `Recompute the content hash of every recorded file range and compare
it with the hash stored in the audit trail. A mismatch means the file
changed since the record was written, which is expected for files under
active development; a match proves the recorded content is still
present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			return runVerify(store, intentID)
		},
	}

	cmd.Flags().StringVar(&intentID, "intent", "", "Only verify records for this intent id")

	return cmd
}

func runVerify(store trace.Store, intentID string) error {
	recs, err := store.Query(context.Background(), trace.Query{IntentID: intentID})
	if err != nil {
		return fmt.Errorf("querying traces: %w", err)
	}

	var matched, changed, missing int

	for _, rec := range recs {
		for _, f := range rec.Files {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				fmt.Printf("MISSING  %s  %s\n", rec.ID, f.Path)
				missing++
				continue
			}

			for _, conv := range f.Conversations {
				for _, r := range conv.Ranges {
					got := trace.HashRange(string(data), r.StartLine, r.EndLine)
					if got == r.ContentHash {
						matched++
					} else {
						fmt.Printf("CHANGED  %s  %s:%d-%d\n", rec.ID, f.Path, r.StartLine, r.EndLine)
						changed++
					}
				}
			}
		}
	}

	fmt.Printf("\n%d range(s) matched, %d changed, %d file(s) missing\n", matched, changed, missing)
	return nil
}
