package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/siftdb/sift/pkg/sift"
	"github.com/siftdb/sift/pkg/store"
	"github.com/spf13/cobra"
)

const seedTable = "todos"

var seedContents = []string{
	"Write the launch post",
	"Review open pull requests",
	"Back up the production database",
	"Refill the coffee grinder",
	"Close stale support tickets",
	"Rotate the API keys",
	"Update the deployment runbook",
	"Clean the staging environment",
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo rows to explore in the shell",
		Long: `Declare a demo todos table and insert sample rows into the
configured database.

Each row gets a generated identifier, so seeding is safe to repeat.
If a schema manifest is configured it is applied first, so manifest
tables exist alongside the demo data.`,
		Example: `  # Seed the in-memory default (gone when the process exits)
  sift seed

  # Seed a persistent database, then explore it
  sift seed -d data/app.db
  sift shell -d data/app.db

  # Seed more rows as JSON
  sift seed --rows 20 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, rows)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 5, "Number of demo rows to insert")

	return cmd
}

func runSeed(cmd *cobra.Command, rows int) error {
	if rows < 1 {
		return fmt.Errorf("--rows must be at least 1")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	if err := cmdCtx.DB.Declare(seedTable, sift.Schema{
		"id":      "text primary key",
		"content": "text",
		"done":    "integer",
	}); err != nil {
		return err
	}

	tbl, err := cmdCtx.DB.Table(seedTable)
	if err != nil {
		return err
	}

	inserted := make([]store.Row, 0, rows)
	for i := 0; i < rows; i++ {
		row := store.Row{
			"id":      uuid.NewString(),
			"content": seedContents[i%len(seedContents)],
			"done":    i % 2,
		}
		if _, err := tbl.Insert(ctx, row); err != nil {
			return err
		}
		inserted = append(inserted, row)
	}

	out := cmd.OutOrStdout()
	if err := renderRows(out, inserted, cmdCtx.Cfg.Format); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Seeded %d rows into %s\n", len(inserted), seedTable)
	return nil
}
