package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/siftdb/sift/internal/cli/config"
	"github.com/siftdb/sift/internal/manifest"
	"github.com/siftdb/sift/pkg/sift"
	"github.com/siftdb/sift/pkg/store"
	"github.com/spf13/cobra"
)

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive criteria shell",
		Long: `Open an interactive shell against the configured database.

Statements are a verb, a table name, and JSON arguments:

  find todos {"done": {"$eq": 0}} limit 10 order id-
  insert todos {"content": "Hello", "done": 0}
  update todos {"id": 3} {"done": 1}
  remove todos {"done": 1}
  distinct todos content {"content": {"$like": "%2"}}
  declare tags {"id": "integer primary key", "name": "text"}

Type .help inside the shell for the full reference.`,
		Example: `  # In-memory scratch database
  sift shell

  # Persistent database with a schema manifest
  sift shell -d data/app.db -m sift.yaml

  # Re-apply the manifest whenever it changes
  sift shell -m sift.yaml --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Watch the manifest file and re-apply it on change")

	return cmd
}

func runShell(cmd *cobra.Command, watch bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if watch {
		if cmdCtx.Cfg.Manifest == "" {
			return fmt.Errorf("--watch requires a manifest (set one with --manifest or in sift.yaml)")
		}
		go func() {
			if err := manifest.Watch(ctx, cmdCtx.DB, cmdCtx.Cfg.Manifest, cmdCtx.Logger); err != nil && !errors.Is(err, context.Canceled) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			}
		}()
	}

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sift> ",
		HistoryFile:     cmdCtx.Cfg.HistoryPath(),
		AutoComplete:    newShellCompleter(cmdCtx.DB),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "sift shell (database: %s)\n", cmdCtx.Cfg.Database)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	// The session format starts from config and can be switched with
	// the .format command.
	format := cmdCtx.Cfg.Format

	// Shell loop
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, cmdCtx.DB, line, &format); quit {
				break
			}
			continue
		}

		st, err := parseStatement(line)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		if err := runStatement(ctx, out, cmdCtx.DB, st, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

func handleDotCommand(cmd *cobra.Command, db *sift.DB, line string, format *string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	out := cmd.OutOrStdout()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(out)

	case ".tables":
		for _, name := range db.Tables() {
			_, _ = fmt.Fprintln(out, name)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return false
		}
		if err := printSchema(out, db, parts[1], *format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "format: %s\n", *format)
			return false
		}
		next := strings.ToLower(parts[1])
		probe := config.Config{Format: next}
		if err := probe.Validate(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		*format = next

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

// printSchema renders the declared column mapping for a table.
func printSchema(w io.Writer, db *sift.DB, name, format string) error {
	schema, err := db.Schema(name)
	if err != nil {
		return err
	}

	cols := make([]string, 0, len(schema))
	for col := range schema {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	rows := make([]store.Row, 0, len(cols))
	for _, col := range cols {
		rows = append(rows, store.Row{"column": col, "type": schema[col]})
	}
	return renderRows(w, rows, format)
}

func printShellHelp(w io.Writer) {
	help := `
Statements:
  find <table> [criteria] [limit N] [offset N] [order col[+|-]]
  count <table> [column] [criteria]
  distinct <table> <column> [criteria] [limit N] [offset N]
  insert <table> <row>
  update <table> <criteria> <row>
  remove <table> <criteria> [limit N] [offset N]
  declare <table> <schema>

Criteria, rows, and schemas are JSON objects. Operators: $eq, $ne, $gt,
$gte, $lt, $lte, $like, $glob, $not, $in. Pass {} as remove criteria to
delete every row. Append - to an order column for descending.

Commands:
  .help           Show this help message
  .tables         List declared tables
  .schema <name>  Show the declared schema for a table
  .format <f>     Switch output format (table, json, csv, md)
  .clear          Clear the screen
  .quit / .exit   Exit the shell

Tips:
  - Use arrow keys to navigate history
  - Tab completion works for verbs and table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newShellCompleter creates a readline completer for verbs, dot-commands,
// and table names. Table names resolve on each completion, so tables
// declared during the session complete too.
func newShellCompleter(db *sift.DB) *readline.PrefixCompleter {
	tables := func(string) []string { return db.Tables() }

	return readline.NewPrefixCompleter(
		readline.PcItem("find", readline.PcItemDynamic(tables)),
		readline.PcItem("count", readline.PcItemDynamic(tables)),
		readline.PcItem("distinct", readline.PcItemDynamic(tables)),
		readline.PcItem("insert", readline.PcItemDynamic(tables)),
		readline.PcItem("remove", readline.PcItemDynamic(tables)),
		readline.PcItem("update", readline.PcItemDynamic(tables)),
		readline.PcItem("declare"),
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", readline.PcItemDynamic(tables)),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
