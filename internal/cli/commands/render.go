package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/siftdb/sift/pkg/store"
	"golang.org/x/term"
)

// resolveFormat maps the configured format to a concrete one. Auto mode
// renders tables on a terminal and markdown when piped.
func resolveFormat(format string) string {
	switch format {
	case "", "auto":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return "table"
		}
		return "md"
	default:
		return format
	}
}

// columnsOf returns the union of column names across rows, sorted.
// Rows come back as maps, so rendering needs a stable column order.
func columnsOf(rows []store.Row) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			seen[col] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func renderRows(w io.Writer, rows []store.Row, format string) error {
	cols := columnsOf(rows)

	switch resolveFormat(format) {
	case "json":
		return renderJSON(w, rows)
	case "csv":
		return renderCSV(w, cols, rows)
	case "md", "markdown":
		return renderMarkdown(w, cols, rows)
	default:
		return renderTable(w, cols, rows)
	}
}

func renderTable(w io.Writer, cols []string, rows []store.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, row := range rows {
		tr := make(table.Row, len(cols))
		for i, col := range cols {
			tr[i] = formatValue(row[col])
		}
		t.AppendRow(tr)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, rows []store.Row) error {
	if rows == nil {
		rows = []store.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, cols []string, rows []store.Row) error {
	// Header
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	// Rows
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(row[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, rows []store.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	// Separator
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(row[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

// renderValues renders a single-column result, as produced by distinct
// and count.
func renderValues(w io.Writer, column string, values []any, format string) error {
	rows := make([]store.Row, 0, len(values))
	for _, v := range values {
		rows = append(rows, store.Row{column: v})
	}
	return renderRows(w, rows, format)
}

// renderSummary reports the outcome of a write statement.
func renderSummary(w io.Writer, res store.Result) {
	_, _ = fmt.Fprintf(w, "rows affected: %d\n", res.RowsAffected)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
