package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/siftdb/sift/pkg/sift"
)

// statement is one parsed shell line: a verb, a table, JSON document
// arguments, and optional trailing limit/offset/order words.
type statement struct {
	Verb   string
	Table  string
	Column string // count / distinct target column
	Docs   []map[string]any

	Limit     int
	Offset    int
	Order     string
	HasLimit  bool
	HasOffset bool
}

var statementUsage = map[string]string{
	"find":     "find <table> [criteria] [limit N] [offset N] [order col[+|-]]",
	"count":    "count <table> [column] [criteria]",
	"distinct": "distinct <table> <column> [criteria] [limit N] [offset N]",
	"insert":   "insert <table> <row>",
	"remove":   "remove <table> <criteria> [limit N] [offset N]",
	"update":   "update <table> <criteria> <row>",
	"declare":  "declare <table> <schema>",
}

// parseStatement parses a shell line into a statement.
func parseStatement(line string) (*statement, error) {
	tokens, err := splitStatement(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	verb := strings.ToLower(tokens[0])
	usage, ok := statementUsage[verb]
	if !ok {
		return nil, fmt.Errorf("unknown verb %q (type .help for the statement reference)", tokens[0])
	}
	if len(tokens) < 2 || strings.HasPrefix(tokens[1], "{") {
		return nil, fmt.Errorf("usage: %s", usage)
	}

	st := &statement{Verb: verb, Table: tokens[1]}

	rest := tokens[2:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case strings.HasPrefix(tok, "{"):
			var doc map[string]any
			if err := json.Unmarshal([]byte(tok), &doc); err != nil {
				return nil, fmt.Errorf("invalid JSON argument %s: %w", tok, err)
			}
			st.Docs = append(st.Docs, doc)

		case strings.EqualFold(tok, "limit"), strings.EqualFold(tok, "offset"):
			word := strings.ToLower(tok)
			if i+1 >= len(rest) {
				return nil, fmt.Errorf("%s needs a number", word)
			}
			n, err := strconv.Atoi(rest[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s needs a number, got %q", word, rest[i+1])
			}
			if word == "limit" {
				st.Limit, st.HasLimit = n, true
			} else {
				st.Offset, st.HasOffset = n, true
			}
			i++

		case strings.EqualFold(tok, "order"):
			if i+1 >= len(rest) {
				return nil, fmt.Errorf("order needs a column")
			}
			st.Order = rest[i+1]
			i++

		case (verb == "count" || verb == "distinct") && st.Column == "" && len(st.Docs) == 0:
			st.Column = tok

		default:
			return nil, fmt.Errorf("unexpected argument %q (usage: %s)", tok, usage)
		}
	}

	if err := st.validate(usage); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *statement) validate(usage string) error {
	switch st.Verb {
	case "find":
		if len(st.Docs) > 1 {
			return fmt.Errorf("usage: %s", usage)
		}
	case "count":
		if len(st.Docs) > 1 || st.HasLimit || st.HasOffset || st.Order != "" {
			return fmt.Errorf("usage: %s", usage)
		}
	case "distinct":
		if st.Column == "" || len(st.Docs) > 1 || st.Order != "" {
			return fmt.Errorf("usage: %s", usage)
		}
	case "insert":
		if len(st.Docs) != 1 || st.HasLimit || st.HasOffset || st.Order != "" {
			return fmt.Errorf("usage: %s", usage)
		}
	case "remove":
		if st.Order != "" {
			return fmt.Errorf("usage: %s", usage)
		}
		if len(st.Docs) != 1 {
			return fmt.Errorf("remove needs criteria; pass {} to remove every row")
		}
	case "update":
		if len(st.Docs) != 2 || st.HasLimit || st.HasOffset || st.Order != "" {
			return fmt.Errorf("usage: %s", usage)
		}
	case "declare":
		if len(st.Docs) != 1 || st.HasLimit || st.HasOffset || st.Order != "" {
			return fmt.Errorf("usage: %s", usage)
		}
	}
	return nil
}

// criteria returns the i'th JSON document as criteria, or nil when the
// statement carried none.
func (st *statement) criteria(i int) sift.Criteria {
	if i < len(st.Docs) {
		return sift.Criteria(st.Docs[i])
	}
	return nil
}

func (st *statement) findOptions() []sift.FindOption {
	var opts []sift.FindOption
	if st.HasLimit {
		opts = append(opts, sift.WithLimit(st.Limit))
	}
	if st.HasOffset {
		opts = append(opts, sift.WithOffset(st.Offset))
	}
	if st.Order != "" {
		opts = append(opts, sift.WithOrder(st.Order))
	}
	return opts
}

// splitStatement splits a shell line into words and balanced JSON
// documents. Whitespace inside braces, brackets, and quoted strings
// does not split.
func splitStatement(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	depth := 0
	inString := false
	escaped := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inString:
			cur.WriteRune(r)
			if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
		case r == '"':
			cur.WriteRune(r)
			inString = true
		case r == '{' || r == '[':
			depth++
			cur.WriteRune(r)
		case r == '}' || r == ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q", string(r))
			}
			cur.WriteRune(r)
		case depth == 0 && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}

	if inString {
		return nil, fmt.Errorf("unterminated string")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced braces")
	}
	flush()
	return tokens, nil
}

// schemaFromDoc converts a JSON schema document into a column mapping.
func schemaFromDoc(doc map[string]any) (sift.Schema, error) {
	schema := make(sift.Schema, len(doc))
	for col, typ := range doc {
		s, ok := typ.(string)
		if !ok {
			return nil, fmt.Errorf("schema value for column %q must be a string, got %T", col, typ)
		}
		schema[col] = s
	}
	return schema, nil
}

// runStatement executes a parsed statement against the database and
// renders the outcome.
func runStatement(ctx context.Context, w io.Writer, db *sift.DB, st *statement, format string) error {
	if st.Verb == "declare" {
		schema, err := schemaFromDoc(st.Docs[0])
		if err != nil {
			return err
		}
		if err := db.Declare(st.Table, schema); err != nil {
			return err
		}
		// Surface creation failures now rather than on first use.
		if err := db.Ready(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "declared table %s\n", st.Table)
		return nil
	}

	tbl, err := db.Table(st.Table)
	if err != nil {
		return err
	}

	switch st.Verb {
	case "find":
		rows, err := tbl.Find(ctx, st.criteria(0), st.findOptions()...)
		if err != nil {
			return err
		}
		return renderRows(w, rows, format)

	case "count":
		n, err := tbl.Count(ctx, st.Column, st.criteria(0))
		if err != nil {
			return err
		}
		return renderValues(w, "count", []any{n}, format)

	case "distinct":
		values, err := tbl.Distinct(ctx, st.Column, st.criteria(0), st.findOptions()...)
		if err != nil {
			return err
		}
		return renderValues(w, st.Column, values, format)

	case "insert":
		res, err := tbl.Insert(ctx, sift.Row(st.Docs[0]))
		if err != nil {
			return err
		}
		renderSummary(w, res)
		return nil

	case "remove":
		res, err := tbl.Remove(ctx, sift.Criteria(st.Docs[0]), st.findOptions()...)
		if err != nil {
			return err
		}
		renderSummary(w, res)
		return nil

	case "update":
		res, err := tbl.Update(ctx, sift.Criteria(st.Docs[0]), sift.Row(st.Docs[1]))
		if err != nil {
			return err
		}
		renderSummary(w, res)
		return nil
	}

	return fmt.Errorf("unknown verb %q", st.Verb)
}
