package query

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Compiler turns criteria objects into WHERE fragments against a
// fixed column schema. The zero value is usable; without a Logger,
// dropped-operator diagnostics are discarded.
type Compiler struct {
	Schema Schema
	Logger *slog.Logger
}

// Where compiles criteria into a WHERE-clause fragment and its bound
// parameters. Columns absent from the schema are dropped. Fragments
// for all columns and operators are joined with " and ", and the
// parameter list follows placeholder order exactly: binding is
// positional. Empty or fully filtered criteria yield an empty
// fragment and no parameters; callers wrap the fragment in
// "where (...)" only when it is non-empty.
func (c Compiler) Where(criteria Criteria) (string, []any) {
	columns := FilterKeys(criteria, c.Schema)

	var frags []string
	var args []any
	for _, column := range columns {
		f, a := c.criterion(column, criteria[column])
		frags = append(frags, f...)
		args = append(args, a...)
	}
	return strings.Join(frags, " and "), args
}

// criterion compiles one column's match specification into zero or
// more fragments. A scalar value compiles to a single equality test;
// conditions compile to one fragment per recognized operator, with a
// sequence operand expanding to a placeholder group of its length.
func (c Compiler) criterion(column string, value any) ([]string, []any) {
	conds, ok := normalize(value)
	if !ok {
		return []string{column + " = ?"}, []any{value}
	}

	var frags []string
	var args []any
	for _, cond := range conds {
		text, known := SQLText(cond.Op)
		if !known {
			c.logger().Warn("dropping unrecognized operator",
				"column", column,
				"operator", string(cond.Op))
			continue
		}
		scalar, list, isList := cond.operand()
		if isList {
			frags = append(frags, fmt.Sprintf("%s %s %s", column, text, placeholders(len(list))))
			args = append(args, list...)
		} else {
			frags = append(frags, fmt.Sprintf("%s %s ?", column, text))
			args = append(args, scalar)
		}
	}
	return frags, args
}

func (c Compiler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// normalize reduces the supported criterion value forms to a slice of
// conditions. ok is false when the value is a plain scalar. Operator
// keys of a raw operator object are visited in sorted order so the
// compiled fragment is deterministic.
func normalize(value any) ([]Cond, bool) {
	switch v := value.(type) {
	case Cond:
		return []Cond{v}, true
	case []Cond:
		return v, true
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		conds := make([]Cond, 0, len(keys))
		for _, k := range keys {
			if list, ok := asList(v[k]); ok {
				conds = append(conds, Cond{Op: Op(k), List: list})
			} else {
				conds = append(conds, Cond{Op: Op(k), Value: v[k]})
			}
		}
		return conds, true
	}
	return nil, false
}

// placeholders renders a parenthesized group of n placeholders,
// e.g. "(?, ?, ?)". n of zero renders "()", which the in operator
// accepts as the empty set.
func placeholders(n int) string {
	if n == 0 {
		return "()"
	}
	return "(" + strings.Repeat("?, ", n-1) + "?)"
}
