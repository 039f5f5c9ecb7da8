package query

import "sort"

// Op is a comparison operator symbol as it appears in an operator
// object, e.g. "$gt" in {"age": {"$gt": 21}}.
type Op string

// The recognized operator symbols. The set is closed: an operator
// object key outside this list is not an operator and is dropped
// during compilation.
const (
	OpLike Op = "$like"
	OpGlob Op = "$glob"
	OpGt   Op = "$gt"
	OpLt   Op = "$lt"
	OpGte  Op = "$gte"
	OpLte  Op = "$lte"
	OpNe   Op = "$ne"
	OpEq   Op = "$eq"
	OpNot  Op = "$not"
	OpIn   Op = "$in"
)

// sqlText maps each operator symbol to the SQL operator text it
// compiles to. Membership here is what makes a symbol recognized.
var sqlText = map[Op]string{
	OpLike: "like",
	OpGlob: "glob",
	OpGt:   ">",
	OpLt:   "<",
	OpGte:  ">=",
	OpLte:  "<=",
	OpNe:   "!=",
	OpEq:   "=",
	OpNot:  "not",
	OpIn:   "in",
}

// SQLText returns the SQL operator text for op and whether op is part
// of the recognized set.
func SQLText(op Op) (string, bool) {
	text, ok := sqlText[op]
	return text, ok
}

// Symbols returns the recognized operator symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(sqlText))
	for op := range sqlText {
		out = append(out, string(op))
	}
	sort.Strings(out)
	return out
}
