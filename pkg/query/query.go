// Package query compiles declarative, Mongo-style criteria objects
// into parameterized SQL fragments. Column names only ever enter SQL
// text after filtering against a trusted schema, and every operand is
// emitted as a bound parameter, never interpolated.
package query

import "reflect"

// Schema maps column names to their column-type declarations. The
// type text is opaque to this package; it is forwarded verbatim into
// CREATE TABLE statements by the caller. A table's schema is the sole
// source of truth for which keys are acceptable in rows and criteria
// submitted against it.
type Schema map[string]string

// Criteria maps column names to match specifications. A value is one
// of:
//
//   - a scalar, matched by equality
//   - a Cond built by one of the constructors (Eq, Gt, In, ...)
//   - a []Cond applying several operators to the same column
//   - a raw map[string]any operator object, the JSON wire form,
//     e.g. {"$gte": 2}
//
// A nil Criteria compiles to no WHERE clause at all.
type Criteria map[string]any

// Cond is a single comparison: an operator plus its operand. The
// operand occupies exactly one of Value (scalar) or List (sequence).
// A sequence operand compiles to a parenthesized placeholder group
// sized to its length, which is what the in operator expects.
type Cond struct {
	Op    Op
	Value any
	List  []any
}

// Eq matches columns equal to v.
func Eq(v any) Cond { return Cond{Op: OpEq, Value: v} }

// Ne matches columns not equal to v.
func Ne(v any) Cond { return Cond{Op: OpNe, Value: v} }

// Gt matches columns greater than v.
func Gt(v any) Cond { return Cond{Op: OpGt, Value: v} }

// Gte matches columns greater than or equal to v.
func Gte(v any) Cond { return Cond{Op: OpGte, Value: v} }

// Lt matches columns less than v.
func Lt(v any) Cond { return Cond{Op: OpLt, Value: v} }

// Lte matches columns less than or equal to v.
func Lte(v any) Cond { return Cond{Op: OpLte, Value: v} }

// Like matches columns against a SQL LIKE pattern.
func Like(pattern string) Cond { return Cond{Op: OpLike, Value: pattern} }

// Glob matches columns against a GLOB pattern.
func Glob(pattern string) Cond { return Cond{Op: OpGlob, Value: pattern} }

// Not negates a match against v.
func Not(v any) Cond { return Cond{Op: OpNot, Value: v} }

// In matches columns contained in the given set.
func In(vs ...any) Cond { return Cond{Op: OpIn, List: append([]any{}, vs...)} }

// operand resolves the condition's operand, reporting whether it is a
// sequence. A sequence held in Value (for example via Eq([]any{...}))
// is treated the same as one held in List.
func (c Cond) operand() (any, []any, bool) {
	if c.List != nil {
		return nil, c.List, true
	}
	if list, ok := asList(c.Value); ok {
		return nil, list, true
	}
	return c.Value, nil, false
}

// asList reports whether v is a sequence operand and expands it to
// []any. Strings and []byte are scalars here: both bind as a single
// parameter.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []any:
		return l, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
