package query

import "strings"

// ParseOrder splits an order-by argument into its column name and
// direction. A trailing "-" selects descending order; a trailing "+"
// or no suffix selects ascending. The empty string means no ordering.
func ParseOrder(arg string) (column string, desc bool) {
	switch {
	case strings.HasSuffix(arg, "-"):
		return strings.TrimSuffix(arg, "-"), true
	case strings.HasSuffix(arg, "+"):
		return strings.TrimSuffix(arg, "+"), false
	}
	return arg, false
}
