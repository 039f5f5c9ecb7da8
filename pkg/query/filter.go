package query

import (
	"fmt"
	"sort"
)

// UnknownColumnError reports a key that is not part of the table's
// declared schema. It is returned by the strict filter used on write
// paths; read paths drop unknown keys instead.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// FilterKeys returns the keys of untrusted that also appear in schema,
// in sorted order. Keys absent from the schema are silently dropped.
// This filter, together with its strict variant, is the injection
// boundary: identifiers reach SQL text only after passing through it.
func FilterKeys(untrusted map[string]any, schema Schema) []string {
	keys := make([]string, 0, len(untrusted))
	for k := range untrusted {
		if _, ok := schema[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// FilterKeysStrict returns the keys of untrusted in sorted order,
// failing with UnknownColumnError on the first key (in that order)
// absent from schema. Write paths use this so that a misspelled
// column name surfaces as an error instead of silently vanishing.
func FilterKeysStrict(untrusted map[string]any, schema Schema) ([]string, error) {
	keys := make([]string, 0, len(untrusted))
	for k := range untrusted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := schema[k]; !ok {
			return nil, &UnknownColumnError{Column: k}
		}
	}
	return keys, nil
}
