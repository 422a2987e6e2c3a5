// Package sanitize removes terminal color and control sequences from
// diagnostic text before it leaves the process.
package sanitize

import "github.com/acarl005/stripansi"

// Strip returns s with every ANSI escape sequence removed.
func Strip(s string) string {
	return stripansi.Strip(s)
}

// All strips each element of items and returns the results in a new slice of
// the same length and order. items is not modified. A nil input yields an
// empty, non-nil slice.
func All(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = Strip(s)
	}
	return out
}
