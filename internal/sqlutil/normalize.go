package sqlutil

import (
	"regexp"
	"strings"
)

var (
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	invalidColChars = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// NormalizeColumn maps an arbitrary source column name to a safe destination
// identifier. Runs of whitespace collapse to a single underscore and any
// remaining character outside [A-Za-z0-9_] is stripped.
//
// The mapping is deterministic and idempotent: the same input always yields
// the same output, and normalizing an already-normalized name is a no-op.
// Two distinct inputs may normalize to the same identifier (for example
// "a b" and "a_b"); that collision is an accepted limitation.
func NormalizeColumn(name string) string {
	s := whitespaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")
	return invalidColChars.ReplaceAllString(s, "")
}
