// Package sqlutil provides SQL identifier helpers for accmirror.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a PostgreSQL identifier (table name, column name)
// with double quotes. It escapes any embedded double quotes by doubling them.
// Example: "my_table" -> `"my_table"`
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// validIdentifierRegex matches identifiers consisting only of alphanumeric
// characters and underscores. Everything accmirror sends to the destination
// goes through NormalizeColumn first, so anything outside this set indicates
// a bug upstream.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a safe destination identifier.
// This is a defense-in-depth measure against SQL injection.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes a PostgreSQL identifier after validating it.
// Returns an error if the identifier contains invalid characters.
// Use this when identifiers might come from untrusted sources.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
