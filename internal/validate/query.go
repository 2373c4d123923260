// Package validate holds the pure guards applied to report definitions
// before they reach the calendar or the query sink.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// mutatingKeywords rejects any query containing one of these as a standalone
// word. Matching whole tokens (not substrings) keeps column names like
// "created_at" or "last_updated" legal.
var mutatingKeywords = map[string]struct{}{
	"DROP":     {},
	"DELETE":   {},
	"TRUNCATE": {},
	"ALTER":    {},
	"CREATE":   {},
	"INSERT":   {},
	"UPDATE":   {},
	"EXEC":     {},
	"EXECUTE":  {},
	"GRANT":    {},
	"REVOKE":   {},
}

// Query checks that a query text is a read-only statement: non-empty, opening
// with SELECT, and free of mutating keywords anywhere in the statement.
func Query(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return errors.New("validate: query must be a non-empty string")
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") {
		return errors.New("validate: only SELECT queries are allowed")
	}

	for _, token := range tokenize(upper) {
		if _, forbidden := mutatingKeywords[token]; forbidden {
			return fmt.Errorf("validate: forbidden keyword %s: only read-only queries are allowed", token)
		}
	}

	return nil
}

// tokenize splits an upper-cased SQL text into bare word tokens. Identifier
// characters (letters, digits, underscore) stick together; everything else
// separates.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case r >= 'A' && r <= 'Z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r == '_':
			return false
		}
		return true
	})
}
