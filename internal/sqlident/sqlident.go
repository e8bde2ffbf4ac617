// Package sqlident guards the textual-interpolation boundary described in
// spec §9 ("String templating risk"): table and column identifiers are
// validated against a conservative regex before being pasted into emitted
// SQL, while arbitrary coordinate expressions are passed through verbatim
// (the caller's responsibility, per spec §9 and §4.2).
package sqlident

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBadIdentifier is wrapped by ValidateTable/ValidateColumn failures so
// callers can match on it with errors.Is regardless of which specific name
// was rejected.
var ErrBadIdentifier = errors.New("sqlident: identifier fails the conservative name check")

// identPattern accepts a bare SQL identifier: a letter or underscore
// followed by letters, digits, or underscores. It deliberately rejects
// quoting, dots, and whitespace so an identifier can never smuggle in a
// second statement.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// griPrefixPattern rejects table/column names that collide with the
// generated-column and index namespace the GRI owns (spec §3, §4.2).
var griPrefixPattern = regexp.MustCompile(`^_gri_`)

// IsIdentifier reports whether name is syntactically a bare identifier, with
// no collision check. Callers that otherwise accept arbitrary SQL
// expressions use this to decide whether the stricter ValidateColumn check
// even applies to a given argument.
func IsIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// ValidateTable checks that name is safe to interpolate as a table name.
func ValidateTable(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("sqlident: %q is not a valid identifier: %w", name, ErrBadIdentifier)
	}
	return nil
}

// ValidateColumn checks that name is safe to interpolate as a column name
// and that it does not collide with the reserved _gri_* namespace.
func ValidateColumn(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("sqlident: %q is not a valid identifier: %w", name, ErrBadIdentifier)
	}
	if griPrefixPattern.MatchString(name) {
		return fmt.Errorf("sqlident: %q collides with the reserved _gri_ namespace: %w", name, ErrBadIdentifier)
	}
	return nil
}

// Quote returns name wrapped in double quotes for use as a SQL identifier,
// after validating it. Use this rather than ad hoc fmt.Sprintf at call sites
// that construct DDL/DML for a validated identifier.
func Quote(name string) (string, error) {
	if err := ValidateTable(name); err != nil {
		return "", err
	}
	return `"` + name + `"`, nil
}

// QuoteLiteral renders s as a single-quoted SQL string literal, doubling any
// embedded single quotes. Unlike Quote, s is data, not structure — this is
// for string-literal values (a file path, a catalog column's contents), not
// table/column identifiers, and has no syntax to reject: every string is a
// valid literal once quoted.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
