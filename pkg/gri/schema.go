package gri

import (
	"fmt"
	"strings"

	"github.com/vlx-data/gsqlite/internal/sqlident"
)

// EmitCreateGRI implements C2 (§4.2): given an existing rowid table and
// three coordinate expressions, returns SQL that adds the four generated
// columns and the composite index. ridExpr, begExpr, and endExpr are
// textually interpolated verbatim: they may be bare column names or
// arithmetic, and sanitizing them is the caller's responsibility (§4.2,
// §9 "String templating risk"). table itself is validated against a
// conservative identifier regex since it also names the emitted index.
//
// The returned script must run inside a single transaction; if any
// statement fails (e.g. because the table already carries a _gri_*
// column), the caller rolls back the whole script (§4.2 "Contract").
func EmitCreateGRI(table, ridExpr, begExpr, endExpr string, floor int) (string, error) {
	quotedTable, err := sqlident.Quote(table)
	if err != nil {
		return "", fmt.Errorf("gri.EmitCreateGRI: %w", err)
	}
	if strings.TrimSpace(ridExpr) == "" || strings.TrimSpace(begExpr) == "" || strings.TrimSpace(endExpr) == "" {
		return "", fmt.Errorf("gri.EmitCreateGRI: rid/beg/end expressions must be non-empty")
	}
	// ridExpr/begExpr/endExpr may be arbitrary expressions, but when a
	// caller happens to pass a bare column name, catch the one mistake that
	// matters here: naming a coordinate column inside the reserved _gri_*
	// namespace this very statement is about to create.
	for _, expr := range []string{ridExpr, begExpr, endExpr} {
		if sqlident.IsIdentifier(expr) {
			if err := sqlident.ValidateColumn(expr); err != nil {
				return "", fmt.Errorf("gri.EmitCreateGRI: %w", err)
			}
		}
	}

	lenExpr := fmt.Sprintf("(%s) - (%s)", endExpr, begExpr)
	levelExpr := levelCaseSQL(ColLen, floor)

	quotedIndex, err := sqlident.Quote(IndexName(table))
	if err != nil {
		return "", fmt.Errorf("gri.EmitCreateGRI: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN %s AS (%s) VIRTUAL;\n", quotedTable, ColRid, ridExpr)
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN %s AS (%s) VIRTUAL;\n", quotedTable, ColBeg, begExpr)
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN %s AS (%s) VIRTUAL;\n", quotedTable, ColLen, lenExpr)
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN %s AS (%s) VIRTUAL;\n", quotedTable, ColLvl, levelExpr)
	fmt.Fprintf(&b, "CREATE INDEX %s ON %s(%s, %s, %s);\n", quotedIndex, quotedTable, ColRid, ColLvl, ColBeg)

	return b.String(), nil
}
