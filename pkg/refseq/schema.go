package refseq

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vlx-data/gsqlite/internal/sqlident"
)

// qualifiedTable resolves TableName against an optional attached-schema
// prefix (spec.md §6's "attached_schema?" parameter, carried on all four C4
// operations), so the reference-sequence catalog can live in the main
// database or in a database ATTACHed under another name. attachedSchema is
// validated with the same conservative identifier check as a table name,
// since it occupies the same syntactic position ("schema"."table").
func qualifiedTable(attachedSchema string) (string, error) {
	quotedTable, err := sqlident.Quote(TableName)
	if err != nil {
		return "", err
	}
	if attachedSchema == "" {
		return quotedTable, nil
	}
	quotedSchema, err := sqlident.Quote(attachedSchema)
	if err != nil {
		return "", fmt.Errorf("attached_schema: %w", err)
	}
	return quotedSchema + "." + quotedTable, nil
}

// emitCreateTableDDL renders the idempotent DDL for the catalog table and
// its uniqueness index against a resolved, possibly schema-qualified table
// name. CREATE INDEX takes the schema on the index name, not on the table
// after ON, so any "schema". prefix of qualified moves to the index name.
func emitCreateTableDDL(qualified string) string {
	schemaPrefix := strings.TrimSuffix(qualified, `"`+TableName+`"`)
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	_gri_rid INTEGER PRIMARY KEY,
	gri_refseq_name TEXT NOT NULL,
	gri_refseq_length INTEGER NOT NULL,
	gri_assembly TEXT,
	gri_refget_id TEXT,
	gri_refseq_meta_json TEXT DEFAULT '{}'
);
CREATE UNIQUE INDEX IF NOT EXISTS %s_gri_refseq_name_assembly ON "%s"(gri_refseq_name, gri_assembly);
`, qualified, schemaPrefix, TableName)
}

// EmitPutAssembly implements the write side of C4's "bulk-load a bundled
// assembly" operation: idempotent DDL for _gri_refseq followed by one INSERT
// per contig of the named bundled assembly (spec.md §4.4). name must match a
// table compiled into this package; unlike table/column identifiers, it is
// never interpolated into the emitted SQL as-is. attachedSchema, if
// non-empty, targets a database ATTACHed under that name instead of main.
func EmitPutAssembly(name, attachedSchema string) (string, error) {
	contigs, ok := bundledAssemblies[name]
	if !ok {
		return "", fmt.Errorf("refseq.EmitPutAssembly: unknown bundled assembly %q", name)
	}
	qualified, err := qualifiedTable(attachedSchema)
	if err != nil {
		return "", fmt.Errorf("refseq.EmitPutAssembly: %w", err)
	}

	var b strings.Builder
	b.WriteString(emitCreateTableDDL(qualified))
	for _, c := range contigs {
		fmt.Fprintf(&b,
			"INSERT INTO %s (_gri_rid, gri_refseq_name, gri_refseq_length, gri_assembly) "+
				"VALUES ((SELECT COALESCE(MAX(_gri_rid), -1) + 1 FROM %s), %s, %d, %s);\n",
			qualified, qualified, sqlQuote(c.name), c.length, sqlQuote(name),
		)
	}
	return b.String(), nil
}

// PutRefseqOptions parameterizes EmitPutRefseq. Rid of -1 auto-assigns the
// next free id, matching spec.md §4.4's "rid = -1 auto-assigns".
// AttachedSchema, if non-empty, targets a database ATTACHed under that name
// instead of main (spec.md §6's "attached_schema?" parameter).
type PutRefseqOptions struct {
	Name           string
	Length         int64
	Assembly       string
	RefgetID       string
	MetaJSON       string
	Rid            int64
	AttachedSchema string
}

// EmitPutRefseq implements the single-row insert side of C4. MetaJSON, if
// non-empty, is re-marshaled through goccy/go-json to its canonical form
// (sorted object keys, no insignificant whitespace) before being embedded as
// a quoted string literal, so that the round-trip property in spec.md §8
// ("byte-for-byte after canonicalization") has a well-defined canonical form
// to round-trip against.
func EmitPutRefseq(opts PutRefseqOptions) (string, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return "", fmt.Errorf("refseq.EmitPutRefseq: name must not be empty")
	}
	if opts.Length < 0 {
		return "", fmt.Errorf("refseq.EmitPutRefseq: length must be non-negative")
	}
	qualified, err := qualifiedTable(opts.AttachedSchema)
	if err != nil {
		return "", fmt.Errorf("refseq.EmitPutRefseq: %w", err)
	}

	metaJSON, err := canonicalizeMetaJSON(opts.MetaJSON)
	if err != nil {
		return "", fmt.Errorf("refseq.EmitPutRefseq: %w", err)
	}

	ridExpr := fmt.Sprintf("%d", opts.Rid)
	if opts.Rid < 0 {
		ridExpr = fmt.Sprintf("(SELECT COALESCE(MAX(_gri_rid), -1) + 1 FROM %s)", qualified)
	}

	assemblyExpr := "NULL"
	if opts.Assembly != "" {
		assemblyExpr = sqlQuote(opts.Assembly)
	}
	refgetExpr := "NULL"
	if opts.RefgetID != "" {
		refgetExpr = sqlQuote(opts.RefgetID)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (_gri_rid, gri_refseq_name, gri_refseq_length, gri_assembly, gri_refget_id, gri_refseq_meta_json) "+
			"VALUES (%s, %s, %d, %s, %s, %s);\n",
		qualified, ridExpr, sqlQuote(opts.Name), opts.Length, assemblyExpr, refgetExpr, sqlQuote(metaJSON),
	)
	return emitCreateTableDDL(qualified) + stmt, nil
}

// canonicalizeMetaJSON parses and re-marshals a JSON object so equivalent
// inputs produce byte-identical output. An empty input canonicalizes to "{}".
func canonicalizeMetaJSON(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "{}", nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return "", fmt.Errorf("meta_json: %w", err)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("meta_json: %w", err)
	}
	return string(out), nil
}

// sqlQuote renders s as a single-quoted SQL string literal. Catalog values
// are data, not structure, so this defers to sqlident.QuoteLiteral rather
// than the identifier-validating Quote used for TableName/attachedSchema
// above.
func sqlQuote(s string) string {
	return sqlident.QuoteLiteral(s)
}
