package refseq

import (
	"context"
	"database/sql"
	"fmt"
)

// GetRefseqsByRid implements the read side of C4: a single table scan of
// _gri_refseq, optionally restricted to one assembly, snapshotted into a
// rid-keyed map (spec.md §4.4 "Lookup maps are convenience snapshots").
// attachedSchema, if non-empty, reads from a database ATTACHed under that
// name instead of main (spec.md §6's "attached_schema?" parameter).
func GetRefseqsByRid(ctx context.Context, db *sql.DB, assembly, attachedSchema string) (map[int64]Refseq, error) {
	rows, err := queryCatalog(ctx, db, assembly, attachedSchema)
	if err != nil {
		return nil, fmt.Errorf("refseq.GetRefseqsByRid: %w", err)
	}
	out := make(map[int64]Refseq, len(rows))
	for _, r := range rows {
		out[r.Rid] = r
	}
	return out, nil
}

// GetRefseqsByName is GetRefseqsByRid keyed by name instead of rid.
func GetRefseqsByName(ctx context.Context, db *sql.DB, assembly, attachedSchema string) (map[string]Refseq, error) {
	rows, err := queryCatalog(ctx, db, assembly, attachedSchema)
	if err != nil {
		return nil, fmt.Errorf("refseq.GetRefseqsByName: %w", err)
	}
	out := make(map[string]Refseq, len(rows))
	for _, r := range rows {
		out[r.Name] = r
	}
	return out, nil
}

func queryCatalog(ctx context.Context, db *sql.DB, assembly, attachedSchema string) ([]Refseq, error) {
	qualified, err := qualifiedTable(attachedSchema)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT _gri_rid, gri_refseq_name, gri_refseq_length, gri_assembly, gri_refget_id, gri_refseq_meta_json FROM %s",
		qualified,
	)
	var args []any
	if assembly != "" {
		query += " WHERE gri_assembly = ?"
		args = append(args, assembly)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Refseq
	for rows.Next() {
		var (
			r        Refseq
			assembly sql.NullString
			refget   sql.NullString
			meta     sql.NullString
		)
		if err := rows.Scan(&r.Rid, &r.Name, &r.Length, &assembly, &refget, &meta); err != nil {
			return nil, err
		}
		r.Assembly = assembly.String
		r.RefgetID = refget.String
		r.MetaJSON = meta.String
		if r.MetaJSON == "" {
			r.MetaJSON = "{}"
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
