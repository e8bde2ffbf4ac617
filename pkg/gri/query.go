package gri

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/vlx-data/gsqlite/internal/sqlident"
)

// QueryOptions configures EmitRangeRowids (§4.3). QRid, QBeg, and QEnd are
// arbitrary SQL expressions (default "?1", "?2", "?3"), textually
// interpolated verbatim so they may reference other tables in the
// enclosing query (range joins) or positional/named bind parameters.
//
// Floor and Ceiling are pointers so "not supplied" (nil) is distinguishable
// from "supplied as 0". A nil Ceiling means "ask the index" (§4.3
// floor/ceiling selection). A nil Floor means "ask the index" only when
// Ceiling is also nil; with an explicit Ceiling, a nil Floor is level 0.
type QueryOptions struct {
	QRid, QBeg, QEnd string
	Floor            *int
	Ceiling          *int
}

func (o QueryOptions) qrid() string {
	if o.QRid == "" {
		return "?1"
	}
	return o.QRid
}

func (o QueryOptions) qbeg() string {
	if o.QBeg == "" {
		return "?2"
	}
	return o.QBeg
}

func (o QueryOptions) qend() string {
	if o.QEnd == "" {
		return "?3"
	}
	return o.QEnd
}

// EmitRangeRowids implements C3 (§4.3): it returns a parenthesized
// "SELECT _rowid_ FROM …" that yields, in ascending rowid order, the rowids
// of table's rows on qrid whose interval is non-disjoint from the query
// range, abutting intervals included: NOT (qbeg > _gri_beg+_gri_len OR
// qend < _gri_beg).
//
// When opts.Ceiling is nil, EmitRangeRowids probes the index (a single
// read-only SELECT DISTINCT _gri_lvl, §4.3) to discover exactly which
// levels are populated and bakes that fixed set into the emitted UNION ALL.
// The returned Probe records what was baked in, so the caller can cache
// the SQL and know when it must be regenerated (§4.3 "Why emit, not
// execute", §9 "Probe coupling"): subsequent writes that add a previously
// unpopulated level, or that push _gri_len's max past opts.Ceiling, silently
// invalidate a cached emission, since the emitted SQL never re-probes itself.
//
// When opts.Ceiling is supplied, the populated-levels bitmap is never
// enumerated: the emitted SQL covers the full contiguous range
// [floor, ceiling] regardless of what's currently populated, so it stays
// correct under future writes bounded by ceiling (§4.3 "Fallback mode").
// EmitRangeRowids still runs one cheap aggregate to confirm ceiling actually
// bounds the table's current data (§7 IntegrityError, ErrCeilingTooLow); a
// stale ceiling below the observed maximum level would otherwise silently
// drop rows from the emitted SQL. The returned Probe is nil in this branch,
// since the populated-levels set itself was never discovered.
func EmitRangeRowids(ctx context.Context, db *sql.DB, table string, opts QueryOptions) (string, *Probe, error) {
	if err := sqlident.ValidateTable(table); err != nil {
		return "", nil, fmt.Errorf("gri.EmitRangeRowids: %w", err)
	}

	if opts.Ceiling != nil {
		floor := 0
		if opts.Floor != nil {
			floor = EffectiveFloor(*opts.Floor)
		}
		ceiling := *opts.Ceiling
		if ceiling < floor {
			return "", nil, fmt.Errorf("gri.EmitRangeRowids: %w", ErrCeilingBelowFloor)
		}
		observedMax, err := observedMaxLevel(ctx, db, table)
		if err != nil {
			return "", nil, fmt.Errorf("gri.EmitRangeRowids: %w", err)
		}
		if observedMax > ceiling {
			return "", nil, fmt.Errorf("gri.EmitRangeRowids: observed max level %d exceeds supplied ceiling %d: %w", observedMax, ceiling, ErrCeilingTooLow)
		}
		levels := make([]int, 0, ceiling-floor+1)
		for l := floor; l <= ceiling; l++ {
			levels = append(levels, l)
		}
		sql, err := buildUnionAll(table, opts, levels)
		if err != nil {
			return "", nil, fmt.Errorf("gri.EmitRangeRowids: %w", err)
		}
		return sql, nil, nil
	}

	probe, err := ProbeLevels(ctx, db, table, opts.Floor)
	if err != nil {
		return "", nil, fmt.Errorf("gri.EmitRangeRowids: probe: %w", err)
	}
	levels := probe.LevelSlice()
	sqlText, err := buildUnionAll(table, opts, levels)
	if err != nil {
		return "", nil, fmt.Errorf("gri.EmitRangeRowids: %w", err)
	}
	return sqlText, &probe, nil
}

// ErrCeilingBelowFloor is returned when an explicit ceiling is below the
// (explicit or default) floor.
var ErrCeilingBelowFloor = fmt.Errorf("ceiling is below floor")

// ErrCeilingTooLow is returned when an explicit ceiling is below the
// observed maximum populated level (§7 IntegrityError): the emitted SQL
// would silently skip rows sitting above the ceiling.
var ErrCeilingTooLow = fmt.Errorf("ceiling is below the observed maximum populated level")

// observedMaxLevel runs a single indexed aggregate to find the highest
// populated level, without enumerating the full set of populated levels the
// way ProbeLevels does. This keeps the explicit-ceiling path cheap (one
// aggregate, not a DISTINCT scan) while still catching a stale ceiling.
func observedMaxLevel(ctx context.Context, db *sql.DB, table string) (int, error) {
	quotedTable, quotedIndex, err := quotedTableAndIndex(table)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), -1) FROM %s INDEXED BY %s", ColLvl, quotedTable, quotedIndex)
	var max int
	if err := db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// quotedTableAndIndex resolves table (already identifier-validated by the
// caller) and its composite index name through sqlident.Quote, so every
// place that interpolates "FROM table INDEXED BY index" agrees on quoting
// with schema.go's EmitCreateGRI — a reserved-word table name must be
// queryable, not just creatable.
func quotedTableAndIndex(table string) (quotedTable, quotedIndex string, err error) {
	quotedTable, err = sqlident.Quote(table)
	if err != nil {
		return "", "", err
	}
	quotedIndex, err = sqlident.Quote(IndexName(table))
	if err != nil {
		return "", "", err
	}
	return quotedTable, quotedIndex, nil
}

// ProbeLevels runs the §4.3 probe: a single read against the composite
// index to discover which levels are populated, optionally restricted to
// levels >= floor. It never mutates and is safe to call from a read
// transaction. The probe is not atomic with whatever query later consumes
// its result (§5 "Ordering guarantees", §9 Open Question (b)); callers on
// a live-writer database should prefer an explicit ceiling instead.
func ProbeLevels(ctx context.Context, db *sql.DB, table string, floor *int) (Probe, error) {
	if err := sqlident.ValidateTable(table); err != nil {
		return Probe{}, fmt.Errorf("gri.ProbeLevels: %w", err)
	}
	quotedTable, quotedIndex, err := quotedTableAndIndex(table)
	if err != nil {
		return Probe{}, fmt.Errorf("gri.ProbeLevels: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s INDEXED BY %s WHERE %s IS NOT NULL",
		ColLvl, quotedTable, quotedIndex, ColLvl,
	)
	args := []any{}
	if floor != nil {
		query += fmt.Sprintf(" AND %s >= ?", ColLvl)
		args = append(args, EffectiveFloor(*floor))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return Probe{}, err
	}
	defer rows.Close()

	var levels []int
	for rows.Next() {
		var lvl int
		if err := rows.Scan(&lvl); err != nil {
			return Probe{}, err
		}
		levels = append(levels, lvl)
	}
	if err := rows.Err(); err != nil {
		return Probe{}, err
	}
	sort.Ints(levels)

	effFloor := 0
	if floor != nil {
		effFloor = EffectiveFloor(*floor)
	} else if len(levels) > 0 {
		effFloor = levels[0]
	}
	effCeiling := effFloor
	if len(levels) > 0 {
		effCeiling = levels[len(levels)-1]
	}

	return NewProbe(table, effFloor, effCeiling, levels), nil
}

// buildUnionAll renders the per-level branches of §4.3 and wraps them in
// the outer "ORDER BY _rowid_" subquery, emitted unconditionally because
// sorting a small rowid set is cheap and buys locality on the base table.
func buildUnionAll(table string, opts QueryOptions, levels []int) (string, error) {
	quotedTable, quotedIndex, err := quotedTableAndIndex(table)
	if err != nil {
		return "", err
	}
	qrid, qbeg, qend := opts.qrid(), opts.qbeg(), opts.qend()

	if len(levels) == 0 {
		// No populated level: the branch set is empty, but the subquery
		// must still be valid SQL yielding zero rows.
		return "(SELECT _rowid_ FROM (SELECT NULL AS _rowid_ WHERE 0) ORDER BY _rowid_)", nil
	}

	branches := make([]string, 0, len(levels))
	for _, lvl := range levels {
		width := Width(lvl)
		branch := fmt.Sprintf(
			"SELECT rowid AS _rowid_ FROM %s INDEXED BY %s "+
				"WHERE %s = %s AND %s = %d AND %s >= (%s) - %d AND %s <= (%s) AND %s + %s >= (%s)",
			quotedTable, quotedIndex,
			ColRid, qrid,
			ColLvl, lvl,
			ColBeg, qbeg, width,
			ColBeg, qend,
			ColBeg, ColLen, qbeg,
		)
		branches = append(branches, branch)
	}

	return fmt.Sprintf("(SELECT _rowid_ FROM (\n  %s\n) ORDER BY _rowid_)", strings.Join(branches, "\n  UNION ALL\n  ")), nil
}
