package gri

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createFeaturesTable(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`CREATE TABLE features (
		id INTEGER PRIMARY KEY,
		chrom TEXT,
		pos0 INTEGER,
		pos1 INTEGER
	)`)
	require.NoError(t, err)
}

func TestEmitCreateGRIAppliesCleanly(t *testing.T) {
	db := openMemDB(t)
	createFeaturesTable(t, db)

	script, err := EmitCreateGRI("features", "chrom", "pos0", "pos1", -1)
	require.NoError(t, err)
	_, err = db.Exec(script)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO features (chrom, pos0, pos1) VALUES ('chr1', 100, 200)`)
	require.NoError(t, err)

	var rid string
	var beg, length, level int64
	err = db.QueryRow(
		"SELECT _gri_rid, _gri_beg, _gri_len, _gri_lvl FROM features WHERE id = 1",
	).Scan(&rid, &beg, &length, &level)
	require.NoError(t, err)
	require.Equal(t, "chr1", rid)
	require.Equal(t, int64(100), beg)
	require.Equal(t, int64(100), length)
	require.Equal(t, int64(2), level) // 100 > 16, <= 256 => level 2
}

func TestEmitCreateGRIRejectsBadTableName(t *testing.T) {
	_, err := EmitCreateGRI("features; DROP TABLE x", "chrom", "pos0", "pos1", -1)
	require.Error(t, err)
}

func TestEmitCreateGRIZeroLengthGetsFloorLevelBackwardsGetsNull(t *testing.T) {
	db := openMemDB(t)
	createFeaturesTable(t, db)

	script, err := EmitCreateGRI("features", "chrom", "pos0", "pos1", -1)
	require.NoError(t, err)
	_, err = db.Exec(script)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO features (chrom, pos0, pos1) VALUES ('chr2', 0, 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO features (chrom, pos0, pos1) VALUES ('chr2', 50, 10)`)
	require.NoError(t, err)

	rows, err := db.Query("SELECT _gri_lvl FROM features ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var levels []sql.NullInt64
	for rows.Next() {
		var lvl sql.NullInt64
		require.NoError(t, rows.Scan(&lvl))
		levels = append(levels, lvl)
	}
	require.Len(t, levels, 2)
	require.True(t, levels[0].Valid, "a zero-length (abutting/empty) interval occupies the floor bin, per §8 scenario 2")
	require.Equal(t, int64(0), levels[0].Int64)
	require.False(t, levels[1].Valid, "end < beg interval must have NULL level (§9 Open Question (a))")
}

func TestEmitCreateGRIRejectsCoordinateColumnInReservedNamespace(t *testing.T) {
	_, err := EmitCreateGRI("features", "chrom", "_gri_beg", "pos1", -1)
	require.Error(t, err, "naming a coordinate column inside the _gri_* namespace must be rejected")
}

func TestEmitCreateGRIQuotesReservedWordTableName(t *testing.T) {
	db := openMemDB(t)
	_, err := db.Exec(`CREATE TABLE "order" (
		id INTEGER PRIMARY KEY,
		chrom TEXT,
		pos0 INTEGER,
		pos1 INTEGER
	)`)
	require.NoError(t, err)

	script, err := EmitCreateGRI("order", "chrom", "pos0", "pos1", -1)
	require.NoError(t, err)
	_, err = db.Exec(script)
	require.NoError(t, err, "order is a SQL keyword; EmitCreateGRI must quote it to apply cleanly")
}

func TestEmitCreateGRIRerunFails(t *testing.T) {
	db := openMemDB(t)
	createFeaturesTable(t, db)

	script, err := EmitCreateGRI("features", "chrom", "pos0", "pos1", -1)
	require.NoError(t, err)
	_, err = db.Exec(script)
	require.NoError(t, err)

	_, err = db.Exec(script)
	require.Error(t, err, "re-running against an already-indexed table must fail (duplicate column/index)")
}
