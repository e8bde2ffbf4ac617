package gri

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
)

// ColumnNames are the four generated columns §3 adds to an indexed table.
const (
	ColRid = "_gri_rid"
	ColBeg = "_gri_beg"
	ColLen = "_gri_len"
	ColLvl = "_gri_lvl"
)

// IndexName returns the composite index name for a table, "_gri_<table>",
// per §4.2 step 4.
func IndexName(table string) string {
	return "_gri_" + table
}

// Probe is the side-information the query planner's probe step (§4.3)
// discovers: the set of levels actually populated in an indexed table, and
// the floor/ceiling the emitted SQL was baked against. Spec §9 ("Probe
// coupling") recommends returning this alongside the SQL string so callers
// can cache and invalidate knowingly instead of treating the emission as a
// black box.
type Probe struct {
	// ID uniquely tags this probe result for logging/cache-key purposes.
	ID uuid.UUID
	// Table the probe was run against.
	Table string
	// Floor and Ceiling are the effective bounds baked into the emitted SQL.
	Floor, Ceiling int
	// Levels is the exact set of populated levels within [Floor, Ceiling].
	Levels *roaring.Bitmap
}

// LevelSlice returns the populated levels in ascending order.
func (p Probe) LevelSlice() []int {
	if p.Levels == nil {
		return nil
	}
	out := make([]int, 0, p.Levels.GetCardinality())
	it := p.Levels.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// NewProbe builds a Probe with a fresh correlation ID.
func NewProbe(table string, floor, ceiling int, levels []int) Probe {
	bm := roaring.New()
	for _, l := range levels {
		bm.Add(uint32(l))
	}
	return Probe{
		ID:      uuid.New(),
		Table:   table,
		Floor:   floor,
		Ceiling: ceiling,
		Levels:  bm,
	}
}
