// Package gri implements the Genomic Range Index: a binning scheme (§4.1),
// a schema emitter that adds generated columns and a composite index to an
// existing table (§4.2), and a query planner that emits a parenthesized
// rowid subquery for interval-overlap lookups (§4.3).
//
// The package is a SQL generator, not an executor: every exported Emit*
// function returns a string. Only the probe (ProbeLevels) and the
// explicit-ceiling check in EmitRangeRowids touch a *sql.DB, and only to
// read, never to mutate (§9 "Emitter vs. executor").
package gri

import (
	"fmt"
	"math/bits"
	"strings"
)

// MinFloor and MaxLevel bound the floor/ceiling parameters of §3
// ("floor ∈ {-1,0,…,15}") and the level domain itself.
const (
	MinFloor = -1
	MaxLevel = 15
)

// Width returns 16^level, the bin width at that level.
func Width(level int) int64 {
	return int64(1) << (4 * level)
}

// EffectiveFloor clamps a caller-supplied floor to the >=0 domain the level
// formula actually uses (spec §4.2: "floor' = max(0, floor)").
func EffectiveFloor(floor int) int {
	return clamp(floor, 0, MaxLevel)
}

// Level computes ⌈log16(len)⌉ clamped to [floor', 15], matching the
// generated-column expression of §4.2. It returns (level, true) for
// length >= 0 (a zero-length, empty/abutting interval occupies the
// smallest bin at floor', per §8 scenario 2), or (0, false) for a negative
// length (end < beg), which the column leaves NULL and which therefore
// never matches any query (§9 Open Question (a): silent exclusion, not a
// CHECK-constraint rejection).
func Level(length int64, floor int) (int, bool) {
	if length < 0 {
		return 0, false
	}
	floorPrime := EffectiveFloor(floor)
	level := clamp(ceilLog16(length), floorPrime, MaxLevel)
	return level, true
}

// ceilLog16 returns the smallest ℓ such that length <= 16^ℓ, for length >= 1.
func ceilLog16(length int64) int {
	if length <= 1 {
		return 0
	}
	return (bits.Len64(uint64(length-1)) + 3) / 4
}

// BeginBin and EndBin are the bin coordinates of a half-open interval
// [beg,end) at the given level, per §4.1. endBin uses end-1 so an interval
// that ends exactly on a bin boundary doesn't spuriously claim the next bin.
func BeginBin(beg int64, level int) int64 {
	return beg >> uint(4*level)
}

func EndBin(end int64, level int) int64 {
	if end <= 0 {
		return 0
	}
	return (end - 1) >> uint(4*level)
}

// levelCaseSQL renders the §4.2 level expression as a CASE ladder over
// lenExpr, agreeing with Level above breakpoint-for-breakpoint. A CASE
// ladder (rather than a single bit-shift closed form) keeps the emitted DDL
// portable across SQLite builds that lack an integer log/bit-length
// function, while still being the "closed form" §4.2 asks for: each branch
// is a constant comparison, no correlated subquery.
func levelCaseSQL(lenExpr string, floor int) string {
	floorPrime := EffectiveFloor(floor)

	var b strings.Builder
	b.WriteString("CASE WHEN ")
	b.WriteString(lenExpr)
	b.WriteString(" IS NULL OR ")
	b.WriteString(lenExpr)
	b.WriteString(" < 0 THEN NULL")

	for level := floorPrime; level < MaxLevel; level++ {
		fmt.Fprintf(&b, " WHEN %s <= %d THEN %d", lenExpr, Width(level), level)
	}
	fmt.Fprintf(&b, " ELSE %d END", MaxLevel)
	return b.String()
}
