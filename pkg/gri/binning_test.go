package gri

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelNullForNegativeLength(t *testing.T) {
	for _, length := range []int64{-5, -1} {
		_, ok := Level(length, -1)
		assert.False(t, ok, "length %d should yield NULL level", length)
	}
}

func TestLevelZeroLengthOccupiesFloorBin(t *testing.T) {
	for floor := -1; floor <= 15; floor++ {
		got, ok := Level(0, floor)
		require.True(t, ok, "zero length should not yield NULL level")
		assert.Equal(t, EffectiveFloor(floor), got)
	}
}

func TestLevelMatchesBreakpoints(t *testing.T) {
	cases := []struct {
		length int64
		floor  int
		want   int
	}{
		{1, -1, 0},
		{16, -1, 1},
		{17, -1, 2},
		{256, -1, 2},
		{257, -1, 3},
		{Width(8) + 1, -1, 9},
		{1, 15, 15},
		{Width(7), 0, 7},
	}
	for _, c := range cases {
		got, ok := Level(c.length, c.floor)
		require.True(t, ok)
		assert.Equal(t, c.want, got, "length=%d floor=%d", c.length, c.floor)
	}
}

func TestLevelClampedAtMax(t *testing.T) {
	got, ok := Level(int64(1)<<62, -1)
	require.True(t, ok)
	assert.Equal(t, MaxLevel, got)
}

func TestEffectiveFloor(t *testing.T) {
	assert.Equal(t, 0, EffectiveFloor(-1))
	assert.Equal(t, 0, EffectiveFloor(0))
	assert.Equal(t, 5, EffectiveFloor(5))
	assert.Equal(t, MaxLevel, EffectiveFloor(99))
}

func TestBeginEndBin(t *testing.T) {
	// An abutting/empty interval [100,100) at level 0 has endBin computed
	// from end-1, so it never claims a bin past its own begin.
	assert.Equal(t, int64(100), BeginBin(100, 0))
	assert.Equal(t, int64(99), EndBin(100, 0))
	assert.Equal(t, int64(0), EndBin(0, 0))
}

func TestLevelCaseSQLAgreesWithLevel(t *testing.T) {
	for floor := -1; floor <= 15; floor++ {
		sqlExpr := levelCaseSQL("len", floor)
		assert.Contains(t, sqlExpr, "CASE WHEN len IS NULL OR len < 0 THEN NULL")
		assert.Contains(t, sqlExpr, "ELSE 15 END")
		// Every WHEN breakpoint maps to the level Level computes for it.
		for level := EffectiveFloor(floor); level < MaxLevel; level++ {
			want, ok := Level(Width(level), floor)
			require.True(t, ok)
			assert.Contains(t, sqlExpr, fmt.Sprintf("WHEN len <= %d THEN %d", Width(level), want))
		}
	}
}
