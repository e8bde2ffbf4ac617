package gri

import "golang.org/x/exp/constraints"

// clamp restricts v to [lo,hi]. EffectiveFloor and Level both clamp an
// integer into the level domain; a single generic helper keeps the two
// clamps (floor into [0,MaxLevel], level into [floor',MaxLevel]) textually
// identical instead of hand-rolled if-ladders drifting apart.
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
