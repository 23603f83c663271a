// Package dataflow provides the small, named building blocks spec §6 lists
// as external interface surface: a step-function operator shape, the
// handful of operators every dataflow needs regardless of domain
// (Map/Filter/Concat/Consolidate), and data-exchange (partitioning) for a
// multi-worker run.
package dataflow

import (
	"cmp"
	"fmt"

	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// StepFunc is the shape every operator in this package reduces to (spec §6):
// given a batch of input updates bounded by inputFrontier, produce both the
// updates to emit downstream and the operator's own new output frontier —
// the promise that nothing more will arrive at or behind it. A caller
// chaining several operators threads one's output frontier into the next's
// input, the same "typed function value plus a thin runner" shape
// friggdb/pool/pool.go uses for JobFunc.
type StepFunc[In, Out any] func(in []In, inputFrontier *frontier.Antichain) ([]Out, *frontier.Antichain)

// MapStep adapts Map into the StepFunc shape. A per-record projection
// introduces no timestamps of its own, so its output frontier always tracks
// its input frontier exactly.
func MapStep[K, V, K2, V2 any](fn func(key K, val V) (K2, V2)) StepFunc[update.Update[K, V], update.Update[K2, V2]] {
	return func(in []update.Update[K, V], inputFrontier *frontier.Antichain) ([]update.Update[K2, V2], *frontier.Antichain) {
		return Map(in, fn), inputFrontier
	}
}

// ConsolidateStep adapts Consolidate into the StepFunc shape, for the same
// reason MapStep does: consolidating duplicate entries doesn't move time.
func ConsolidateStep[K cmp.Ordered, V cmp.Ordered]() StepFunc[update.Update[K, V], update.Update[K, V]] {
	return func(in []update.Update[K, V], inputFrontier *frontier.Antichain) ([]update.Update[K, V], *frontier.Antichain) {
		return Consolidate(in), inputFrontier
	}
}

// Map applies fn to every update's (key, val), leaving time and diff
// untouched.
func Map[K, V, K2, V2 any](in []update.Update[K, V], fn func(key K, val V) (K2, V2)) []update.Update[K2, V2] {
	out := make([]update.Update[K2, V2], len(in))
	for i, u := range in {
		k2, v2 := fn(u.Key, u.Val)
		out[i] = update.Update[K2, V2]{Key: k2, Val: v2, Time: u.Time, Diff: u.Diff}
	}
	return out
}

// Filter keeps only the updates for which pred returns true.
func Filter[K, V any](in []update.Update[K, V], pred func(key K, val V) bool) []update.Update[K, V] {
	var out []update.Update[K, V]
	for _, u := range in {
		if pred(u.Key, u.Val) {
			out = append(out, u)
		}
	}
	return out
}

// Concat appends b after a without deduplicating or consolidating.
func Concat[K, V any](a, b []update.Update[K, V]) []update.Update[K, V] {
	out := make([]update.Update[K, V], 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// Consolidate sums diffs for updates sharing the same (key, val, time),
// dropping any whose summed diff is zero.
func Consolidate[K cmp.Ordered, V cmp.Ordered](in []update.Update[K, V]) []update.Update[K, V] {
	type cell struct {
		key K
		val V
		t   string
	}
	totals := make(map[cell]update.Diff, len(in))
	order := make([]cell, 0, len(in))
	times := make(map[cell]timestamp.Timestamp, len(in))

	for _, u := range in {
		c := cell{u.Key, u.Val, timeKey(u.Time)}
		if _, ok := totals[c]; !ok {
			order = append(order, c)
			times[c] = u.Time
		}
		totals[c] += u.Diff
	}

	out := make([]update.Update[K, V], 0, len(order))
	for _, c := range order {
		if d := totals[c]; d != 0 {
			out = append(out, update.Update[K, V]{Key: c.key, Val: c.val, Time: times[c], Diff: d})
		}
	}
	return out
}

func timeKey(t timestamp.Timestamp) string {
	return fmt.Sprintf("%v", t)
}
