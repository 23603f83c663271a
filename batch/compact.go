package batch

import (
	"cmp"

	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// Compact advances a batch's since frontier, coarsening every update's time
// to its image under the new frontier and re-consolidating any entries that
// collide as a result (spec §4.2: a batch's since may only move forward;
// compaction rewrites times at or behind it and merges diffs that become
// equal). newSince must dominate in.Since — Compact does not check this,
// since callers (trace merges) already know it holds.
//
// The returned batch is a new, independent value; in is left untouched.
func Compact[K cmp.Ordered, V cmp.Ordered](in *Batch[K, V], newSince *frontier.Antichain, bloomFP float64) *Batch[K, V] {
	b := NewBuilder[K, V](bloomFP)
	in.ForEach(func(key K, val V, t timestamp.Timestamp, d update.Diff) {
		b.Add(key, val, newSince.Coarsen(t), d)
	})
	return b.Seal(in.Lower, in.Upper, newSince)
}
