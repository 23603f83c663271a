// Package join implements the bilinear join operator (spec §4.5): for two
// keyed collections A and B, a new batch dA of A and dB of B produce output
// A·dB + dA·B + dA·dB, where A and B are full, as-of-now collections and
// the product of two collections at matching keys is the cross product of
// their values, with output time the join of the two input times and
// output diff the product of the two input diffs.
//
// JoinCore is grounded on friggdb/compactor.go's merge loop generalized
// from "walk N sorted bookmarks for the lowest ID" to "walk two sorted
// cursors for matching keys, cross-multiplying vals and times at each
// match" — the same lockstep-advance shape, applied to an actual join
// instead of a dedup-on-append.
package join

import (
	"cmp"

	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

type timeDiff struct {
	t timestamp.Timestamp
	d update.Diff
}

// JoinCore walks two cursors in lockstep by key. At every key present in
// both, it cross-products every (val, time, diff) triple of the first
// cursor against every triple of the second, calling emit once per pair
// with the joined key/vals combined via combine, the joined time
// (t1.Join(t2)), and the product diff (d1*d2).
//
// Both cursors are rewound to their first key before JoinCore begins. It
// returns as soon as either cursor runs out of keys, so at least one of
// them is left exhausted; the other may still be positioned at a key.
func JoinCore[K cmp.Ordered, V1 cmp.Ordered, V2 cmp.Ordered, R any](
	c1 cursor.Cursor[K, V1],
	c2 cursor.Cursor[K, V2],
	combine func(key K, v1 V1, v2 V2) R,
	emit func(r R, t timestamp.Timestamp, d update.Diff),
) {
	c1.RewindKeys()
	c2.RewindKeys()

	for c1.KeyValid() && c2.KeyValid() {
		k1, k2 := c1.Key(), c2.Key()
		switch {
		case cmp.Less(k1, k2):
			c1.SeekKey(k2)
		case cmp.Less(k2, k1):
			c2.SeekKey(k1)
		default:
			joinAtKey(k1, c1, c2, combine, emit)
			c1.StepKey()
			c2.StepKey()
		}
	}
}

func joinAtKey[K cmp.Ordered, V1 cmp.Ordered, V2 cmp.Ordered, R any](
	key K,
	c1 cursor.Cursor[K, V1],
	c2 cursor.Cursor[K, V2],
	combine func(key K, v1 V1, v2 V2) R,
	emit func(r R, t timestamp.Timestamp, d update.Diff),
) {
	c1.RewindVals()
	for c1.ValValid() {
		v1 := c1.Val()
		var times1 []timeDiff
		c1.MapTimes(func(t timestamp.Timestamp, d update.Diff) {
			times1 = append(times1, timeDiff{t, d})
		})

		c2.RewindVals()
		for c2.ValValid() {
			v2 := c2.Val()
			var times2 []timeDiff
			c2.MapTimes(func(t timestamp.Timestamp, d update.Diff) {
				times2 = append(times2, timeDiff{t, d})
			})

			r := combine(key, v1, v2)
			for _, a := range times1 {
				for _, b := range times2 {
					emit(r, a.t.Join(b.t), a.d*b.d)
				}
			}
			c2.StepVal()
		}
		c1.StepVal()
	}
}

// Join computes the three bilinear terms of spec §4.5 for one round of
// incremental processing: aBefore is a cursor over A as it stood before dA
// was inserted, bAfter is a cursor over B as it stands after dB was
// inserted (so bAfter already includes dB), and dA/dB are cursors over
// just the new batches. The term ordering (A_before·dB, dA·B_after) sums
// to exactly A·dB + dA·B + dA·dB with no double-counting, since
// B_after = B_before + dB.
func Join[K cmp.Ordered, V1 cmp.Ordered, V2 cmp.Ordered, R any](
	aBefore cursor.Cursor[K, V1],
	dB cursor.Cursor[K, V2],
	dA cursor.Cursor[K, V1],
	bAfter cursor.Cursor[K, V2],
	combine func(key K, v1 V1, v2 V2) R,
	emit func(r R, t timestamp.Timestamp, d update.Diff),
) {
	JoinCore(aBefore, dB, combine, emit)
	JoinCore(dA, bAfter, combine, emit)
}
