// Package reduce implements the group/reduce operator via the
// "interesting times" algorithm (spec §4.6): whenever a key's input
// changes at some set of times, the key's reduce function is
// re-evaluated at every time reachable by joining those change times
// together, and only the resulting output delta is emitted — not the
// whole recomputed group.
//
// State bookkeeping (the running total of output this operator has emitted
// for a given key, needed to compute the next delta) is kept in a plain
// nested map, the same "no generic cache library, just a map sized for
// the working set" choice friggdb.go makes for its blockLists bookkeeping.
package reduce

import (
	"cmp"
	"sort"

	"github.com/arrangedb/arrangedb/batch"
	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// Weighted is one (val, diff) pair of a key's accumulated input group.
type Weighted[V any] struct {
	Val  V
	Diff update.Diff
}

// Reducer holds the per-key output state needed to turn a full
// recomputation into an incremental delta.
type Reducer[K cmp.Ordered, VIn cmp.Ordered, VOut cmp.Ordered] struct {
	fn func(key K, group []Weighted[VIn]) []VOut

	// emitted[key] is the cumulative (val -> diff) total this Reducer has
	// sent downstream for key so far, as of the most recently evaluated
	// interesting time — the baseline the next interesting time's
	// recomputation is diffed against, regardless of which exact time
	// produced it. A prior time's output remains valid forever as a
	// historical fact; what changes is only the running total a later
	// time's retraction/assertion pair is computed relative to.
	emitted map[K]map[VOut]update.Diff
}

// New returns a Reducer that applies fn to each key's accumulated input
// group at every interesting time.
func New[K cmp.Ordered, VIn cmp.Ordered, VOut cmp.Ordered](fn func(key K, group []Weighted[VIn]) []VOut) *Reducer[K, VIn, VOut] {
	return &Reducer[K, VIn, VOut]{
		fn:      fn,
		emitted: make(map[K]map[VOut]update.Diff),
	}
}

// Step processes one round of input change: full is a cursor over the
// complete, as-of-now input trace (already including delta), and delta is
// the batch of updates that just arrived. For every key delta touches, it
// recomputes fn at every interesting time (the join-closure of delta's
// times for that key), in increasing order, and emits only the change
// versus the running baseline built up by every earlier Step call.
func (r *Reducer[K, VIn, VOut]) Step(full cursor.Cursor[K, VIn], delta *batch.Batch[K, VIn], emit func(key K, val VOut, t timestamp.Timestamp, d update.Diff)) {
	changedKeys, interestingTimes := collectInterestingTimes[K, VIn](delta)

	for _, key := range changedKeys {
		times := interestingTimes[key]
		sort.Slice(times, func(i, j int) bool { return timestamp.Less(times[i], times[j]) })

		baseline := r.emitted[key]
		for _, t := range times {
			group := groupAsOf[K, VIn](full, key, t)
			newOutputs := r.fn(key, group)

			newCounts := make(map[VOut]update.Diff, len(newOutputs))
			for _, v := range newOutputs {
				newCounts[v]++
			}

			for val, n := range newCounts {
				if d := n - baseline[val]; d != 0 {
					emit(key, val, t, d)
				}
			}
			for val, n := range baseline {
				if _, ok := newCounts[val]; !ok && n != 0 {
					emit(key, val, t, -n)
				}
			}

			baseline = newCounts
		}
		r.emitted[key] = baseline
	}
}

// collectInterestingTimes scans delta once, grouping its update times by
// key, then closes each key's time set under pairwise Join until no new
// times appear — the "interesting times" of spec §4.6.
func collectInterestingTimes[K cmp.Ordered, V cmp.Ordered](delta *batch.Batch[K, V]) ([]K, map[K][]timestamp.Timestamp) {
	perKey := make(map[K][]timestamp.Timestamp)
	var order []K
	seenKey := make(map[K]bool)

	delta.ForEach(func(key K, _ V, t timestamp.Timestamp, _ update.Diff) {
		if !seenKey[key] {
			seenKey[key] = true
			order = append(order, key)
		}
		perKey[key] = appendTimeIfNew(perKey[key], t)
	})

	for key, times := range perKey {
		perKey[key] = closeUnderJoin(times)
	}

	return order, perKey
}

func appendTimeIfNew(times []timestamp.Timestamp, t timestamp.Timestamp) []timestamp.Timestamp {
	for _, existing := range times {
		if timestamp.Equal(existing, t) {
			return times
		}
	}
	return append(times, t)
}

func closeUnderJoin(times []timestamp.Timestamp) []timestamp.Timestamp {
	for {
		n := len(times)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				joined := times[i].Join(times[j])
				times = appendTimeIfNew(times, joined)
			}
		}
		if len(times) == n {
			return times
		}
	}
}

// groupAsOf sums every val's diffs at or before t into one weighted group,
// dropping vals whose total diff is zero.
func groupAsOf[K cmp.Ordered, V cmp.Ordered](c cursor.Cursor[K, V], key K, t timestamp.Timestamp) []Weighted[V] {
	c.RewindKeys()
	c.SeekKey(key)
	if !c.KeyValid() || c.Key() != key {
		return nil
	}

	var group []Weighted[V]
	c.RewindVals()
	for c.ValValid() {
		val := c.Val()
		var total update.Diff
		c.MapTimes(func(tm timestamp.Timestamp, d update.Diff) {
			if tm.LessEqual(t) {
				total += d
			}
		})
		if total != 0 {
			group = append(group, Weighted[V]{Val: val, Diff: total})
		}
		c.StepVal()
	}
	return group
}
