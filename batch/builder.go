package batch

import (
	"cmp"
	"sort"

	bloomz "github.com/dgraph-io/ristretto/z"
	"github.com/google/uuid"

	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

type rawUpdate[K, V any] struct {
	key  K
	val  V
	time timestamp.Timestamp
	diff update.Diff
}

// Builder accumulates updates in any order and, on Seal, sorts and
// consolidates them into an immutable Batch. This mirrors
// friggdb/wal/head_block.go's headBlock: Write appends freely, Complete
// does the one-time sort/index/bloom pass that the reader side depends on.
type Builder[K cmp.Ordered, V cmp.Ordered] struct {
	updates []rawUpdate[K, V]
	bloomFP float64
}

// NewBuilder returns an empty Builder. bloomFP is the false-positive rate
// for the batch's key bloom filter; a bloomFP <= 0 disables the filter
// (every MayContain call on the sealed batch then returns true).
func NewBuilder[K cmp.Ordered, V cmp.Ordered](bloomFP float64) *Builder[K, V] {
	return &Builder[K, V]{bloomFP: bloomFP}
}

// Add appends one update to the builder. Order of calls does not matter;
// Seal sorts everything.
func (b *Builder[K, V]) Add(key K, val V, t timestamp.Timestamp, d update.Diff) {
	b.updates = append(b.updates, rawUpdate[K, V]{key: key, val: val, time: t, diff: d})
}

// Len reports how many raw updates have been added so far.
func (b *Builder[K, V]) Len() int {
	return len(b.updates)
}

// Seal sorts and consolidates the accumulated updates into an immutable
// Batch covering [lower, upper) with the given since frontier (spec §4.2).
// Updates whose consolidated diff sums to zero at a given (key, val, time)
// are dropped. friggdb's headBlock has no diffs and no counterpart to this
// step.
func (b *Builder[K, V]) Seal(lower, upper, since *frontier.Antichain) *Batch[K, V] {
	sort.Slice(b.updates, func(i, j int) bool {
		a, c := b.updates[i], b.updates[j]
		if a.key != c.key {
			return cmp.Less(a.key, c.key)
		}
		if a.val != c.val {
			return cmp.Less(a.val, c.val)
		}
		return timestamp.Less(a.time, c.time)
	})

	out := &Batch[K, V]{
		ID:    uuid.New(),
		Lower: lower,
		Upper: upper,
		Since: since,
	}

	var filter *bloomz.Filter
	if b.bloomFP > 0 && len(b.updates) > 0 {
		filter = bloomz.NewBloomFilter(float64(len(b.updates)), b.bloomFP)
	}

	i := 0
	for i < len(b.updates) {
		key := b.updates[i].key
		j := i
		for j < len(b.updates) && b.updates[j].key == key {
			j++
		}
		run := consolidateValues(b.updates[i:j])
		if len(run) > 0 {
			out.keys = append(out.keys, keyRun[K, V]{key: key, values: run})
			if filter != nil {
				filter.Add(fingerprint(key))
			}
		}
		i = j
	}
	out.bloom = filter

	return out
}

// consolidateValues groups a single key's raw updates by val, merging
// entries that share both val and time by summing diffs, and dropping any
// (val, time) pair whose summed diff is zero.
func consolidateValues[K, V cmp.Ordered](raws []rawUpdate[K, V]) []value[V] {
	var values []value[V]

	i := 0
	for i < len(raws) {
		val := raws[i].val
		j := i
		for j < len(raws) && raws[j].val == val {
			j++
		}

		var times []timestamp.Timestamp
		var diffs []update.Diff
		for k := i; k < j; k++ {
			t, d := raws[k].time, raws[k].diff
			merged := false
			for n := range times {
				if timestamp.Equal(times[n], t) {
					diffs[n] += d
					merged = true
					break
				}
			}
			if !merged {
				times = append(times, t)
				diffs = append(diffs, d)
			}
		}

		var keptTimes []timestamp.Timestamp
		var keptDiffs []update.Diff
		for k := range times {
			if diffs[k] != 0 {
				keptTimes = append(keptTimes, times[k])
				keptDiffs = append(keptDiffs, diffs[k])
			}
		}
		if len(keptTimes) > 0 {
			values = append(values, value[V]{val: val, times: keptTimes, diffs: keptDiffs})
		}

		i = j
	}

	return values
}
