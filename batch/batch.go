// Package batch implements the immutable, columnar update chunk of spec
// §4.2: an ordered run of (key, val, time, diff) updates covering a
// half-open time interval [Lower, Upper), laid out as keys -> values ->
// (time, diff) pairs so a cursor can seek a key without touching its values.
//
// The lifecycle mirrors friggdb/wal/head_block.go's headBlock -> Complete()
// pair: a Builder accumulates writes (in memory here, rather than to a
// file), and Seal() produces the immutable Batch the rest of the engine
// shares by reference.
package batch

import (
	"cmp"
	"fmt"

	bloomz "github.com/dgraph-io/ristretto/z"
	"github.com/dgryski/go-farm"
	"github.com/google/uuid"

	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// value holds one (val, [](time,diff)) entry inside a key's run.
type value[V any] struct {
	val   V
	times []timestamp.Timestamp
	diffs []update.Diff
}

// keyRun holds one key's sorted run of values.
type keyRun[K, V any] struct {
	key    K
	values []value[V]
}

// Batch is an immutable, sorted, columnar chunk of updates over
// [Lower, Upper), compacted no further back than Since (spec §3).
type Batch[K cmp.Ordered, V cmp.Ordered] struct {
	ID    uuid.UUID
	Lower *frontier.Antichain
	Upper *frontier.Antichain
	Since *frontier.Antichain

	keys  []keyRun[K, V]
	bloom *bloomz.Filter
}

// Len returns the number of keys in the batch.
func (b *Batch[K, V]) Len() int {
	return len(b.keys)
}

// MayContain reports whether key might be present in the batch. A false
// result is definitive (the key is absent); a true result requires a real
// lookup. Mirrors friggdb.Find's bloom-filter pre-check before paying for
// an index/object read.
func (b *Batch[K, V]) MayContain(key K) bool {
	if b.bloom == nil {
		return true
	}
	return b.bloom.Has(fingerprint(key))
}

func fingerprint[K any](key K) uint64 {
	return farm.Fingerprint64([]byte(fmt.Sprint(key)))
}

// ForEach walks every (key, val, time, diff) update in the batch in sorted
// order. It is the simplest possible traversal; Cursor (package cursor)
// gives seekable, incremental access for operators that can't afford a full
// scan.
func (b *Batch[K, V]) ForEach(fn func(key K, val V, t timestamp.Timestamp, d update.Diff)) {
	for _, kr := range b.keys {
		for _, v := range kr.values {
			for i, t := range v.times {
				fn(kr.key, v.val, t, v.diffs[i])
			}
		}
	}
}
