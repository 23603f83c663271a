// Package update defines the (data, time, diff) tuple every other package
// in arrangedb moves around (spec §3).
package update

import "github.com/arrangedb/arrangedb/timestamp"

// Diff is a signed multiplicity change. Spec §3 allows diff to be "a signed
// integer (or more general commutative group element)"; this module
// resolves that to a concrete int64 (see DESIGN.md's Open Question log) —
// every operator in arrangedb sums Diffs with plain addition.
type Diff = int64

// Update is a single (key, val, time, diff) tuple for a keyed collection.
// K and V must be orderable so batches can sort and merge on them.
type Update[K, V any] struct {
	Key  K
	Val  V
	Time timestamp.Timestamp
	Diff Diff
}
