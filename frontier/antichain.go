// Package frontier implements antichains: minimal sets of pairwise
// incomparable timestamps that represent a "no more updates at or below
// these times" progress boundary (spec §3, §4.1). Antichains here are small
// owned slices with linear-scan minimization, the same "a handful of
// elements, scan don't index" choice the teacher makes for its own small
// fixed-shape structs (friggdb/block_meta.go, friggdb/record.go) — a
// frontier in practice holds 0-2 elements outside of deep fan-in joins.
package frontier

import "github.com/arrangedb/arrangedb/timestamp"

// Antichain is a set of pairwise incomparable timestamps. The empty
// antichain denotes "drained": no further times are possible (spec §4.1).
type Antichain struct {
	elements []timestamp.Timestamp
}

// New builds an antichain from the given timestamps, minimizing as it goes.
func New(ts ...timestamp.Timestamp) *Antichain {
	a := &Antichain{}
	for _, t := range ts {
		a.Insert(t)
	}
	return a
}

// Empty returns the drained antichain (no elements, dominates nothing,
// dominated by everything).
func Empty() *Antichain {
	return &Antichain{}
}

// Insert adds t to the antichain, dropping any existing element >= t and
// refusing to add t if some existing element is already <= t. This keeps
// the antichain minimal at all times (spec §4.1).
func (a *Antichain) Insert(t timestamp.Timestamp) {
	for _, e := range a.elements {
		if e.LessEqual(t) {
			return
		}
	}
	kept := a.elements[:0:0]
	for _, e := range a.elements {
		if !t.LessEqual(e) {
			kept = append(kept, e)
		}
	}
	a.elements = append(kept, t)
}

// Elements returns the antichain's minimal elements. The caller must not
// mutate the returned slice.
func (a *Antichain) Elements() []timestamp.Timestamp {
	return a.elements
}

// IsEmpty reports whether the antichain is drained.
func (a *Antichain) IsEmpty() bool {
	return len(a.elements) == 0
}

// LessEqual reports whether t is at or beyond the frontier: some element of
// a is <= t. An empty frontier is beyond every time (nothing is live past
// drain), so LessEqual on an empty antichain is always false — there is no
// element to dominate t, which is exactly "no further times are possible".
func (a *Antichain) LessEqual(t timestamp.Timestamp) bool {
	for _, e := range a.elements {
		if e.LessEqual(t) {
			return true
		}
	}
	return false
}

// LessThan reports whether t is strictly beyond the frontier.
func (a *Antichain) LessThan(t timestamp.Timestamp) bool {
	for _, e := range a.elements {
		if timestamp.Less(e, t) {
			return true
		}
	}
	return false
}

// Dominates reports whether every element of other is dominated by some
// element of a, i.e. a is at least as far advanced as other: for each
// t in other, some e in a already has t <= e.
func (a *Antichain) Dominates(other *Antichain) bool {
	for _, t := range other.elements {
		dominated := false
		for _, e := range a.elements {
			if t.LessEqual(e) {
				dominated = true
				break
			}
		}
		if !dominated {
			return false
		}
	}
	return true
}

// Join returns the antichain whose elements are the pairwise joins of a's
// and b's elements, re-minimized: a frontier at least as far advanced as
// both a and b. Trace merges use it to advance a merged batch's since to
// the trace's since.
func Join(a, b *Antichain) *Antichain {
	out := &Antichain{}
	for _, x := range a.elements {
		for _, y := range b.elements {
			out.Insert(x.Join(y))
		}
	}
	return out
}

// Meet returns the least-advanced common antichain: the frontier that is
// dominated by both a and b. This is used to compute a trace's since as the
// meet of all live handles' through frontiers (spec §3).
func Meet(a, b *Antichain) *Antichain {
	out := &Antichain{}
	for _, x := range a.elements {
		out.Insert(x)
	}
	for _, y := range b.elements {
		out.Insert(y)
	}
	// The meet of two antichains is their union, re-minimized: Insert
	// already drops any element dominated by another, so no cross-product
	// is needed here (unlike Join, which pairs every element of a with
	// every element of b).
	return out
}

// Clone returns an independent copy of a.
func (a *Antichain) Clone() *Antichain {
	out := &Antichain{elements: make([]timestamp.Timestamp, len(a.elements))}
	copy(out.elements, a.elements)
	return out
}

// Coarsen returns the unique minimum timestamp t' such that
// t <= t' <= Join(t, f) for some f in the frontier — the compaction target
// for a time under this frontier (spec §4.1). If the frontier is empty
// there is no f to join against and t coarsens to itself.
func (a *Antichain) Coarsen(t timestamp.Timestamp) timestamp.Timestamp {
	if len(a.elements) == 0 {
		return t
	}
	coarsened := t.Join(a.elements[0])
	for _, f := range a.elements[1:] {
		candidate := t.Join(f)
		if timestamp.Less(candidate, coarsened) {
			coarsened = candidate
		}
	}
	return coarsened
}
