package timestamp

import "fmt"

// Pair is the nested timestamp of spec §4.7: an outer coordinate (the
// timestamp of the surrounding scope) paired with an inner iteration count.
// It is a product lattice: ordered and joined component-wise, the same
// "compare every component, the pair is ordered only if every component
// agrees" idiom a vector clock uses for its per-process counters, here
// specialized to exactly two components.
type Pair struct {
	Outer Timestamp
	Inner uint64
}

func (p Pair) LessEqual(other Timestamp) bool {
	o := other.(Pair)
	return p.Outer.LessEqual(o.Outer) && p.Inner <= o.Inner
}

func (p Pair) Join(other Timestamp) Timestamp {
	o := other.(Pair)
	inner := p.Inner
	if o.Inner > inner {
		inner = o.Inner
	}
	return Pair{
		Outer: p.Outer.Join(o.Outer),
		Inner: inner,
	}
}

// Increment returns p with its inner coordinate advanced by one round,
// the operation the feedback edge of an iterate scope applies at the end
// of every round (spec §4.7 "Feedback").
func (p Pair) Increment() Pair {
	return Pair{Outer: p.Outer, Inner: p.Inner + 1}
}

// Project discards the inner coordinate, returning the outer timestamp the
// scope's data is re-presented at on exit (spec §4.7 "the scope exits with
// tuples projected back to outer").
func (p Pair) Project() Timestamp {
	return p.Outer
}

func (p Pair) String() string {
	return fmt.Sprintf("(%v, %d)", p.Outer, p.Inner)
}
