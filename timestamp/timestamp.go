// Package timestamp defines the logical-time lattice that every update in
// arrangedb is stamped with. A Timestamp lives in a bounded join-semilattice:
// a partial order with a least-upper-bound (Join) operation.
package timestamp

// Timestamp is an element of a bounded join-semilattice. Implementations
// must be comparable with ==, since traces and frontiers use Go map keys and
// equality checks built on it.
type Timestamp interface {
	// LessEqual reports whether t <= other in the partial order.
	LessEqual(other Timestamp) bool

	// Join returns the least upper bound of t and other. Both arguments must
	// be of the same concrete type; Join panics otherwise, since mixing
	// lattices mid-dataflow is a programming error, not a runtime condition.
	Join(other Timestamp) Timestamp
}

// Equal reports whether a and b denote the same timestamp, i.e. a <= b and
// b <= a.
func Equal(a, b Timestamp) bool {
	return a.LessEqual(b) && b.LessEqual(a)
}

// Less reports whether a < b: a <= b and a != b.
func Less(a, b Timestamp) bool {
	return a.LessEqual(b) && !b.LessEqual(a)
}
