package timestamp

// Natural is the flat, totally-ordered lattice of spec §3's "streaming"
// case: plain non-negative integers under the usual order, join = max.
type Natural uint64

func (t Natural) LessEqual(other Timestamp) bool {
	return t <= other.(Natural)
}

func (t Natural) Join(other Timestamp) Timestamp {
	o := other.(Natural)
	if t > o {
		return t
	}
	return o
}
