package cursor

import (
	"cmp"

	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// MergeCursor presents several cursors (typically one per batch in a trace)
// as a single sorted cursor, the same way friggdb/compactor.go walks a set
// of per-block bookmarks and, at each step, linearly scans them for the
// lowest current key rather than maintaining a heap — batches-per-trace is
// small enough in practice (spec §4.8's "merge machinery ... low constant
// count of cursors") that the scan beats the bookkeeping of a heap.
type MergeCursor[K cmp.Ordered, V cmp.Ordered] struct {
	cursors []Cursor[K, V]
}

// Merge returns a cursor over the union of cursors, sorted by (key, val).
func Merge[K cmp.Ordered, V cmp.Ordered](cursors ...Cursor[K, V]) *MergeCursor[K, V] {
	return &MergeCursor[K, V]{cursors: cursors}
}

// lowestKey scans every key-valid sub-cursor for its smallest current key.
func (m *MergeCursor[K, V]) lowestKey() (K, bool) {
	var best K
	found := false
	for _, c := range m.cursors {
		if !c.KeyValid() {
			continue
		}
		k := c.Key()
		if !found || cmp.Less(k, best) {
			best = k
			found = true
		}
	}
	return best, found
}

// activeAtKey returns the sub-cursors currently positioned at the merge
// cursor's current key.
func (m *MergeCursor[K, V]) activeAtKey() []Cursor[K, V] {
	key, ok := m.lowestKey()
	if !ok {
		return nil
	}
	var active []Cursor[K, V]
	for _, c := range m.cursors {
		if c.KeyValid() && c.Key() == key {
			active = append(active, c)
		}
	}
	return active
}

// lowestVal scans the key-active sub-cursors for the smallest current val.
func (m *MergeCursor[K, V]) lowestVal(active []Cursor[K, V]) (V, bool) {
	var best V
	found := false
	for _, c := range active {
		if !c.ValValid() {
			continue
		}
		v := c.Val()
		if !found || cmp.Less(v, best) {
			best = v
			found = true
		}
	}
	return best, found
}

// activeAtVal narrows active (already at the current key) to those also
// positioned at the current val.
func (m *MergeCursor[K, V]) activeAtVal(active []Cursor[K, V]) []Cursor[K, V] {
	val, ok := m.lowestVal(active)
	if !ok {
		return nil
	}
	var out []Cursor[K, V]
	for _, c := range active {
		if c.ValValid() && c.Val() == val {
			out = append(out, c)
		}
	}
	return out
}

func (m *MergeCursor[K, V]) KeyValid() bool {
	_, ok := m.lowestKey()
	return ok
}

func (m *MergeCursor[K, V]) ValValid() bool {
	active := m.activeAtKey()
	_, ok := m.lowestVal(active)
	return ok
}

func (m *MergeCursor[K, V]) Key() K {
	key, _ := m.lowestKey()
	return key
}

func (m *MergeCursor[K, V]) Val() V {
	val, _ := m.lowestVal(m.activeAtKey())
	return val
}

func (m *MergeCursor[K, V]) MapTimes(fn func(t timestamp.Timestamp, d update.Diff)) {
	for _, c := range m.activeAtVal(m.activeAtKey()) {
		c.MapTimes(fn)
	}
}

func (m *MergeCursor[K, V]) StepKey() {
	for _, c := range m.activeAtKey() {
		c.StepKey()
	}
}

func (m *MergeCursor[K, V]) SeekKey(key K) {
	for _, c := range m.cursors {
		c.SeekKey(key)
	}
}

func (m *MergeCursor[K, V]) StepVal() {
	for _, c := range m.activeAtVal(m.activeAtKey()) {
		c.StepVal()
	}
}

func (m *MergeCursor[K, V]) SeekVal(val V) {
	for _, c := range m.activeAtKey() {
		c.SeekVal(val)
	}
}

func (m *MergeCursor[K, V]) RewindKeys() {
	for _, c := range m.cursors {
		c.RewindKeys()
	}
}

func (m *MergeCursor[K, V]) RewindVals() {
	for _, c := range m.activeAtKey() {
		c.RewindVals()
	}
}
