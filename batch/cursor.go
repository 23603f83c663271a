package batch

import (
	"cmp"
	"sort"

	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// batchCursor walks a single Batch. It implements cursor.Cursor[K, V]
// structurally (no import of package cursor needed: Go interfaces are
// satisfied implicitly), keeping package batch free of a dependency on the
// package that consumes it.
type batchCursor[K cmp.Ordered, V cmp.Ordered] struct {
	b      *Batch[K, V]
	keyIdx int
	valIdx int
}

// Cursor returns a fresh cursor over b, positioned at its first key.
func (b *Batch[K, V]) Cursor() *batchCursor[K, V] {
	return &batchCursor[K, V]{b: b}
}

func (c *batchCursor[K, V]) KeyValid() bool {
	return c.keyIdx < len(c.b.keys)
}

func (c *batchCursor[K, V]) ValValid() bool {
	return c.KeyValid() && c.valIdx < len(c.b.keys[c.keyIdx].values)
}

func (c *batchCursor[K, V]) Key() K {
	return c.b.keys[c.keyIdx].key
}

func (c *batchCursor[K, V]) Val() V {
	return c.b.keys[c.keyIdx].values[c.valIdx].val
}

func (c *batchCursor[K, V]) MapTimes(fn func(t timestamp.Timestamp, d update.Diff)) {
	v := c.b.keys[c.keyIdx].values[c.valIdx]
	for i, t := range v.times {
		fn(t, v.diffs[i])
	}
}

func (c *batchCursor[K, V]) StepKey() {
	c.keyIdx++
	c.valIdx = 0
}

func (c *batchCursor[K, V]) SeekKey(key K) {
	n := len(c.b.keys)
	i := sort.Search(n-c.keyIdx, func(i int) bool {
		return !cmp.Less(c.b.keys[c.keyIdx+i].key, key)
	})
	c.keyIdx += i
	c.valIdx = 0
}

func (c *batchCursor[K, V]) StepVal() {
	c.valIdx++
}

func (c *batchCursor[K, V]) SeekVal(val V) {
	vals := c.b.keys[c.keyIdx].values
	n := len(vals)
	i := sort.Search(n-c.valIdx, func(i int) bool {
		return !cmp.Less(vals[c.valIdx+i].val, val)
	})
	c.valIdx += i
}

func (c *batchCursor[K, V]) RewindKeys() {
	c.keyIdx = 0
	c.valIdx = 0
}

func (c *batchCursor[K, V]) RewindVals() {
	c.valIdx = 0
}
