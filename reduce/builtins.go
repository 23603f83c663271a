package reduce

import "cmp"

// Count returns a Reducer that replaces each key's group with its total
// multiplicity (spec §4.6's canonical reduce example).
func Count[K cmp.Ordered, VIn cmp.Ordered]() *Reducer[K, VIn, int64] {
	return New[K, VIn, int64](func(_ K, group []Weighted[VIn]) []int64 {
		var total int64
		for _, w := range group {
			total += w.Diff
		}
		if total == 0 {
			return nil
		}
		return []int64{total}
	})
}

// Distinct returns a Reducer that replaces each key's group with its set
// of distinct present values (diff collapsed to 1).
func Distinct[K cmp.Ordered, VIn cmp.Ordered]() *Reducer[K, VIn, VIn] {
	return New[K, VIn, VIn](func(_ K, group []Weighted[VIn]) []VIn {
		out := make([]VIn, 0, len(group))
		for _, w := range group {
			if w.Diff > 0 {
				out = append(out, w.Val)
			}
		}
		return out
	})
}

// Threshold returns a Reducer that keeps a key's group only if its total
// multiplicity satisfies keep, emitting the group's distinct values
// unchanged when it does and nothing otherwise.
func Threshold[K cmp.Ordered, VIn cmp.Ordered](keep func(total int64) bool) *Reducer[K, VIn, VIn] {
	return New[K, VIn, VIn](func(_ K, group []Weighted[VIn]) []VIn {
		var total int64
		for _, w := range group {
			total += w.Diff
		}
		if !keep(total) {
			return nil
		}
		out := make([]VIn, 0, len(group))
		for _, w := range group {
			if w.Diff > 0 {
				out = append(out, w.Val)
			}
		}
		return out
	})
}
