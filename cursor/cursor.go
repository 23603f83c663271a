// Package cursor gives seekable, incremental access to a batch (or a merge
// of several) without materializing the whole thing (spec §4.2, §4.8). The
// interface shape is deliberately small: four stepping/seeking primitives
// over two nested cursors (keys, then vals), plus a way to enumerate the
// (time, diff) pairs at the current (key, val).
package cursor

import (
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// Cursor walks a sorted (key, val, [(time, diff)]) structure. KeyValid must
// be checked before Key/ValValid/Val/StepVal/SeekVal/MapTimes; ValValid must
// be checked before Val/MapTimes. A cursor positioned past the end of its
// keys (or, within a key, past the end of its vals) is simply invalid there
// — callers step or rewind to make progress, never index out of bounds.
type Cursor[K, V any] interface {
	// KeyValid reports whether the cursor is positioned at a key.
	KeyValid() bool
	// ValValid reports whether the cursor is positioned at a val within the
	// current key.
	ValValid() bool

	// Key returns the current key. Valid only if KeyValid.
	Key() K
	// Val returns the current val. Valid only if ValValid.
	Val() V

	// MapTimes invokes fn once per (time, diff) pair at the current
	// (key, val). Valid only if ValValid.
	MapTimes(fn func(t timestamp.Timestamp, d update.Diff))

	// StepKey advances to the next key, resetting the val position to the
	// first val of that key.
	StepKey()
	// SeekKey advances to the first key >= key.
	SeekKey(key K)

	// StepVal advances to the next val within the current key.
	StepVal()
	// SeekVal advances to the first val >= val within the current key.
	SeekVal(val V)

	// RewindKeys resets the cursor to its first key.
	RewindKeys()
	// RewindVals resets the cursor to the first val of the current key.
	RewindVals()
}
