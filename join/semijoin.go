package join

import (
	"cmp"

	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

type keyedVal[K, V1 any] struct {
	key K
	v1  V1
}

// Semijoin filters A down to the keys present in B, carrying A's vals
// through unchanged — the existence-only join spec §4.5 calls out as a
// semijoin: combine a and b's presence without cross-producting values.
// P is B's fixed val type (typically arrange.BySelf's unit).
func Semijoin[K cmp.Ordered, V1 cmp.Ordered, P cmp.Ordered](
	aBefore cursor.Cursor[K, V1],
	dPresence cursor.Cursor[K, P],
	dA cursor.Cursor[K, V1],
	presenceAfter cursor.Cursor[K, P],
	emit func(key K, v1 V1, t timestamp.Timestamp, d update.Diff),
) {
	combine := func(key K, v1 V1, _ P) keyedVal[K, V1] { return keyedVal[K, V1]{key, v1} }
	forward := func(r keyedVal[K, V1], t timestamp.Timestamp, d update.Diff) { emit(r.key, r.v1, t, d) }

	JoinCore(aBefore, dPresence, combine, forward)
	JoinCore(dA, presenceAfter, combine, forward)
}
