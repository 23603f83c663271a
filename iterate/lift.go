// Package iterate implements nested (outer, inner) scopes for fixed-point
// computation (spec §4.7): Enter lifts an outer-scope update into the
// nested scope at inner time zero, a Variable feeds successive inner
// rounds back into itself until no new output appears, and Leave projects
// nested-scope output back down to the outer timestamp.
//
// The nested timestamp itself (timestamp.Pair) is grounded in
// sfurman3-chatroom's vector-clock comparison idiom (component-wise
// LessEqual/Join over an (outer, logical-counter) pair); this package is
// the consumer that actually drives a Pair's Inner component forward.
package iterate

import (
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

// Enter lifts a slice of outer-scope updates into the nested scope, each
// at inner time zero.
func Enter[K, V any](in []update.Update[K, V]) []update.Update[K, V] {
	out := make([]update.Update[K, V], len(in))
	for i, u := range in {
		out[i] = update.Update[K, V]{
			Key:  u.Key,
			Val:  u.Val,
			Diff: u.Diff,
			Time: timestamp.Pair{Outer: u.Time, Inner: 0},
		}
	}
	return out
}

// Leave projects nested-scope updates back to the outer timestamp,
// dropping the inner coordinate. Every update's Time must be a
// timestamp.Pair (i.e. must actually have come from this scope).
func Leave[K, V any](in []update.Update[K, V]) []update.Update[K, V] {
	out := make([]update.Update[K, V], len(in))
	for i, u := range in {
		out[i] = update.Update[K, V]{
			Key:  u.Key,
			Val:  u.Val,
			Diff: u.Diff,
			Time: u.Time.(timestamp.Pair).Project(),
		}
	}
	return out
}
