package dataflow

import (
	"fmt"

	"github.com/dgryski/go-farm"
)

// Exchange assigns a 64-bit routing key to a dataflow key, used to
// partition work across a fixed set of workers (spec §5's "exchange
// edges route each key consistently to one worker").
type Exchange[K any] func(key K) uint64

// HashExchange is the default Exchange: farm.Fingerprint64 over the key's
// string form, the same fingerprint function batches already use for
// bloom-filter membership (package batch), so arrangedb settles on one
// hashing library for both concerns rather than pulling in a second one.
func HashExchange[K any](key K) uint64 {
	return farm.Fingerprint64([]byte(fmt.Sprint(key)))
}

// WorkerFor routes key to one of workerCount workers using exchange.
func WorkerFor[K any](exchange Exchange[K], key K, workerCount int) int {
	if workerCount <= 0 {
		return 0
	}
	return int(exchange(key) % uint64(workerCount))
}
