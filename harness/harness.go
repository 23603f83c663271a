// Package harness provides small test-only support for driving arrangedb
// pipelines end to end and exercising its concurrency model, the way
// friggdb_test.go stands up a real readerWriter and drives it directly
// in-process rather than through a mock scheduler.
package harness

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunConcurrent runs fn once per worker in [0, n), concurrently, and
// returns the first error encountered (if any) after every worker has
// finished. It is friggdb.go's background-goroutine-per-task shape,
// adapted with golang.org/x/sync/errgroup so a scenario test can assert
// on the aggregate result instead of hand-rolling a WaitGroup.
func RunConcurrent(n int, fn func(worker int) error) error {
	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
