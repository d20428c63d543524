// Package parallel provides the bounded data-parallel primitive the
// functional engine dispatches per-element register work through (spec.md
// §9: "expose them through a data-parallel primitive of the target
// language, respecting a single-writer-per-index invariant").
package parallel

import "sync"

// For calls fn(i) for every i in [0, n), distributing the work across at
// most workers goroutines. Each index is touched by exactly one call to
// fn, honoring the single-writer-per-index invariant the spec requires
// for per-element register arithmetic. A workers value <= 1 runs
// sequentially without spawning goroutines.
func For(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if workers <= 1 || n < workers*2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
