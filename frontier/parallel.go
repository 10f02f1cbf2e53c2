package frontier

import (
	"sync"
	"sync/atomic"
)

// forEach calls fn for every index in [0, n) on at most workers
// goroutines and returns once all calls are done. fn must not fail.
func forEach(n, workers int, fn func(i int)) {
	workers = min(workers, n)
	var (
		next atomic.Int64
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int(next.Add(1) - 1); i < n; i = int(next.Add(1) - 1) {
				fn(i)
			}
		}()
	}
	wg.Wait()
}
