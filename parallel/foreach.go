// Package parallel contains the bounded fan-out helpers used by the encoder
// and the evaluator.
package parallel

import "sync"

// ForEach calls body for every integer in [0, length) using at most limit
// goroutines. The range is cut into contiguous chunks, one per goroutine, so
// body(i) for a given i always runs exactly once. Callers that write to index
// i of a preallocated slice get deterministic output regardless of limit.
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}
	if limit == 1 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}

	chunk := (length + limit - 1) / limit
	var wg sync.WaitGroup
	for start := 0; start < length; start += chunk {
		end := start + chunk
		if end > length {
			end = length
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				body(i)
			}
		}(start, end)
	}
	wg.Wait()
}
