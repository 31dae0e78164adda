// Package parallel runs independent iterations of a layer kernel on several goroutines.
//
// Only work inside a single layer is split this way (batch items, output
// planes). Layers themselves always run one after another in graph order.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how a kernel loop is split.
type Config struct {
	Workers  int // Upper bound on goroutines; <= 1 runs inline.
	MinItems int // Loops shorter than this run inline.
}

// DefaultConfig returns one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinItems: 2,
	}
}

// Sequential returns a Config that never spawns goroutines.
func Sequential() Config {
	return Config{Workers: 1}
}

// For executes f(i) for i in [0, n). Every index is visited exactly once and
// For returns only after all calls completed. f must not write memory that
// another index writes.
func For(n int, cfg Config, f func(i int)) {
	if cfg.Workers <= 1 || n < cfg.MinItems || n < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	workers := min(cfg.Workers, n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForPlanes iterates the batch x planes grid, the usual unit of work for
// convolution and pooling kernels.
func ForPlanes(batch, planes int, cfg Config, f func(b, p int)) {
	For(batch*planes, cfg, func(k int) {
		f(k/planes, k%planes)
	})
}
