package compute

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny loops on one goroutine.
const minChunk = 4

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return NewCPUBackendN(runtime.NumCPU())
}

func NewCPUBackendN(workers int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return "cpu" }
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) For(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if c.workers == 1 || n < 2*minChunk {
		return fn(0, n)
	}

	chunkSize := (n + c.workers - 1) / c.workers
	if chunkSize < minChunk {
		chunkSize = minChunk
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for start := 0; start < n; start += chunkSize {
		start := start
		end := start + chunkSize
		if end > n {
			end = n
		}
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}
