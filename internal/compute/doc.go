// Package compute provides the parallel-for backends used by the contour
// kernels.
//
// The package selects a backend at startup:
//
//   - CPU: chunked parallel loop over a fixed number of workers
//   - Serial: the same loop on the calling goroutine
//
// # Usage
//
// A kernel hands the backend an index range whose iterations write disjoint
// output regions:
//
//	backend := compute.GetBackend()
//	err := backend.For(n+1, func(lo, hi int) error {
//		for m := lo; m < hi; m++ {
//			// column m
//		}
//		return nil
//	})
//
// The first error returned by a chunk is returned by For; the remaining
// chunks still run to completion.
package compute
