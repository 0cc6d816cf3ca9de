package compute

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestForCoversRange(t *testing.T) {
	backends := []Backend{NewSerialBackend(), NewCPUBackendN(1), NewCPUBackendN(3), NewCPUBackendN(16)}
	for _, b := range backends {
		for _, n := range []int{0, 1, 7, 8, 100} {
			hits := make([]int32, n)
			err := b.For(n, func(lo, hi int) error {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("%s n=%d: %v", b.Name(), n, err)
			}
			for i, h := range hits {
				if h != 1 {
					t.Errorf("%s n=%d: index %d visited %d times", b.Name(), n, i, h)
				}
			}
		}
	}
}

func TestForReturnsError(t *testing.T) {
	errBoom := errors.New("boom")
	b := NewCPUBackendN(4)
	err := b.For(64, func(lo, hi int) error {
		if lo == 0 {
			return errBoom
		}
		return nil
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom, got %v", err)
	}
}

func TestSetBackend(t *testing.T) {
	prev := GetBackend()
	defer SetBackend(prev)

	SetBackend(NewSerialBackend())
	if GetBackend().Workers() != 1 {
		t.Errorf("expected serial backend, got %s", GetBackend().Name())
	}
}
