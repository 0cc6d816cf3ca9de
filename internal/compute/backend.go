package compute

import (
	"os"
	"strconv"
)

type Backend interface {
	Name() string
	Workers() int
	// For runs fn over [0, n) split into contiguous chunks.
	For(n int, fn func(lo, hi int) error) error
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend honours KADANOFF_WORKERS (1 selects the serial backend).
func AutoSelectBackend() Backend {
	if v := os.Getenv("KADANOFF_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n <= 1 {
				return NewSerialBackend()
			}
			return NewCPUBackendN(n)
		}
	}
	return NewCPUBackend()
}

type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (s *SerialBackend) Name() string { return "serial" }
func (s *SerialBackend) Workers() int { return 1 }

func (s *SerialBackend) For(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	return fn(0, n)
}
