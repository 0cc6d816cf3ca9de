package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a linear system cannot be solved.
var ErrSingular = errors.New("linalg: singular system")

// Solve returns X with A*X = B for a dense complex A (n×n, row-major) and
// right-hand side B (n×nrhs, row-major).
func Solve(a []complex128, n int, b []complex128, nrhs int) ([]complex128, error) {
	m := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a[i*n+j]
			m.Set(i, j, real(v))
			m.Set(i, n+j, -imag(v))
			m.Set(n+i, j, imag(v))
			m.Set(n+i, n+j, real(v))
		}
	}
	rhs := mat.NewDense(2*n, nrhs, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < nrhs; j++ {
			v := b[i*nrhs+j]
			rhs.Set(i, j, real(v))
			rhs.Set(n+i, j, imag(v))
		}
	}

	var x mat.Dense
	if err := x.Solve(m, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}

	out := make([]complex128, n*nrhs)
	for i := 0; i < n; i++ {
		for j := 0; j < nrhs; j++ {
			out[i*nrhs+j] = complex(x.At(i, j), x.At(n+i, j))
		}
	}
	return out, nil
}

// SolveInto solves A*X = B for square n×n matrices and writes X into dst.
func SolveInto(dst, a, b []complex128, n int) error {
	if n == 1 {
		if a[0] == 0 {
			return ErrSingular
		}
		dst[0] = b[0] / a[0]
		return nil
	}
	x, err := Solve(a, n, b, n)
	if err != nil {
		return err
	}
	copy(dst, x)
	return nil
}
