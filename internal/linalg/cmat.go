// Package linalg holds the small dense complex matrix kernels shared by the
// contour storage and the Dyson solvers.
//
// Matrices are square, row-major []complex128 of side n. Products go through
// gonum's cblas128; linear solves and Hermitian matrix functions go through
// gonum/mat on the real embedding
//
//	A + iB  ->  [[A, -B], [B, A]]
//
// which keeps every complex solve on gonum's real LAPACK path.
package linalg

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

func general(n int, data []complex128) cblas128.General {
	return cblas128.General{Rows: n, Cols: n, Stride: n, Data: data[:n*n]}
}

// MulAdd computes c = beta*c + alpha*a*b.
func MulAdd(c []complex128, alpha complex128, a, b []complex128, beta complex128, n int) {
	if n == 1 {
		c[0] = beta*c[0] + alpha*a[0]*b[0]
		return
	}
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, alpha, general(n, a), general(n, b), beta, general(n, c))
}

// MulAddH computes c = beta*c + alpha*a*b^†.
func MulAddH(c []complex128, alpha complex128, a, b []complex128, beta complex128, n int) {
	if n == 1 {
		c[0] = beta*c[0] + alpha*a[0]*cmplx.Conj(b[0])
		return
	}
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, alpha, general(n, a), general(n, b), beta, general(n, c))
}

// HMulAdd computes c = beta*c + alpha*a^†*b.
func HMulAdd(c []complex128, alpha complex128, a, b []complex128, beta complex128, n int) {
	if n == 1 {
		c[0] = beta*c[0] + alpha*cmplx.Conj(a[0])*b[0]
		return
	}
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, alpha, general(n, a), general(n, b), beta, general(n, c))
}

// Mul returns a*b in a fresh slice.
func Mul(a, b []complex128, n int) []complex128 {
	c := make([]complex128, n*n)
	MulAdd(c, 1, a, b, 0, n)
	return c
}

// Adjoint writes src^† into dst. dst and src must not alias unless n == 1.
func Adjoint(dst, src []complex128, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst[i*n+j] = cmplx.Conj(src[j*n+i])
		}
	}
}

// NegAdjoint writes -src^† into dst.
func NegAdjoint(dst, src []complex128, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst[i*n+j] = -cmplx.Conj(src[j*n+i])
		}
	}
}

// Axpy computes y += alpha*x over the first len(y) entries.
func Axpy(y []complex128, alpha complex128, x []complex128) {
	for i := range y {
		y[i] += alpha * x[i]
	}
}

// Scale multiplies every entry of x by alpha.
func Scale(x []complex128, alpha complex128) {
	for i := range x {
		x[i] *= alpha
	}
}

// Identity returns the n×n identity.
func Identity(n int) []complex128 {
	id := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		id[i*n+i] = 1
	}
	return id
}

// Trace returns the matrix trace.
func Trace(a []complex128, n int) complex128 {
	var tr complex128
	for i := 0; i < n; i++ {
		tr += a[i*n+i]
	}
	return tr
}

// FrobeniusDistance returns ||a-b||_F over len(a) entries.
func FrobeniusDistance(a, b []complex128) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += real(d)*real(d) + imag(d)*imag(d)
	}
	return math.Sqrt(s)
}
