package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNotHermitian is returned when the eigensolver cannot factorize the input.
var ErrNotHermitian = errors.New("linalg: hermitian eigendecomposition failed")

// HermitianSpectrum is the eigendecomposition of the real embedding of a
// Hermitian matrix. Every eigenvalue of H appears twice in the embedding.
type HermitianSpectrum struct {
	n      int
	values []float64
	vecs   *mat.Dense
}

// NewHermitianSpectrum factorizes the n×n Hermitian matrix h.
func NewHermitianSpectrum(h []complex128, n int) (*HermitianSpectrum, error) {
	sym := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a := 0.5 * (real(h[i*n+j]) + real(h[j*n+i]))
			b := 0.5 * (imag(h[i*n+j]) - imag(h[j*n+i]))
			sym.SetSym(i, j, a)
			sym.SetSym(n+i, n+j, a)
			sym.SetSym(i, n+j, -b)
			sym.SetSym(j, n+i, b)
		}
	}
	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return nil, ErrNotHermitian
	}
	vecs := mat.NewDense(2*n, 2*n, nil)
	es.VectorsTo(vecs)
	return &HermitianSpectrum{n: n, values: es.Values(nil), vecs: vecs}, nil
}

// Eigenvalues returns the eigenvalues of H in ascending order.
func (s *HermitianSpectrum) Eigenvalues() []float64 {
	out := make([]float64, 0, s.n)
	for i := 0; i < len(s.values); i += 2 {
		out = append(out, s.values[i])
	}
	return out
}

// Apply returns f(H) for a real function f.
func (s *HermitianSpectrum) Apply(f func(float64) float64) []complex128 {
	n := s.n
	fv := make([]float64, 2*n)
	for k, v := range s.values {
		fv[k] = f(v)
	}
	out := make([]complex128, n*n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			var re, im float64
			for k := 0; k < 2*n; k++ {
				vb := s.vecs.At(b, k) * fv[k]
				re += s.vecs.At(a, k) * vb
				im += s.vecs.At(n+a, k) * vb
			}
			out[a*n+b] = complex(re, im)
		}
	}
	return out
}

// Propagator returns exp(-i H t).
func (s *HermitianSpectrum) Propagator(t float64) []complex128 {
	c := s.Apply(func(e float64) float64 { return math.Cos(e * t) })
	sn := s.Apply(func(e float64) float64 { return math.Sin(e * t) })
	for i := range c {
		c[i] -= 1i * sn[i]
	}
	return c
}

// ApplyComplex returns f(H) for a complex valued f.
func (s *HermitianSpectrum) ApplyComplex(f func(float64) complex128) []complex128 {
	re := s.Apply(func(e float64) float64 { return real(f(e)) })
	im := s.Apply(func(e float64) float64 { return imag(f(e)) })
	for i := range re {
		re[i] += 1i * im[i]
	}
	return re
}
