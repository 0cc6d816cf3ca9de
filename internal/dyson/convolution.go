package dyson

import (
	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/linalg"
)

// mixingAt accumulates dτ⁻¹ ∫_0^β a(τ') B^M(τ' - τ_m) dτ' into acc, where
// a(τ') is a mixing row and B^M(-x) = ξ B^M(β - x).
func (e *Engine) mixingAt(acc []complex128, m, ntau, sz int, a, b matFn, xi float64) {
	in := e.in
	k := in.K()
	mm := ntau - m
	if mm >= k {
		for j := 0; j <= mm; j++ {
			linalg.MulAdd(acc, complex(in.QuadAt(mm, j), 0), a(m+j), b(j), 1, sz)
		}
	} else {
		for j := 0; j <= k; j++ {
			for l := 0; l <= k; l++ {
				linalg.MulAdd(acc, complex(in.MatCorr(mm, j, l), 0), a(ntau-j), b(l), 1, sz)
			}
		}
	}
	cx := complex(xi, 0)
	if m >= k {
		for j := 0; j <= m; j++ {
			linalg.MulAdd(acc, cx*complex(in.QuadAt(m, j), 0), a(j), b(ntau-m+j), 1, sz)
		}
	} else {
		for j := 0; j <= k; j++ {
			for l := 0; l <= k; l++ {
				linalg.MulAdd(acc, cx*complex(in.MatCorr(m, j, l), 0), a(j), b(ntau-l), 1, sz)
			}
		}
	}
}

// retConv accumulates ∫_{t_m}^{t_n} A^R(t_n,s) B^R(s,t_m) ds, skipping node
// skip (pass -1 to keep every node). It returns the weight of node n.
func (e *Engine) retConv(acc []complex128, n, m, skip int, a, b contour.Pair, s *scratch) float64 {
	sz := a.Size()
	r := e.in.Weights(m, n)
	var wn float64
	for p := r.Lo(); p <= r.Hi(); p++ {
		w := r.W(p) * e.dt
		if p == n {
			wn = w
		}
		if p == skip || w == 0 {
			continue
		}
		a.Ret(n, p, s.a)
		b.Ret(p, m, s.b)
		linalg.MulAdd(acc, complex(w, 0), s.a, s.b, 1, sz)
	}
	return wn
}

// tvRealConv accumulates ∫_0^{t_n} A^R(t_n,s) B^⌉(s,τ_m) ds skipping node skip.
func (e *Engine) tvRealConv(acc []complex128, n, m, skip int, a, b contour.Pair, s *scratch) float64 {
	sz := a.Size()
	r := e.in.Weights(0, n)
	var wn float64
	for p := r.Lo(); p <= r.Hi(); p++ {
		w := r.W(p) * e.dt
		if p == n {
			wn = w
		}
		if p == skip || w == 0 {
			continue
		}
		a.Ret(n, p, s.a)
		linalg.MulAdd(acc, complex(w, 0), s.a, b.A.TVPtr(p, m), 1, sz)
	}
	return wn
}

// tvMixConv accumulates ∫_0^β A^⌉(t_n,τ') B^M(τ'-τ_m) dτ'.
func (e *Engine) tvMixConv(acc []complex128, n, m int, a, b contour.Pair) {
	ntau := a.Ntau()
	sz := a.Size()
	tmp := make([]complex128, sz*sz)
	e.mixingAt(tmp, m, ntau, sz, func(t int) []complex128 { return a.A.TVPtr(n, t) }, b.A.MatPtr, b.Sign())
	linalg.Axpy(acc, complex(e.dtau(ntau), 0), tmp)
}

// lesRetConv accumulates ∫_0^{t_i} A^R(t_i,s) B^<(s,t_j) ds skipping node skip.
func (e *Engine) lesRetConv(acc []complex128, i, j, skip int, a, b contour.Pair, s *scratch) float64 {
	sz := a.Size()
	r := e.in.Weights(0, i)
	var wi float64
	for p := r.Lo(); p <= r.Hi(); p++ {
		w := r.W(p) * e.dt
		if p == i {
			wi = w
		}
		if p == skip || w == 0 {
			continue
		}
		a.Ret(i, p, s.a)
		b.Les(p, j, s.b)
		linalg.MulAdd(acc, complex(w, 0), s.a, s.b, 1, sz)
	}
	return wi
}

// lesSource accumulates ∫_0^{t_j} A^<(t_i,s) B^A(s,t_j) ds
// - i ∫_0^β A^⌉(t_i,τ) B^⌈(τ,t_j) dτ.
func (e *Engine) lesSource(acc []complex128, i, j int, a, b contour.Pair, s *scratch) {
	sz := a.Size()
	r := e.in.Weights(0, j)
	for p := r.Lo(); p <= r.Hi(); p++ {
		w := r.W(p) * e.dt
		if w == 0 {
			continue
		}
		a.Les(i, p, s.a)
		b.Adv(p, j, s.b)
		linalg.MulAdd(acc, complex(w, 0), s.a, s.b, 1, sz)
	}
	ntau := a.Ntau()
	dtau := e.dtau(ntau)
	for m := 0; m <= ntau; m++ {
		b.VT(m, j, s.b)
		linalg.MulAdd(acc, complex(0, -e.in.QuadAt(ntau, m)*dtau), a.A.TVPtr(i, m), s.b, 1, sz)
	}
}

// ConvolutionTimestep stores timestep n of C = A*B in c. For n <= k it reads
// A and B up to timestep k. Timestep -1 is the Matsubara convolution.
func (e *Engine) ConvolutionTimestep(n int, c *contour.HermMatrix, a, b contour.Pair) error {
	checkShape("ConvolutionTimestep", c, a.A, b.A)
	if n == -1 {
		return e.MatsubaraConvolution(c, a.A, b.A)
	}
	ntau := c.Ntau()
	sz := c.Size()
	es := sz * sz
	nret := n + 1
	ntv := ntau + 1
	return e.parallel(nret+ntv+n+1, func(idx int, s *scratch) error {
		s.ensure(es)
		acc := make([]complex128, es)
		switch {
		case idx < nret:
			e.retConv(acc, n, idx, -1, a, b, s)
			copy(c.RetPtr(n, idx), acc)
		case idx < nret+ntv:
			m := idx - nret
			e.tvRealConv(acc, n, m, -1, a, b, s)
			e.tvMixConv(acc, n, m, a, b)
			copy(c.TVPtr(n, m), acc)
		default:
			j := idx - nret - ntv
			e.lesRetConv(acc, j, n, -1, a, b, s)
			e.lesSource(acc, j, n, a, b, s)
			copy(c.LesPtr(j, n), acc)
		}
		return nil
	})
}

// Convolution fills every timestep -1..nt of c = A*B.
func (e *Engine) Convolution(c *contour.HermMatrix, a, b contour.Pair) error {
	for n := -1; n <= c.Nt(); n++ {
		if err := e.ConvolutionTimestep(n, c, a, b); err != nil {
			return err
		}
	}
	return nil
}
