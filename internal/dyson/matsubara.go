package dyson

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/linalg"
)

type matFn func(m int) []complex128

// matConvAt accumulates dτ⁻¹ ∫_0^β A(τ_m - τ') B(τ') dτ' into acc, with
// A(-x) = ξ A(β - x).
func (e *Engine) matConvAt(acc []complex128, m, ntau, sz int, a, b matFn, xi float64) {
	in := e.in
	k := in.K()
	for i := range acc {
		acc[i] = 0
	}
	if m >= k {
		for j := 0; j <= m; j++ {
			linalg.MulAdd(acc, complex(in.QuadAt(m, j), 0), a(m-j), b(j), 1, sz)
		}
	} else {
		for j := 0; j <= k; j++ {
			for l := 0; l <= k; l++ {
				linalg.MulAdd(acc, complex(in.MatCorr(m, j, l), 0), a(j), b(l), 1, sz)
			}
		}
	}
	mm := ntau - m
	cx := complex(xi, 0)
	if mm >= k {
		for j := 0; j <= mm; j++ {
			linalg.MulAdd(acc, cx*complex(in.QuadAt(mm, j), 0), a(ntau-j), b(m+j), 1, sz)
		}
	} else {
		for j := 0; j <= k; j++ {
			for l := 0; l <= k; l++ {
				linalg.MulAdd(acc, cx*complex(in.MatCorr(mm, j, l), 0), a(ntau-j), b(ntau-l), 1, sz)
			}
		}
	}
}

// MatsubaraConvolution stores C^M = A^M * B^M in c.
func (e *Engine) MatsubaraConvolution(c, a, b *contour.HermMatrix) error {
	checkShape("MatsubaraConvolution", c, a, b)
	ntau := c.Ntau()
	sz := c.Size()
	if ntau < e.K() {
		panic(&contour.IndexError{Op: "MatsubaraConvolution", Index: ntau, Max: e.K()})
	}
	w := complex(e.dtau(ntau), 0)
	return e.parallel(ntau+1, func(m int, s *scratch) error {
		s.ensure(sz * sz)
		e.matConvAt(s.acc, m, ntau, sz, a.MatPtr, b.MatPtr, a.Sign())
		dst := c.MatPtr(m)
		for i := range dst {
			dst[i] = w * s.acc[i]
		}
		return nil
	})
}

// DysonMat solves (-∂_τ - H(-1) + μ) G^M - Σ^M * G^M = δ for G^M.
func (e *Engine) DysonMat(g *contour.HermMatrix, mu float64, h *contour.Function, sigma *contour.HermMatrix, method Method) error {
	checkShape("DysonMat", g, sigma)
	g0 := contour.NewHermMatrix(-1, g.Ntau(), g.Size(), g.Statistics())
	if err := GreenFromH(g0, mu, h.Ptr(-1), e.beta, e.dt); err != nil {
		return err
	}
	f := contour.NewHermMatrix(-1, g.Ntau(), g.Size(), g.Statistics())
	if err := e.MatsubaraConvolution(f, g0, sigma); err != nil {
		return err
	}
	f.SmulTimestep(-1, -1)
	return e.VIE2Mat(g, f, g0, method)
}

// VIE2Mat solves G^M + F^M * G^M = Q^M, starting from the current content
// of g.
func (e *Engine) VIE2Mat(g, f, q *contour.HermMatrix, method Method) error {
	checkShape("VIE2Mat", g, f, q)
	var err error
	switch method {
	case Fixpoint:
		err = e.matFixpoint(g, f, q)
	case Spectral:
		err = e.matSpectral(g, f, q)
	default:
		return fmt.Errorf("dyson: unknown method %v", method)
	}
	if err != nil {
		return fmt.Errorf("matsubara %v: %w", method, err)
	}
	return nil
}

// matResidual stores r = Q - G - F*G and returns max |r|.
func (e *Engine) matResidual(r []complex128, g, f, q *contour.HermMatrix) (float64, error) {
	ntau := g.Ntau()
	sz := g.Size()
	es := sz * sz
	w := complex(e.dtau(ntau), 0)
	norms := make([]float64, ntau+1)
	err := e.parallel(ntau+1, func(m int, s *scratch) error {
		s.ensure(es)
		e.matConvAt(s.acc, m, ntau, sz, f.MatPtr, g.MatPtr, f.Sign())
		qm, gm := q.MatPtr(m), g.MatPtr(m)
		dst := r[m*es : (m+1)*es]
		var mx float64
		for i := range dst {
			dst[i] = qm[i] - gm[i] - w*s.acc[i]
			mx = math.Max(mx, cmplx.Abs(dst[i]))
		}
		norms[m] = mx
		return nil
	})
	var mx float64
	for _, v := range norms {
		mx = math.Max(mx, v)
	}
	return mx, err
}

// matApply stores z = d + F*d.
func (e *Engine) matApply(z, d []complex128, f *contour.HermMatrix) error {
	ntau := f.Ntau()
	sz := f.Size()
	es := sz * sz
	w := complex(e.dtau(ntau), 0)
	dm := func(m int) []complex128 { return d[m*es : (m+1)*es] }
	return e.parallel(ntau+1, func(m int, s *scratch) error {
		s.ensure(es)
		e.matConvAt(s.acc, m, ntau, sz, f.MatPtr, dm, f.Sign())
		dst := z[m*es : (m+1)*es]
		for i := range dst {
			dst[i] = d[m*es+i] + w*s.acc[i]
		}
		return nil
	})
}

// matFixpoint relaxes g along the preconditioned residual with the step
// length that minimises the new residual, so the residual never grows.
func (e *Engine) matFixpoint(g, f, q *contour.HermMatrix) error {
	ntau := g.Ntau()
	es := g.ElementSize()
	p, err := e.newMatPrecond(f)
	if err != nil {
		return err
	}
	r := make([]complex128, (ntau+1)*es)
	d := make([]complex128, (ntau+1)*es)
	z := make([]complex128, (ntau+1)*es)
	var res float64
	for it := 0; it < e.innerIter; it++ {
		res, err = e.matResidual(r, g, f, q)
		if err != nil {
			return err
		}
		if res < e.innerTol {
			return nil
		}
		p.apply(d, r)
		if err := e.matApply(z, d, f); err != nil {
			return err
		}
		var zr complex128
		var zz float64
		for i := range z {
			zr += cmplx.Conj(z[i]) * r[i]
			zz += real(z[i])*real(z[i]) + imag(z[i])*imag(z[i])
		}
		if zz == 0 {
			break
		}
		alpha := zr / complex(zz, 0)
		for m := 0; m <= ntau; m++ {
			linalg.Axpy(g.MatPtr(m), alpha, d[m*es:(m+1)*es])
		}
	}
	return &InnerError{Residual: res, Iterations: e.innerIter}
}

// matSpectral is a defect correction with the full preconditioned residual
// as the update.
func (e *Engine) matSpectral(g, f, q *contour.HermMatrix) error {
	ntau := g.Ntau()
	es := g.ElementSize()
	p, err := e.newMatPrecond(f)
	if err != nil {
		return err
	}
	r := make([]complex128, (ntau+1)*es)
	d := make([]complex128, (ntau+1)*es)
	var res float64
	for it := 0; it < e.innerIter; it++ {
		res, err = e.matResidual(r, g, f, q)
		if err != nil {
			return err
		}
		if res < e.innerTol {
			return nil
		}
		p.apply(d, r)
		for m := 0; m <= ntau; m++ {
			linalg.Axpy(g.MatPtr(m), 1, d[m*es:(m+1)*es])
		}
	}
	return &InnerError{Residual: res, Iterations: e.innerIter}
}

// matPrecond inverts I + F* under the periodic trapezoid rule, which is
// diagonal in Matsubara frequency. Fermionic functions are twisted by
// exp(-iπm/ntau) to make the cyclic convolution periodic.
type matPrecond struct {
	ntau, sz int
	xi       float64
	twist    []complex128
	pinv     []complex128 // per-frequency (I + dτ F̂_q)^{-1}
}

func (e *Engine) newMatPrecond(f *contour.HermMatrix) (*matPrecond, error) {
	ntau := f.Ntau()
	sz := f.Size()
	es := sz * sz
	xi := f.Sign()
	dtau := e.dtau(ntau)

	twist := make([]complex128, ntau)
	for m := range twist {
		if xi < 0 {
			twist[m] = cmplx.Exp(complex(0, -math.Pi*float64(m)/float64(ntau)))
		} else {
			twist[m] = 1
		}
	}

	fs := make([]complex128, ntau*es)
	for p := 0; p < ntau; p++ {
		fp := f.MatPtr(p)
		for i := 0; i < es; i++ {
			v := fp[i]
			if p == 0 {
				v = 0.5 * (fp[i] + complex(xi, 0)*f.MatPtr(ntau)[i])
			}
			fs[p*es+i] = v * twist[p]
		}
	}
	fhat := elementFFT(fs, ntau, es, false)
	pinv := make([]complex128, ntau*es)
	id := linalg.Identity(sz)
	pm := make([]complex128, es)
	for q := 0; q < ntau; q++ {
		for i := range pm {
			pm[i] = id[i] + complex(dtau, 0)*fhat[q*es+i]
		}
		if err := linalg.SolveInto(pinv[q*es:(q+1)*es], pm, id, sz); err != nil {
			return nil, err
		}
	}
	return &matPrecond{ntau: ntau, sz: sz, xi: xi, twist: twist, pinv: pinv}, nil
}

// apply stores d = P⁻¹ r. The endpoint τ = β follows from the boundary
// condition G(β) = ξ G(0) plus the jump of the residual.
func (p *matPrecond) apply(d, r []complex128) {
	ntau, sz := p.ntau, p.sz
	es := sz * sz
	rt := make([]complex128, ntau*es)
	for m := 0; m < ntau; m++ {
		for i := 0; i < es; i++ {
			rt[m*es+i] = r[m*es+i] * p.twist[m]
		}
	}
	rhat := elementFFT(rt, ntau, es, false)
	dhat := make([]complex128, ntau*es)
	for q := 0; q < ntau; q++ {
		linalg.MulAdd(dhat[q*es:(q+1)*es], 1, p.pinv[q*es:(q+1)*es], rhat[q*es:(q+1)*es], 0, sz)
	}
	delta := elementFFT(dhat, ntau, es, true)
	for m := 0; m < ntau; m++ {
		for i := 0; i < es; i++ {
			d[m*es+i] = delta[m*es+i] / p.twist[m]
		}
	}
	cx := complex(p.xi, 0)
	for i := 0; i < es; i++ {
		d[ntau*es+i] = cx*d[i] + (r[ntau*es+i] - cx*r[i])
	}
}

// elementFFT transforms each matrix element of a length-n sequence of
// es-element matrices.
func elementFFT(x []complex128, n, es int, inverse bool) []complex128 {
	out := make([]complex128, n*es)
	seq := make([]complex128, n)
	for i := 0; i < es; i++ {
		for m := 0; m < n; m++ {
			seq[m] = x[m*es+i]
		}
		var y []complex128
		if inverse {
			y = fft.IFFT(seq)
		} else {
			y = fft.FFT(seq)
		}
		for m := 0; m < n; m++ {
			out[m*es+i] = y[m]
		}
	}
	return out
}
