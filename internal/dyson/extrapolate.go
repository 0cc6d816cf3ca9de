package dyson

import (
	"math"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/linalg"
)

// Extrapolate predicts timestep n of g from timesteps n-1-k..n-1 by
// polynomial extrapolation in the first time argument.
func (e *Engine) Extrapolate(n int, g *contour.HermMatrix) {
	k := e.K()
	if n <= k || n > g.Nt() {
		panic(&contour.IndexError{Op: "Extrapolate", Index: n, Max: g.Nt()})
	}
	sz := g.Size()
	es := sz * sz
	gp := contour.Herm(g)
	buf := make([]complex128, es)
	x := make([]complex128, es)

	extrap := func(dst []complex128, get func(p int, d []complex128)) {
		for i := range dst {
			dst[i] = 0
		}
		for l := 0; l <= k; l++ {
			get(n-1-l, buf)
			linalg.Axpy(dst, complex(e.in.Extrapolate(l), 0), buf)
		}
	}

	for m := 0; m < n; m++ {
		extrap(g.RetPtr(n, m), func(p int, d []complex128) { gp.Ret(p, m, d) })
	}
	extrap(g.RetPtr(n, n), func(p int, d []complex128) { copy(d, g.RetPtr(p, p)) })
	for m := 0; m <= g.Ntau(); m++ {
		extrap(g.TVPtr(n, m), func(p int, d []complex128) { copy(d, g.TVPtr(p, m)) })
	}
	for j := 0; j < n; j++ {
		extrap(x, func(p int, d []complex128) { gp.Les(p, j, d) })
		linalg.NegAdjoint(g.LesPtr(j, n), x, sz)
	}
	extrap(g.LesPtr(n, n), func(p int, d []complex128) { copy(d, g.LesPtr(p, p)) })
}

// CorrelationEnergy returns ½ Im Tr (Σ*G)^<(t_n,t_n). At n = -1 it returns
// the equilibrium value (ξ/2) Re Tr (Σ*G)^M(β).
func (e *Engine) CorrelationEnergy(n int, g, sigma *contour.HermMatrix) float64 {
	checkShape("CorrelationEnergy", g, sigma)
	sz := g.Size()
	es := sz * sz
	var s scratch
	s.ensure(es)
	acc := make([]complex128, es)
	if n == -1 {
		ntau := g.Ntau()
		e.matConvAt(acc, ntau, ntau, sz, sigma.MatPtr, g.MatPtr, sigma.Sign())
		tr := linalg.Trace(acc, sz) * complex(e.dtau(ntau), 0)
		return 0.5 * g.Sign() * real(tr)
	}
	sp, gp := contour.Herm(sigma), contour.Herm(g)
	e.lesRetConv(acc, n, n, -1, sp, gp, &s)
	e.lesSource(acc, n, n, sp, gp, &s)
	return 0.5 * imag(linalg.Trace(acc, sz))
}

// DensityMatrix returns ρ(t_n) of g, n = -1 for the equilibrium value.
func DensityMatrix(n int, g *contour.HermMatrix) []complex128 {
	return g.DensityMatrix(n)
}

// DistanceNorm2 returns the summed Frobenius distance of timestep n of a and b.
func DistanceNorm2(n int, a, b *contour.HermMatrix) float64 {
	return contour.DistanceNorm2(n, a.View(n), b.View(n))
}

// DistanceNorm2Range sums DistanceNorm2 over timesteps lo..hi.
func DistanceNorm2Range(lo, hi int, a, b *contour.HermMatrix) float64 {
	var d float64
	for n := lo; n <= hi; n++ {
		d += DistanceNorm2(n, a, b)
	}
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}
