package dyson

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/linalg"
)

// occupationTau returns f(e) exp(e τ) without overflow, f the Fermi or Bose
// function selected by xi.
func occupationTau(xi, beta, e, tau float64) float64 {
	if xi < 0 {
		if e <= 0 {
			return math.Exp(e*tau) / (math.Exp(beta*e) + 1)
		}
		return math.Exp(e*(tau-beta)) / (1 + math.Exp(-beta*e))
	}
	return math.Exp(e*(tau-beta)) / -math.Expm1(-beta*e)
}

// matsubaraFree returns the free G^M(τ) = -exp(-e τ)(1 + ξ f(e)).
func matsubaraFree(xi, beta, e, tau float64) float64 {
	if xi < 0 {
		if e >= 0 {
			return -math.Exp(-e*tau) / (1 + math.Exp(-beta*e))
		}
		return -math.Exp(e*(beta-tau)) / (math.Exp(beta*e) + 1)
	}
	return -math.Exp(-e*tau) / -math.Expm1(-beta*e)
}

// GreenFromH fills G with the free Green's function of the constant
// Hamiltonian h (size×size) at chemical potential mu.
func GreenFromH(g *contour.HermMatrix, mu float64, h []complex128, beta, dt float64) error {
	n := g.Size()
	eps := make([]complex128, n*n)
	copy(eps, h[:n*n])
	for i := 0; i < n; i++ {
		eps[i*n+i] -= complex(mu, 0)
	}
	spec, err := linalg.NewHermitianSpectrum(eps, n)
	if err != nil {
		return fmt.Errorf("free green's function: %w", err)
	}
	xi := g.Sign()
	ntau := g.Ntau()
	dtau := beta / float64(ntau)

	for m := 0; m <= ntau; m++ {
		tau := float64(m) * dtau
		val := spec.Apply(func(e float64) float64 { return matsubaraFree(xi, beta, e, tau) })
		g.SetMat(m, val)
	}
	if g.Nt() < 0 {
		return nil
	}

	// U(t) and f exp(-i e t) on the grid of time differences
	nt := g.Nt()
	ret := make([][]complex128, nt+1)
	les := make([][]complex128, 2*nt+1)
	for d := 0; d <= nt; d++ {
		t := float64(d) * dt
		ret[d] = spec.ApplyComplex(func(e float64) complex128 {
			return -1i * cmplx.Exp(complex(0, -e*t))
		})
	}
	for d := -nt; d <= nt; d++ {
		t := float64(d) * dt
		les[d+nt] = spec.ApplyComplex(func(e float64) complex128 {
			return complex(0, -xi) * complex(occupationTau(xi, beta, e, 0), 0) * cmplx.Exp(complex(0, -e*t))
		})
	}
	for i := 0; i <= nt; i++ {
		for j := 0; j <= i; j++ {
			g.SetRet(i, j, ret[i-j])
			g.SetLes(j, i, les[j-i+nt])
		}
		t := float64(i) * dt
		for m := 0; m <= ntau; m++ {
			tau := float64(m) * dtau
			g.SetTV(i, m, spec.ApplyComplex(func(e float64) complex128 {
				return complex(0, -xi) * complex(occupationTau(xi, beta, e, tau), 0) * cmplx.Exp(complex(0, -e*t))
			}))
		}
	}
	return nil
}

// GreenSinglePoleXX fills the 1×1 bosonic d with the free propagator
// -i<T_C X(t) X(t')> of X = b + b^† for a mode of frequency w0.
func GreenSinglePoleXX(d *contour.HermMatrix, w0, beta, dt float64) {
	if d.Size() != 1 || d.Statistics() != contour.Boson {
		panic(&contour.IndexError{Op: "GreenSinglePoleXX", Index: d.Size(), Max: 1})
	}
	nb := 1 / math.Expm1(beta*w0)
	ntau := d.Ntau()
	dtau := beta / float64(ntau)

	for m := 0; m <= ntau; m++ {
		tau := float64(m) * dtau
		// (1+nb) e^{-w0 τ} + nb e^{w0 τ}, written against overflow
		v := -(math.Exp(-w0*tau) + math.Exp(-w0*(beta-tau))) / -math.Expm1(-beta*w0)
		d.MatPtr(m)[0] = complex(v, 0)
	}
	for i := 0; i <= d.Nt(); i++ {
		for j := 0; j <= i; j++ {
			s := w0 * float64(i-j) * dt
			d.RetPtr(i, j)[0] = complex(-2*math.Sin(s), 0)
			// D^<(t_j, t_i), Δ = t_j - t_i = -s
			d.LesPtr(j, i)[0] = -1i * (complex(nb, 0)*cmplx.Exp(complex(0, s)) + complex(1+nb, 0)*cmplx.Exp(complex(0, -s)))
		}
		wt := w0 * float64(i) * dt
		for m := 0; m <= ntau; m++ {
			tau := float64(m) * dtau
			a := math.Exp(-w0*tau) / -math.Expm1(-beta*w0)
			b := math.Exp(-w0*(beta-tau)) / -math.Expm1(-beta*w0)
			d.TVPtr(i, m)[0] = -1i * (complex(a, 0)*cmplx.Exp(complex(0, wt)) + complex(b, 0)*cmplx.Exp(complex(0, -wt)))
		}
	}
}

// SetTkFromMat fills timesteps 0..k of g from its Matsubara component, the
// starting guess for the bootstrap.
func SetTkFromMat(g *contour.HermMatrix, k int) {
	sz := g.Size()
	ntau := g.Ntau()
	xi := complex(0, g.Sign())
	id := linalg.Identity(sz)
	tv0 := make([]complex128, sz*sz)
	les0 := make([]complex128, sz*sz)
	for n := 0; n <= k && n <= g.Nt(); n++ {
		for m := 0; m <= ntau; m++ {
			src := g.MatPtr(ntau - m)
			dst := g.TVPtr(n, m)
			for i := range dst {
				dst[i] = xi * src[i]
			}
		}
		for m := 0; m <= n; m++ {
			r := g.RetPtr(n, m)
			for i := range r {
				r[i] = -1i * id[i]
			}
		}
	}
	copy(tv0, g.TVPtr(0, 0))
	linalg.NegAdjoint(les0, tv0, sz)
	for n := 0; n <= k && n <= g.Nt(); n++ {
		for j := 0; j <= n; j++ {
			g.SetLes(j, n, les0)
		}
	}
}
