package holstein

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/san-kum/kadanoff/internal/contour"
)

// quadNodes is the Gauss-Legendre order used for the band integral. The
// substituted integrand is smooth, so this is exact to machine precision.
const quadNodes = 96

// SemicircularGuess fills the Matsubara component of the fermionic g with
// the non-interacting Bethe-lattice solution of half bandwidth d at μ = 0,
//
//	G^M(τ) = -∫ ρ(ε) e^{-τε} / (1 + e^{-βε}) dε,  ρ(ε) = 2/(π d²) √(d² - ε²).
//
// Only timestep -1 is written.
func SemicircularGuess(g *contour.HermMatrix, d, beta float64) {
	ntau := g.Ntau()
	dtau := beta / float64(ntau)
	sz := g.Size()
	for m := 0; m <= ntau; m++ {
		tau := float64(m) * dtau
		// ε = d sin φ turns the density into (2/π) cos²φ dφ.
		v := quad.Fixed(func(phi float64) float64 {
			c := math.Cos(phi)
			return 2 / math.Pi * c * c * fermionTau(d*math.Sin(phi), tau, beta)
		}, -math.Pi/2, math.Pi/2, quadNodes, nil, 0)
		dst := g.MatPtr(m)
		for i := range dst {
			dst[i] = 0
		}
		for i := 0; i < sz; i++ {
			dst[i*sz+i] = complex(-v, 0)
		}
	}
}

// fermionTau returns e^{-τε}/(1+e^{-βε}) without overflow.
func fermionTau(e, tau, beta float64) float64 {
	if e >= 0 {
		return math.Exp(-tau*e) / (1 + math.Exp(-beta*e))
	}
	return math.Exp((beta-tau)*e) / (math.Exp(beta*e) + 1)
}
