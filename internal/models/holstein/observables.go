package holstein

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kadanoff/internal/contour"
)

// Observation holds the single-time observables at one timestep. Energies
// are per site and include both spin species.
type Observation struct {
	Tstp    int
	Time    float64
	Density float64 // ρ(t) of one spin species
	Xph     float64
	Pph     float64
	XX      float64 // <X²> of the free fluctuations, i D0^<(t,t)
	Ekin    float64
	EnxMF   float64
	EnxCorr float64
	EphCl   float64
	EphQu   float64
	Etot    float64
}

// Columns names the fields of Observation in CSV order.
var Columns = []string{
	"time", "density", "Xph", "Pph", "XX",
	"Ekin", "Enx_MF", "Enx_corr", "Eph_cl", "Eph_qu", "Etot",
}

// Row returns the CSV values of o in Columns order.
func (o Observation) Row() []float64 {
	return []float64{o.Time, o.Density, o.Xph, o.Pph, o.XX,
		o.Ekin, o.EnxMF, o.EnxCorr, o.EphCl, o.EphQu, o.Etot}
}

// Observables evaluates the observables of a solved g at timesteps -1..nt.
// Σ, Δ, X and the densities are recomputed from g so the result depends on
// g alone.
func (m *Model) Observables(g *contour.HermMatrix) []Observation {
	for n := -1; n <= g.Nt(); n++ {
		m.sigmaTimestep(n, g)
		m.hybridization(n, g)
		m.updateDensity(n, g)
	}
	for n := -1; n <= g.Nt(); n++ {
		m.displacement(n)
	}

	w0 := m.p.PhononFreq
	dt := m.engine.Dt()
	out := make([]Observation, 0, g.Nt()+2)
	for n := -1; n <= g.Nt(); n++ {
		x := real(m.Xph.At(n, 0, 0))
		p := m.momentum(n)
		var xx float64
		if n == -1 {
			xx = -real(m.D0.MatPtr(0)[0])
		} else {
			xx = real(1i * m.D0.LesPtr(n, n)[0])
		}
		o := Observation{
			Tstp:    n,
			Time:    float64(max(n, 0)) * dt,
			Density: real(g.DensityMatrix(n)[0]),
			Xph:     x,
			Pph:     p,
			XX:      xx,
			Ekin:    2 * spin * m.engine.CorrelationEnergy(n, g, m.Hyb),
			EnxMF:   m.coupling(n) * x * real(m.Ntot.At(n, 0, 0)),
			EnxCorr: 2 * spin * m.engine.CorrelationEnergy(n, g, m.Sigma),
			EphCl:   w0 / 4 * (x*x + p*p),
			EphQu:   w0 / 2 * xx,
		}
		o.Etot = floats.Sum([]float64{o.Ekin, o.EnxMF, o.EnxCorr, o.EphCl, o.EphQu})
		out = append(out, o)
	}
	return out
}
