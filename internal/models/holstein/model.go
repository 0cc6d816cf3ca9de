package holstein

import (
	"fmt"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/dyson"
	"github.com/san-kum/kadanoff/internal/solver"
)

// spin is the number of spin species summed into densities and energies.
const spin = 2

// Model holds the Holstein self-energy, the Bethe hybridization and the
// classical phonon coordinate. It implements solver.SelfEnergy,
// solver.StartEvaluator and solver.SelfConsistency.
type Model struct {
	p      Params
	engine *dyson.Engine
	nt     int
	ntau   int

	J    *contour.Function // hopping J(t)
	Gep  *contour.Function // coupling g(t)
	H    *contour.Function // one-body level h(t)
	Xph  *contour.Function
	Ntot *contour.Function

	D0    *contour.HermMatrix
	Sigma *contour.HermMatrix
	Hyb   *contour.HermMatrix

	muChem float64
}

var (
	_ solver.SelfEnergy      = (*Model)(nil)
	_ solver.StartEvaluator  = (*Model)(nil)
	_ solver.SelfConsistency = (*Model)(nil)
)

// New allocates a model on an nt × ntau contour.
func New(p Params, engine *dyson.Engine, nt, ntau int) (*Model, error) {
	if err := p.Validate(nt); err != nil {
		return nil, err
	}
	if ntau < engine.K() {
		return nil, fmt.Errorf("%w: ntau=%d below solve order %d", ErrInvalidParams, ntau, engine.K())
	}
	m := &Model{
		p:      p,
		engine: engine,
		nt:     nt,
		ntau:   ntau,
		J:      contour.NewFunction(max(nt, 0), 1, 1),
		Gep:    contour.NewFunction(max(nt, 0), 1, 1),
		H:      contour.NewFunction(max(nt, 0), 1, 1),
		Xph:    contour.NewFunction(max(nt, 0), 1, 1),
		Ntot:   contour.NewFunction(max(nt, 0), 1, 1),
		D0:     contour.NewHermMatrix(nt, ntau, 1, contour.Boson),
		Sigma:  contour.NewHermMatrix(nt, ntau, 1, contour.Fermion),
		Hyb:    contour.NewHermMatrix(nt, ntau, 1, contour.Fermion),
	}
	for t := -1; t <= nt; t++ {
		m.J.SetScalar(t, complex(perturbed(p.Hopping, p.DHopping, t), 0))
		m.Gep.SetScalar(t, complex(perturbed(p.Coupling, p.DCoupling, t), 0))
	}
	m.H.SetConstant([]complex128{complex(-p.MuMF, 0)})
	dyson.GreenSinglePoleXX(m.D0, p.PhononFreq, engine.Beta(), engine.Dt())
	return m, nil
}

func (m *Model) Params() Params { return m.p }

// MuChem returns the chemical potential fixed by the converged equilibrium,
// μ = μ_MF + X_eq g.
func (m *Model) MuChem() float64 { return m.muChem }

func (m *Model) coupling(t int) float64 { return real(m.Gep.At(t, 0, 0)) }

// NewProblem allocates G with a semicircular equilibrium guess and returns
// the solver problem bound to this model.
func (m *Model) NewProblem() (*solver.Problem, error) {
	g := contour.NewHermMatrix(m.nt, m.ntau, 1, contour.Fermion)
	SemicircularGuess(g, 2*m.p.Hopping, m.engine.Beta())
	if err := m.React(-1, g); err != nil {
		return nil, err
	}
	return &solver.Problem{
		G:          g,
		H:          m.H,
		Kernel:     contour.NewHermMatrix(m.nt, m.ntau, 1, contour.Fermion),
		Predict:    []*contour.HermMatrix{m.Hyb},
		SelfEnergy: m,
	}, nil
}

// Evaluate fills Σ, the mean-field level and the kernel Δ + Σ at tstp.
// For 0 <= tstp <= k the phonon integral also reads densities up to k;
// use EvaluateStart there.
func (m *Model) Evaluate(tstp int, g *contour.HermMatrix, h *contour.Function, kernel *contour.HermMatrix) error {
	m.sigmaTimestep(tstp, g)
	if tstp == -1 {
		h.SetScalar(-1, complex(-m.p.MuMF, 0))
	} else {
		m.updateDensity(tstp, g)
		m.displacement(tstp)
		m.meanField(tstp, h)
	}
	m.kernel(tstp, kernel)
	return nil
}

// EvaluateStart evaluates timesteps 0..k jointly.
func (m *Model) EvaluateStart(k int, g *contour.HermMatrix, h *contour.Function, kernel *contour.HermMatrix) error {
	for n := 0; n <= k; n++ {
		m.sigmaTimestep(n, g)
		m.updateDensity(n, g)
	}
	for n := 0; n <= k; n++ {
		m.displacement(n)
		m.meanField(n, h)
		m.kernel(n, kernel)
	}
	return nil
}

// React updates the hybridization Δ = J G J at tstp. At equilibrium it also
// fixes the displacement X_eq and the chemical potential.
func (m *Model) React(tstp int, g *contour.HermMatrix) error {
	m.hybridization(tstp, g)
	if tstp == -1 {
		m.updateDensity(-1, g)
		m.displacement(-1)
		m.muChem = m.p.MuMF + real(m.Xph.At(-1, 0, 0))*m.coupling(-1)
	}
	return nil
}

func (m *Model) hybridization(n int, g *contour.HermMatrix) {
	m.Hyb.SetTimestepFrom(n, g)
	m.Hyb.RightMultiply(n, m.J, 1)
	m.Hyb.LeftMultiply(n, m.J, 1)
}

func (m *Model) updateDensity(n int, g *contour.HermMatrix) {
	rho := g.DensityMatrix(n)
	var tr float64
	for i := 0; i < g.Size(); i++ {
		tr += real(rho[i*g.Size()+i])
	}
	m.Ntot.SetScalar(n, complex(spin*tr, 0))
}

// meanField sets h(t) = -μ + X(t) g(t).
func (m *Model) meanField(n int, h *contour.Function) {
	h.SetScalar(n, complex(-m.muChem+real(m.Xph.At(n, 0, 0))*m.coupling(n), 0))
}

func (m *Model) kernel(n int, kernel *contour.HermMatrix) {
	kernel.SetTimestepFrom(n, m.Hyb)
	kernel.IncrTimestepFrom(n, m.Sigma, 1)
}
