package solver

import (
	"fmt"
	"time"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/dyson"
)

// Phase names a stage of the calculation.
type Phase string

const (
	PhaseMatsubara   Phase = "matsubara"
	PhaseBootstrap   Phase = "bootstrap"
	PhasePropagation Phase = "propagation"
)

// SelfEnergy fills the Dyson kernel at a timestep (-1 for equilibrium).
// It may also update the one-body Hamiltonian h at tstp, for mean-field
// terms. Implementations must read g only at timesteps <= tstp and must be
// deterministic.
type SelfEnergy interface {
	Evaluate(tstp int, g *contour.HermMatrix, h *contour.Function, kernel *contour.HermMatrix) error
}

// StartEvaluator is implemented by self-energies that evaluate the first
// k+1 timesteps jointly during the bootstrap.
type StartEvaluator interface {
	EvaluateStart(k int, g *contour.HermMatrix, h *contour.Function, kernel *contour.HermMatrix) error
}

// SelfConsistency is implemented by models with a lattice or bath condition
// that must react to every new slice of G, such as a hybridization update.
type SelfConsistency interface {
	React(tstp int, g *contour.HermMatrix) error
}

// Problem bundles the quantities a run updates in place.
type Problem struct {
	G      *contour.HermMatrix
	H      *contour.Function
	Mu     float64
	Kernel *contour.HermMatrix

	// Predict lists extra contour functions that are extrapolated together
	// with G before the corrector passes of each timestep.
	Predict []*contour.HermMatrix

	SelfEnergy SelfEnergy
}

func (p *Problem) validate(k int) error {
	if p.G == nil || p.H == nil || p.Kernel == nil || p.SelfEnergy == nil {
		return fmt.Errorf("%w: G, H, Kernel and SelfEnergy are required", ErrInvalidProblem)
	}
	g := p.G
	if p.Kernel.Nt() != g.Nt() || p.Kernel.Ntau() != g.Ntau() || p.Kernel.Size() != g.Size() {
		return fmt.Errorf("%w: kernel shape (%d,%d,%d) differs from G (%d,%d,%d)", ErrInvalidProblem,
			p.Kernel.Nt(), p.Kernel.Ntau(), p.Kernel.Size(), g.Nt(), g.Ntau(), g.Size())
	}
	if p.H.Nt() < g.Nt() || p.H.Size1() != g.Size() || p.H.Size2() != g.Size() {
		return fmt.Errorf("%w: Hamiltonian does not cover G", ErrInvalidProblem)
	}
	if g.Nt() >= 0 && g.Nt() < k {
		return fmt.Errorf("%w: nt=%d is below the solve order %d", ErrInvalidProblem, g.Nt(), k)
	}
	if g.Ntau() < k {
		return fmt.Errorf("%w: ntau=%d is below the solve order %d", ErrInvalidProblem, g.Ntau(), k)
	}
	for i, q := range p.Predict {
		if q.Nt() != g.Nt() || q.Ntau() != g.Ntau() {
			return fmt.Errorf("%w: predicted function %d has a different grid", ErrInvalidProblem, i)
		}
	}
	return nil
}

func (p *Problem) react(tstp int) error {
	if sc, ok := p.SelfEnergy.(SelfConsistency); ok {
		return sc.React(tstp, p.G)
	}
	return nil
}

// Convergence bounds an iterative phase.
type Convergence struct {
	Tolerance float64
	MaxIter   int
}

// CorrectorPolicy controls the corrector passes of each timestep. With a
// zero Tolerance exactly Steps passes run; a positive Tolerance stops early
// once a pass changes the slice by less than it.
type CorrectorPolicy struct {
	Steps     int
	Tolerance float64
}

// Options configures a Solver.
type Options struct {
	Matsubara Convergence
	Bootstrap Convergence
	Corrector CorrectorPolicy
}

// DefaultOptions mirrors the settings used by the bundled presets.
func DefaultOptions() Options {
	return Options{
		Matsubara: Convergence{Tolerance: 1e-8, MaxIter: 200},
		Bootstrap: Convergence{Tolerance: 1e-10, MaxIter: 100},
		Corrector: CorrectorPolicy{Steps: 5},
	}
}

func (o Options) validate() error {
	for _, c := range []struct {
		name string
		c    Convergence
	}{{"matsubara", o.Matsubara}, {"bootstrap", o.Bootstrap}} {
		if c.c.Tolerance <= 0 {
			return fmt.Errorf("%w: %s tolerance must be positive, got %g", ErrInvalidProblem, c.name, c.c.Tolerance)
		}
		if c.c.MaxIter < 0 {
			return fmt.Errorf("%w: %s max iterations must be non-negative", ErrInvalidProblem, c.name)
		}
	}
	if o.Corrector.Steps < 1 {
		return fmt.Errorf("%w: at least one corrector step is required", ErrInvalidProblem)
	}
	if o.Corrector.Tolerance < 0 {
		return fmt.Errorf("%w: corrector tolerance must be non-negative", ErrInvalidProblem)
	}
	return nil
}

// Event is sent to observers after every iteration and timestep.
type Event struct {
	Phase     Phase
	Iteration int
	Timestep  int
	Residual  float64
	Method    dyson.Method
	Elapsed   time.Duration
}

// Observer receives progress events.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// PhaseStats summarises one finished phase.
type PhaseStats struct {
	Iterations int
	Residual   float64
	Duration   time.Duration
}

// Result summarises a completed run.
type Result struct {
	Matsubara   PhaseStats
	Bootstrap   PhaseStats
	Propagation PhaseStats
	Timesteps   int
}
