package solver

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/dyson"
	"github.com/san-kum/kadanoff/internal/logging"
)

// State is the progress of an EquilibriumSolver.
type State int

const (
	Unsolved State = iota
	IteratingFixpoint
	IteratingSpectral
	Converged
	Failed
)

func (s State) String() string {
	switch s {
	case Unsolved:
		return "unsolved"
	case IteratingFixpoint:
		return "fixpoint"
	case IteratingSpectral:
		return "spectral"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EquilibriumSolver iterates the Matsubara Dyson equation to
// self-consistency. It starts with the fixpoint method; once the error is
// below tolerance it takes one more fixpoint pass and then switches to the
// spectral method, converging when the spectral error is below tolerance.
type EquilibriumSolver struct {
	engine *dyson.Engine
	conv   Convergence
	logger *logging.Logger
	notify func(Event)

	state      State
	extra      bool
	iterations int
	residual   float64
	history    []State
}

// NewEquilibriumSolver returns a solver in the Unsolved state.
func NewEquilibriumSolver(engine *dyson.Engine, conv Convergence, logger *logging.Logger) *EquilibriumSolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &EquilibriumSolver{
		engine: engine,
		conv:   conv,
		logger: logger.WithPhase(string(PhaseMatsubara)),
		notify: func(Event) {},
	}
}

func (s *EquilibriumSolver) State() State         { return s.state }
func (s *EquilibriumSolver) Iterations() int      { return s.iterations }
func (s *EquilibriumSolver) Residual() float64    { return s.residual }
func (s *EquilibriumSolver) Transitions() []State { return s.history }

func (s *EquilibriumSolver) enter(st State) {
	if s.state != st {
		s.state = st
		s.history = append(s.history, st)
	}
}

// method returns the Dyson method for the current state.
func (s *EquilibriumSolver) method() dyson.Method {
	if s.state == IteratingSpectral {
		return dyson.Spectral
	}
	return dyson.Fixpoint
}

// advance applies the transition rule after an iteration with error err.
func (s *EquilibriumSolver) advance(err float64) {
	switch s.state {
	case IteratingFixpoint:
		if s.extra {
			s.enter(IteratingSpectral)
		} else if err < s.conv.Tolerance {
			s.extra = true
		}
	case IteratingSpectral:
		if err < s.conv.Tolerance {
			s.enter(Converged)
		}
	}
}

// Solve iterates timestep -1 of p.G in place. On failure the state is
// Failed and a *ConvergenceError is returned.
func (s *EquilibriumSolver) Solve(p *Problem) error {
	s.state, s.extra, s.iterations, s.residual, s.history = Unsolved, false, 0, 0, nil
	s.enter(IteratingFixpoint)
	start := time.Now()
	g := p.G
	old := g.Timestep(-1)

	for iter := 0; iter <= s.conv.MaxIter; iter++ {
		method := s.method()
		if err := s.step(p, method, old); err != nil {
			s.enter(Failed)
			s.iterations = iter + 1
			var inner *dyson.InnerError
			if errors.As(err, &inner) {
				s.residual = inner.Residual
			}
			return &ConvergenceError{Phase: PhaseMatsubara, Iterations: s.iterations, Residual: s.residual, Wrapped: err}
		}
		s.iterations = iter + 1
		s.residual = contour.DistanceNorm2(-1, g.View(-1), old)
		s.logger.Debug("iteration", "iter", iter, "method", method.String(), "err", s.residual)
		s.notify(Event{Phase: PhaseMatsubara, Iteration: iter, Timestep: -1, Residual: s.residual, Method: method, Elapsed: time.Since(start)})

		s.advance(s.residual)
		if s.state == Converged {
			s.logger.Info("converged", "iterations", s.iterations, "err", s.residual, "elapsed", time.Since(start))
			return nil
		}
		old.Set(g.View(-1))
	}

	s.enter(Failed)
	s.logger.Warn("not converged", "iterations", s.iterations, "err", s.residual)
	return &ConvergenceError{Phase: PhaseMatsubara, Iterations: s.iterations, Residual: s.residual, Wrapped: ErrNotConverged}
}

// step evaluates the kernel, solves the Dyson equation, mixes the result
// 50/50 with the previous iterate and lets the model react.
func (s *EquilibriumSolver) step(p *Problem, method dyson.Method, old *contour.Timestep) error {
	if err := p.SelfEnergy.Evaluate(-1, p.G, p.H, p.Kernel); err != nil {
		return fmt.Errorf("self-energy: %w", err)
	}
	if err := s.engine.DysonMat(p.G, p.Mu, p.H, p.Kernel, method); err != nil {
		return err
	}
	p.G.SmulTimestep(-1, 0.5)
	p.G.IncrTimestep(-1, old, 0.5)
	if err := p.react(-1); err != nil {
		return fmt.Errorf("self-consistency: %w", err)
	}
	return nil
}
