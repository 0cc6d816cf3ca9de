package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/kadanoff/internal/dyson"
	"github.com/san-kum/kadanoff/internal/logging"
)

// Solver runs the equilibrium, bootstrap and propagation phases in order.
type Solver struct {
	engine    *dyson.Engine
	opts      Options
	logger    *logging.Logger
	observers []Observer
}

func New(engine *dyson.Engine, opts Options) *Solver {
	return &Solver{engine: engine, opts: opts, logger: logging.NopLogger()}
}

// WithLogger sets the logger used by every phase.
func (s *Solver) WithLogger(l *logging.Logger) *Solver {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Engine() *dyson.Engine { return s.engine }
func (s *Solver) Options() Options      { return s.opts }

func (s *Solver) notify(e Event) {
	for _, o := range s.observers {
		o.OnEvent(e)
	}
}

// Equilibrium returns an equilibrium solver wired to this solver's logger
// and observers.
func (s *Solver) Equilibrium() *EquilibriumSolver {
	es := NewEquilibriumSolver(s.engine, s.opts.Matsubara, s.logger)
	es.notify = s.notify
	return es
}

func (s *Solver) Bootstrap() *Bootstrap {
	b := NewBootstrap(s.engine, s.opts.Bootstrap, s.logger)
	b.notify = s.notify
	return b
}

func (s *Solver) Propagator() *Propagator {
	pr := NewPropagator(s.engine, s.opts.Corrector, s.logger)
	pr.notify = s.notify
	return pr
}

// Run solves p from scratch. It halts at the first phase that fails; the
// contents of p are then unspecified. With p.G.Nt() == -1 only the
// equilibrium phase runs.
func (s *Solver) Run(ctx context.Context, p *Problem) (*Result, error) {
	if err := s.opts.validate(); err != nil {
		return nil, err
	}
	k := s.engine.K()
	if err := p.validate(k); err != nil {
		return nil, err
	}
	res := &Result{}

	t0 := time.Now()
	eq := s.Equilibrium()
	if err := eq.Solve(p); err != nil {
		return nil, err
	}
	res.Matsubara = PhaseStats{Iterations: eq.Iterations(), Residual: eq.Residual(), Duration: time.Since(t0)}
	if p.G.Nt() < 0 {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dyson.SetTkFromMat(p.G, k)
	for _, q := range p.Predict {
		dyson.SetTkFromMat(q, k)
	}

	t0 = time.Now()
	b := s.Bootstrap()
	if err := b.Solve(p); err != nil {
		return nil, err
	}
	res.Bootstrap = PhaseStats{Iterations: b.Iterations(), Residual: b.Residual(), Duration: time.Since(t0)}

	t0 = time.Now()
	pr := s.Propagator()
	if err := pr.Propagate(ctx, p); err != nil {
		return nil, fmt.Errorf("propagation: %w", err)
	}
	res.Propagation = PhaseStats{Iterations: pr.Passes(), Duration: time.Since(t0)}
	res.Timesteps = p.G.Nt() + 1
	return res, nil
}
