package solver

import (
	"fmt"
	"time"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/dyson"
	"github.com/san-kum/kadanoff/internal/logging"
)

// minBootstrapIter is the first iteration index at which a small error
// counts as converged; earlier iterations can agree by accident.
const minBootstrapIter = 3

// Bootstrap solves timesteps 0..k jointly until self-consistent.
type Bootstrap struct {
	engine *dyson.Engine
	conv   Convergence
	logger *logging.Logger
	notify func(Event)

	iterations int
	residual   float64

	// slices 0..k of solved at the last convergence
	solved *contour.HermMatrix
	done   []*contour.Timestep
}

func NewBootstrap(engine *dyson.Engine, conv Convergence, logger *logging.Logger) *Bootstrap {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bootstrap{
		engine: engine,
		conv:   conv,
		logger: logger.WithPhase(string(PhaseBootstrap)),
		notify: func(Event) {},
	}
}

func (b *Bootstrap) Iterations() int   { return b.iterations }
func (b *Bootstrap) Residual() float64 { return b.residual }

// Solve iterates timesteps 0..k of p.G in place, starting from their
// current content. The error is summed over all k+1 slices. Re-entering on
// slices that still match the last converged solution returns after zero
// iterations.
func (b *Bootstrap) Solve(p *Problem) error {
	k := b.engine.K()
	g := p.G
	start := time.Now()
	b.iterations, b.residual = 0, 0

	if b.solved == g && len(b.done) == k+1 {
		var d float64
		for n := 0; n <= k; n++ {
			d += contour.DistanceNorm2(n, g.View(n), b.done[n])
		}
		if d < b.conv.Tolerance {
			b.residual = d
			b.logger.Info("already converged", "err", d)
			return nil
		}
	}
	b.solved, b.done = nil, nil

	old := make([]*contour.Timestep, k+1)
	for n := range old {
		old[n] = g.Timestep(n)
	}

	for iter := 0; iter <= b.conv.MaxIter; iter++ {
		if err := b.step(p, k); err != nil {
			return &ConvergenceError{Phase: PhaseBootstrap, Iterations: iter, Residual: b.residual, Wrapped: err}
		}
		b.iterations = iter + 1
		b.residual = 0
		for n := 0; n <= k; n++ {
			b.residual += contour.DistanceNorm2(n, g.View(n), old[n])
		}
		b.logger.Debug("iteration", "iter", iter, "err", b.residual)
		b.notify(Event{Phase: PhaseBootstrap, Iteration: iter, Timestep: k, Residual: b.residual, Elapsed: time.Since(start)})

		if b.residual < b.conv.Tolerance && iter >= minBootstrapIter {
			b.logger.Info("converged", "iterations", b.iterations, "err", b.residual, "elapsed", time.Since(start))
			b.solved = g
			b.done = make([]*contour.Timestep, k+1)
			for n := range b.done {
				b.done[n] = g.Timestep(n)
			}
			return nil
		}
		for n := 0; n <= k; n++ {
			old[n].Set(g.View(n))
		}
	}

	b.logger.Warn("not converged", "iterations", b.iterations, "err", b.residual)
	return &ConvergenceError{Phase: PhaseBootstrap, Iterations: b.iterations, Residual: b.residual, Wrapped: ErrNotConverged}
}

func (b *Bootstrap) step(p *Problem, k int) error {
	if se, ok := p.SelfEnergy.(StartEvaluator); ok {
		if err := se.EvaluateStart(k, p.G, p.H, p.Kernel); err != nil {
			return fmt.Errorf("self-energy: %w", err)
		}
	} else {
		for n := 0; n <= k; n++ {
			if err := p.SelfEnergy.Evaluate(n, p.G, p.H, p.Kernel); err != nil {
				return fmt.Errorf("self-energy at t%d: %w", n, err)
			}
		}
	}
	if err := b.engine.DysonStart(p.G, p.Mu, p.H, p.Kernel); err != nil {
		return err
	}
	for n := 0; n <= k; n++ {
		if err := p.react(n); err != nil {
			return fmt.Errorf("self-consistency at t%d: %w", n, err)
		}
	}
	return nil
}
