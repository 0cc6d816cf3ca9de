package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/dyson"
	"github.com/san-kum/kadanoff/internal/logging"
)

// Propagator advances timesteps k+1..nt with a polynomial predictor and a
// fixed number of corrector passes.
type Propagator struct {
	engine *dyson.Engine
	policy CorrectorPolicy
	logger *logging.Logger
	notify func(Event)

	passes int
}

func NewPropagator(engine *dyson.Engine, policy CorrectorPolicy, logger *logging.Logger) *Propagator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Propagator{
		engine: engine,
		policy: policy,
		logger: logger.WithPhase(string(PhasePropagation)),
		notify: func(Event) {},
	}
}

// Passes returns the total number of corrector passes run so far.
func (pr *Propagator) Passes() int { return pr.passes }

// Step solves timestep n > k. It reads timesteps <= n and writes only n.
func (pr *Propagator) Step(n int, p *Problem) (float64, error) {
	pr.engine.Extrapolate(n, p.G)
	for _, q := range p.Predict {
		pr.engine.Extrapolate(n, q)
	}

	var prev *contour.Timestep
	if pr.policy.Tolerance > 0 {
		prev = p.G.Timestep(n)
	}
	var change float64
	for pass := 0; pass < pr.policy.Steps; pass++ {
		if err := p.SelfEnergy.Evaluate(n, p.G, p.H, p.Kernel); err != nil {
			return change, &StepError{Step: n, Pass: pass, Wrapped: fmt.Errorf("self-energy: %w", err)}
		}
		if err := pr.engine.DysonTimestep(n, p.G, p.Mu, p.H, p.Kernel); err != nil {
			return change, &StepError{Step: n, Pass: pass, Wrapped: err}
		}
		if err := p.react(n); err != nil {
			return change, &StepError{Step: n, Pass: pass, Wrapped: fmt.Errorf("self-consistency: %w", err)}
		}
		pr.passes++
		if prev == nil {
			continue
		}
		change = contour.DistanceNorm2(n, p.G.View(n), prev)
		if change < pr.policy.Tolerance {
			break
		}
		prev.Set(p.G.View(n))
	}
	return change, nil
}

// Propagate runs Step for every timestep from k+1 to nt, checking ctx
// between timesteps.
func (pr *Propagator) Propagate(ctx context.Context, p *Problem) error {
	start := time.Now()
	for n := pr.engine.K() + 1; n <= p.G.Nt(); n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		change, err := pr.Step(n, p)
		if err != nil {
			return err
		}
		pr.notify(Event{Phase: PhasePropagation, Timestep: n, Residual: change, Elapsed: time.Since(start)})
		if n%50 == 0 {
			pr.logger.Debug("timestep", "tstp", n, "elapsed", time.Since(start))
		}
	}
	pr.logger.Info("done", "timesteps", p.G.Nt()+1, "passes", pr.passes, "elapsed", time.Since(start))
	return nil
}
