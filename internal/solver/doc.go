// Package solver drives a Kadanoff-Baym calculation through its three
// phases: the equilibrium (Matsubara) iteration, the bootstrap of the first
// k+1 real-time slices and the predictor-corrector propagation of every
// later slice.
//
// The physics enters through a SelfEnergy. The solver never inspects the
// model; it only asks the self-energy to fill the Dyson kernel at a given
// timestep and, when the model implements SelfConsistency, lets it react to
// each new slice of G.
//
// # Example
//
//	eng := dyson.New(integration.MustNew(5), beta, dt)
//	p := &solver.Problem{G: g, H: h, Kernel: kernel, SelfEnergy: model}
//	res, err := solver.New(eng, solver.DefaultOptions()).Run(ctx, p)
//	if err != nil {
//	    var ce *solver.ConvergenceError
//	    if errors.As(err, &ce) {
//	        log.Printf("%s failed after %d iterations", ce.Phase, ce.Iterations)
//	    }
//	}
//
// # Thread Safety
//
// A Solver runs one Problem at a time. Parallelism lives inside the dyson
// kernels; the driver itself is sequential.
package solver
