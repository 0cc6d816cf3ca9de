package solver

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidProblem indicates missing or inconsistently shaped inputs.
	ErrInvalidProblem = errors.New("solver: invalid problem")

	// ErrNotConverged indicates a phase exhausted its iteration budget.
	ErrNotConverged = errors.New("solver: iteration did not converge")
)

// ConvergenceError reports the phase that failed and its last residual.
type ConvergenceError struct {
	Phase      Phase
	Iterations int
	Residual   float64
	Wrapped    error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence after %d iterations (err=%.3e): %v",
		e.Phase, e.Iterations, e.Residual, e.Wrapped)
}

func (e *ConvergenceError) Unwrap() error {
	return e.Wrapped
}

// StepError wraps a failure inside a single propagation timestep.
type StepError struct {
	Step    int
	Pass    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("timestep %d (pass %d): %v", e.Step, e.Pass, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
