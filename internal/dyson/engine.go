// Package dyson implements the discretised Kadanoff-Baym kernels on the
// contour: the Matsubara Dyson equation, the joint solve of the first k
// timesteps, the single timestep solve for n > k, their integral-equation
// (VIE2) counterparts, contour convolutions and energy observables.
//
// # Conventions
//
// The equation of motion is
//
//	[i∂_t - ε(t)] G(t,t') - ∫_C Σ(t,s) G(s,t') ds = δ_C(t,t'),  ε = H - μ
//
// with G^R(t,t) = -i and Matsubara convention G^M(τ) = -i G(-iτ, 0). The
// retarded component above the diagonal is read through its smooth
// continuation G^R(i,j) = -[G^R(j,i)]^†, which satisfies the same equation.
// This lets every short integral near t = 0 use a k+1 point window.
//
// # Thread Safety
//
// An Engine is immutable and safe for concurrent use. Kernels write only the
// timestep they solve; parallel loops write disjoint columns of it.
package dyson

import (
	"errors"
	"fmt"

	"github.com/san-kum/kadanoff/internal/compute"
	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/integration"
)

// ErrNotConverged is returned when an inner iteration misses its tolerance.
var ErrNotConverged = errors.New("dyson: inner iteration did not converge")

// InnerError carries the residual an inner iteration stopped at.
type InnerError struct {
	Residual   float64
	Iterations int
}

func (e *InnerError) Error() string {
	return fmt.Sprintf("%v: residual %.3e after %d iterations", ErrNotConverged, e.Residual, e.Iterations)
}

func (e *InnerError) Unwrap() error { return ErrNotConverged }

// Method selects how the Matsubara equation is solved.
type Method int

const (
	Fixpoint Method = iota
	Spectral
)

func (m Method) String() string {
	switch m {
	case Fixpoint:
		return "fixpoint"
	case Spectral:
		return "spectral"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Engine binds the integrator and grid spacings shared by all kernels.
type Engine struct {
	in      *integration.Integrator
	beta    float64
	dt      float64
	backend compute.Backend

	innerTol  float64
	innerIter int
}

// New returns an engine using the active compute backend.
func New(in *integration.Integrator, beta, dt float64) *Engine {
	return &Engine{
		in:        in,
		beta:      beta,
		dt:        dt,
		backend:   compute.GetBackend(),
		innerTol:  1e-12,
		innerIter: 2000,
	}
}

// WithBackend returns a copy of e running parallel loops on b.
func (e *Engine) WithBackend(b compute.Backend) *Engine {
	c := *e
	c.backend = b
	return &c
}

// WithInnerTolerance returns a copy of e with a different tolerance and
// iteration cap for the inner Matsubara iteration.
func (e *Engine) WithInnerTolerance(tol float64, maxIter int) *Engine {
	c := *e
	c.innerTol = tol
	c.innerIter = maxIter
	return &c
}

func (e *Engine) K() int                              { return e.in.K() }
func (e *Engine) Beta() float64                       { return e.beta }
func (e *Engine) Dt() float64                         { return e.dt }
func (e *Engine) Integrator() *integration.Integrator { return e.in }
func (e *Engine) Backend() compute.Backend            { return e.backend }

func (e *Engine) dtau(ntau int) float64 { return e.beta / float64(ntau) }

// parallel runs fn for every index in [0, n) on the engine backend.
func (e *Engine) parallel(n int, fn func(i int, s *scratch) error) error {
	return e.backend.For(n, func(lo, hi int) error {
		var s scratch
		for i := lo; i < hi; i++ {
			if err := fn(i, &s); err != nil {
				return err
			}
		}
		return nil
	})
}

// scratch holds per-goroutine temporaries.
type scratch struct {
	a, b, acc []complex128
}

func (s *scratch) ensure(es int) {
	if len(s.a) != es {
		s.a = make([]complex128, es)
		s.b = make([]complex128, es)
		s.acc = make([]complex128, es)
	}
}

func checkShape(op string, gs ...*contour.HermMatrix) {
	for _, g := range gs[1:] {
		if g.Size() != gs[0].Size() || g.Ntau() != gs[0].Ntau() {
			panic(&contour.IndexError{Op: op, Index: g.Size(), Max: gs[0].Size()})
		}
	}
}
