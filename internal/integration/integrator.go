// Package integration provides the weight tables of the multistep scheme:
// boundary accurate differentiation and quadrature on an equidistant grid,
// interior backward differentiation, polynomial extrapolation and the
// correction table for short Matsubara convolutions.
//
// Every table is derived from the Lagrange basis on the nodes 0..k with exact
// rational arithmetic and converted to float64 once. All weights are for unit
// step; callers scale by h or 1/h.
package integration

import (
	"errors"
	"fmt"
	"math/big"
)

// MaxSolveOrder is the largest supported order.
const MaxSolveOrder = 5

// ErrSolveOrder is returned for an order outside [1, MaxSolveOrder].
var ErrSolveOrder = errors.New("integration: solve order out of range")

// Integrator holds the weight tables for one order k.
type Integrator struct {
	k int

	start [][]float64 // start[i][j] = L'_j(i)
	bdf   []float64
	ext   []float64
	part  [][]float64 // part[x][j] = ∫_0^x L_j
	am    []float64   // Adams-Moulton step weights
	amSum []float64   // prefix sums of am
	corr  [][][]float64
}

// New builds the tables for order k.
func New(k int) (*Integrator, error) {
	if k < 1 || k > MaxSolveOrder {
		return nil, fmt.Errorf("%w: %d", ErrSolveOrder, k)
	}
	basis := lagrangeBasis(k)
	in := &Integrator{k: k}

	in.start = make([][]float64, k+1)
	in.part = make([][]float64, k+1)
	zero := new(big.Rat)
	for i := 0; i <= k; i++ {
		in.start[i] = make([]float64, k+1)
		in.part[i] = make([]float64, k+1)
		for j := 0; j <= k; j++ {
			in.start[i][j] = toFloat(basis[j].deriv().eval(ratInt(i)))
			in.part[i][j] = toFloat(basis[j].integral(zero, ratInt(i)))
		}
	}

	in.bdf = make([]float64, k+1)
	in.ext = make([]float64, k+1)
	in.am = make([]float64, k+1)
	in.amSum = make([]float64, k+2)
	for l := 0; l <= k; l++ {
		in.bdf[l] = in.start[k][k-l]
		in.ext[l] = toFloat(basis[k-l].eval(ratInt(k + 1)))
		in.am[l] = toFloat(basis[l].integral(ratInt(k-1), ratInt(k)))
		in.amSum[l+1] = in.amSum[l] + in.am[l]
	}

	in.corr = make([][][]float64, k)
	for m := 0; m < k; m++ {
		in.corr[m] = make([][]float64, k+1)
		for j := 0; j <= k; j++ {
			in.corr[m][j] = make([]float64, k+1)
			left := basis[j].reflect(m)
			for l := 0; l <= k; l++ {
				in.corr[m][j][l] = toFloat(left.mul(basis[l]).integral(zero, ratInt(m)))
			}
		}
	}
	return in, nil
}

// MustNew is New for orders known to be valid.
func MustNew(k int) *Integrator {
	in, err := New(k)
	if err != nil {
		panic(err)
	}
	return in
}

// K returns the order.
func (in *Integrator) K() int { return in.k }

// StartDerivative returns L'_j(i): f'(i) ≈ Σ_j StartDerivative(i,j) f(j)/h
// for the boundary rows i = 0..k.
func (in *Integrator) StartDerivative(i, j int) float64 { return in.start[i][j] }

// BDF returns the weight of f(n-l) in f'(n) ≈ Σ_l BDF(l) f(n-l)/h.
func (in *Integrator) BDF(l int) float64 { return in.bdf[l] }

// Extrapolate returns the weight of f(n-1-l) in f(n) ≈ Σ_l Extrapolate(l) f(n-1-l).
func (in *Integrator) Extrapolate(l int) float64 { return in.ext[l] }

// MatCorr returns ∫_0^m L_j(m-x) L_l(x) dx for m < k. It replaces the
// quadrature of a product of two functions over a segment shorter than k
// steps, when both factors are known on k+1 points.
func (in *Integrator) MatCorr(m, j, l int) float64 { return in.corr[m][j][l] }

// QuadAt returns the weight of node j in ∫_0^n f. For n >= k the rule uses
// nodes 0..n (a start block on 0..k followed by Adams-Moulton steps); for
// n < k it uses nodes 0..k.
func (in *Integrator) QuadAt(n, j int) float64 {
	k := in.k
	if n < k {
		return in.part[n][j]
	}
	var w float64
	if j <= k {
		w = in.part[k][j]
	}
	lo := j + k - n
	if lo < 0 {
		lo = 0
	}
	hi := j - 1
	if hi > k {
		hi = k
	}
	if hi >= lo {
		w += in.amSum[hi+1] - in.amSum[lo]
	}
	return w
}

// Quad returns the weights of ∫_0^n f on nodes 0..max(n,k).
func (in *Integrator) Quad(n int) []float64 {
	top := n
	if top < in.k {
		top = in.k
	}
	w := make([]float64, top+1)
	for j := range w {
		w[j] = in.QuadAt(n, j)
	}
	return w
}

// Rule is a quadrature rule for ∫_a^b on the grid nodes Lo..Hi.
type Rule struct {
	in   *Integrator
	a    int
	b    int
	lo   int
	hi   int
	long bool
	sign float64
}

// Weights returns the boundary accurate rule for ∫_a^b f. Intervals of at
// least k steps use nodes a..b; shorter ones use a window of k+1 nodes that
// never starts before 0. a > b gives the negated rule of ∫_b^a.
func (in *Integrator) Weights(a, b int) Rule {
	r := Rule{in: in, a: a, b: b, sign: 1}
	if a > b {
		r.a, r.b, r.sign = b, a, -1
	}
	k := in.k
	if r.b-r.a >= k {
		r.long = true
		r.lo, r.hi = r.a, r.b
		return r
	}
	r.lo = 0
	if r.b >= k {
		r.lo = r.b - k
	}
	r.hi = r.lo + k
	return r
}

func (r Rule) Lo() int { return r.lo }
func (r Rule) Hi() int { return r.hi }

// W returns the weight of node j, Lo <= j <= Hi.
func (r Rule) W(j int) float64 {
	if j < r.lo || j > r.hi {
		return 0
	}
	if r.long {
		return r.sign * r.in.QuadAt(r.b-r.a, j-r.a)
	}
	p := r.in.part
	return r.sign * (p[r.b-r.lo][j-r.lo] - p[r.a-r.lo][j-r.lo])
}
