package dyson

import (
	"fmt"

	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/linalg"
)

// equation describes either the integro-differential Dyson equation
//
//	[i∂_t - ε] G - K*G = δ_C                  (sign = -1)
//
// or the Volterra equation of the second kind
//
//	G + K*G = Q                                (sign = +1)
//
// Both are discretised by the same timestep and start kernels.
type equation struct {
	e    *Engine
	g    *contour.HermMatrix
	kern contour.Pair
	sign float64

	mu float64
	h  *contour.Function   // Dyson only
	q  *contour.HermMatrix // VIE2 only
}

func (eq *equation) dyson() bool { return eq.q == nil }

func (eq *equation) size() int { return eq.g.Size() }

// eps stores ε(t_i) = H(t_i) - μ.
func (eq *equation) eps(dst []complex128, i int) {
	sz := eq.size()
	copy(dst, eq.h.Ptr(i))
	for a := 0; a < sz; a++ {
		dst[a*sz+a] -= complex(eq.mu, 0)
	}
}

// diag stores the part of the coefficient of G(t_p) in row i that does not
// involve the kernel. start selects the boundary derivative rows; otherwise
// row i uses backward differentiation.
func (eq *equation) diag(dst []complex128, i, p int, start bool) {
	sz := eq.size()
	for a := range dst[:sz*sz] {
		dst[a] = 0
	}
	if !eq.dyson() {
		if i == p {
			for a := 0; a < sz; a++ {
				dst[a*sz+a] = 1
			}
		}
		return
	}
	var d float64
	if start {
		d = eq.e.in.StartDerivative(i, p)
	} else if l := i - p; l >= 0 && l <= eq.e.K() {
		d = eq.e.in.BDF(l)
	}
	c := complex(0, d/eq.e.dt)
	if i == p {
		eq.eps(dst, i)
		for a := range dst[:sz*sz] {
			dst[a] = -dst[a]
		}
	}
	for a := 0; a < sz; a++ {
		dst[a*sz+a] += c
	}
}

// coef stores diag(i,p) + sign*w*K^R(t_i,t_p).
func (eq *equation) coef(dst []complex128, i, p int, w float64, start bool, s *scratch) {
	eq.diag(dst, i, p, start)
	if w == 0 {
		return
	}
	eq.kern.Ret(i, p, s.a)
	linalg.Axpy(dst, complex(eq.sign*w, 0), s.a)
}

// DysonTimestep solves timestep n > k of
// [i∂_t - H(t) + μ] G - Σ*G = δ_C given G up to n-1 and Σ up to n.
func (e *Engine) DysonTimestep(n int, g *contour.HermMatrix, mu float64, h *contour.Function, sigma *contour.HermMatrix) error {
	checkShape("DysonTimestep", g, sigma)
	eq := &equation{e: e, g: g, kern: contour.Herm(sigma), sign: -1, mu: mu, h: h}
	return eq.timestep(n)
}

// VIE2Timestep solves timestep n > k of G + F*G = Q. f pairs F with its
// partner Fcc; q must be Hermitian.
func (e *Engine) VIE2Timestep(n int, g *contour.HermMatrix, f contour.Pair, q *contour.HermMatrix) error {
	checkShape("VIE2Timestep", g, f.A, q)
	eq := &equation{e: e, g: g, kern: f, sign: 1, q: q}
	return eq.timestep(n)
}

// DysonStart solves timesteps 0..k of the Dyson equation jointly, given the
// Matsubara component of G and Σ on 0..k.
func (e *Engine) DysonStart(g *contour.HermMatrix, mu float64, h *contour.Function, sigma *contour.HermMatrix) error {
	checkShape("DysonStart", g, sigma)
	eq := &equation{e: e, g: g, kern: contour.Herm(sigma), sign: -1, mu: mu, h: h}
	return eq.start()
}

// VIE2Start solves timesteps 0..k of G + F*G = Q jointly.
func (e *Engine) VIE2Start(g *contour.HermMatrix, f contour.Pair, q *contour.HermMatrix) error {
	checkShape("VIE2Start", g, f.A, q)
	eq := &equation{e: e, g: g, kern: f, sign: 1, q: q}
	return eq.start()
}

func (eq *equation) timestep(n int) error {
	e := eq.e
	k := e.K()
	g := eq.g
	if n <= k || n > g.Nt() {
		panic(&contour.IndexError{Op: "timestep", Index: n, Max: g.Nt()})
	}
	sz := eq.size()
	es := sz * sz
	ntau := g.Ntau()
	gp := contour.Herm(g)
	neg := complex(-eq.sign, 0)

	// rows with the integral over [0, t_n] share one matrix
	var s0 scratch
	s0.ensure(es)
	m0 := make([]complex128, es)
	eq.coef(m0, n, n, e.in.Weights(0, n).W(n)*e.dt, false, &s0)
	inv, err := linalg.Solve(m0, sz, linalg.Identity(sz), sz)
	if err != nil {
		return fmt.Errorf("timestep %d: %w", n, err)
	}

	history := func(rhs []complex128, get func(p int, dst []complex128), s *scratch) {
		if !eq.dyson() {
			return
		}
		for l := 1; l <= k; l++ {
			eq.diag(s.b, n, n-l, false)
			get(n-l, s.a)
			linalg.MulAdd(rhs, -1, s.b, s.a, 1, sz)
		}
	}

	err = e.parallel(n+ntau+1, func(idx int, s *scratch) error {
		s.ensure(es)
		switch {
		case idx < n:
			m := idx
			rhs := make([]complex128, es)
			if !eq.dyson() {
				eq.q.GetRet(n, m, rhs)
			}
			history(rhs, func(p int, d []complex128) { gp.Ret(p, m, d) }, s)
			acc := make([]complex128, es)
			wn := e.retConv(acc, n, m, n, eq.kern, gp, s)
			linalg.Axpy(rhs, neg, acc)
			mat := make([]complex128, es)
			eq.coef(mat, n, n, wn, false, s)
			if err := linalg.SolveInto(g.RetPtr(n, m), mat, rhs, sz); err != nil {
				return fmt.Errorf("timestep %d ret %d: %w", n, m, err)
			}
		default:
			m := idx - n
			rhs := make([]complex128, es)
			if !eq.dyson() {
				eq.q.GetTV(n, m, rhs)
			}
			history(rhs, func(p int, d []complex128) { copy(d, g.TVPtr(p, m)) }, s)
			acc := make([]complex128, es)
			e.tvRealConv(acc, n, m, n, eq.kern, gp, s)
			e.tvMixConv(acc, n, m, eq.kern, gp)
			linalg.Axpy(rhs, neg, acc)
			linalg.MulAdd(g.TVPtr(n, m), 1, inv, rhs, 0, sz)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if eq.dyson() {
		ret := g.RetPtr(n, n)
		id := linalg.Identity(sz)
		for i := range ret {
			ret[i] = -1i * id[i]
		}
	} else {
		eq.q.GetRet(n, n, g.RetPtr(n, n))
	}

	return eq.lesColumn(n)
}

// lesColumn solves column n of the lesser component, G^<(t_i, t_n) for
// i = 0..n, by stepping the first time argument. The Dyson equation starts
// from G^<(0,n) = -[G^⌉(n,0)]^†. Rows up to k are solved jointly with the
// start derivative, later rows with backward differentiation. Only entries
// of column n enter the history, so the retarded row n and the mixing row n
// must be known beforehand.
func (eq *equation) lesColumn(n int) error {
	e := eq.e
	k := e.K()
	g := eq.g
	sz := eq.size()
	es := sz * sz
	gp := contour.Herm(g)
	neg := complex(-eq.sign, 0)
	dt := e.dt
	last := max(n, k)

	// src(i) = Q^<(i,n) - sign [Σ^< G^A + Σ^⌉ G^⌈](i,n)
	src := make([]complex128, (last+1)*es)
	err := e.parallel(last+1, func(i int, s *scratch) error {
		s.ensure(es)
		dst := src[i*es : (i+1)*es]
		if !eq.dyson() {
			eq.q.GetLes(i, n, dst)
		}
		acc := make([]complex128, es)
		e.lesSource(acc, i, n, eq.kern, gp, s)
		linalg.Axpy(dst, neg, acc)
		return nil
	})
	if err != nil {
		return err
	}

	first := 0
	var x0 []complex128
	if eq.dyson() {
		first = 1
		x0 = g.LesPtr(0, n)
		linalg.NegAdjoint(x0, g.TVPtr(n, 0), sz)
	}

	var s scratch
	s.ensure(es)
	c := make([]complex128, es)

	rows := make([]int, 0, k+1)
	for i := first; i <= k; i++ {
		rows = append(rows, i)
	}
	b := newBlock(rows, sz)
	for ri, i := range rows {
		r := e.in.Weights(0, i)
		col := func(p int) float64 {
			if p < r.Lo() || p > r.Hi() {
				return 0
			}
			return r.W(p) * dt
		}
		for pi, p := range rows {
			eq.coef(c, i, p, col(p), true, &s)
			b.set(ri, pi, c)
		}
		copy(b.rhsPtr(ri), src[i*es:(i+1)*es])
		if x0 != nil {
			eq.coef(c, i, 0, col(0), true, &s)
			linalg.MulAdd(b.rhsPtr(ri), -1, c, x0, 1, sz)
		}
	}
	x, err := b.solve()
	if err != nil {
		return fmt.Errorf("les column %d: %w", n, err)
	}
	for ri, i := range rows {
		if i <= n {
			copy(g.LesPtr(i, n), x[ri*es:(ri+1)*es])
		}
	}

	rhs := make([]complex128, es)
	acc := make([]complex128, es)
	for i := k + 1; i <= n; i++ {
		copy(rhs, src[i*es:(i+1)*es])
		if eq.dyson() {
			for l := 1; l <= k; l++ {
				eq.diag(s.b, i, i-l, false)
				linalg.MulAdd(rhs, -1, s.b, g.LesPtr(i-l, n), 1, sz)
			}
		}
		for a := range acc {
			acc[a] = 0
		}
		wi := e.lesRetConv(acc, i, n, i, eq.kern, gp, &s)
		linalg.Axpy(rhs, neg, acc)
		eq.coef(c, i, i, wi, false, &s)
		if err := linalg.SolveInto(g.LesPtr(i, n), c, rhs, sz); err != nil {
			return fmt.Errorf("les column %d row %d: %w", n, i, err)
		}
	}
	return nil
}

// block assembles and solves the joint system of the start rows.
type block struct {
	rows []int
	sz   int
	a    []complex128
	rhs  []complex128
}

func newBlock(rows []int, sz int) *block {
	nn := len(rows) * sz
	return &block{rows: rows, sz: sz, a: make([]complex128, nn*nn), rhs: make([]complex128, nn*sz)}
}

func (b *block) set(ri, pi int, c []complex128) {
	nn := len(b.rows) * b.sz
	for r := 0; r < b.sz; r++ {
		for col := 0; col < b.sz; col++ {
			b.a[(ri*b.sz+r)*nn+pi*b.sz+col] = c[r*b.sz+col]
		}
	}
}

func (b *block) rhsPtr(ri int) []complex128 {
	return b.rhs[ri*b.sz*b.sz : (ri+1)*b.sz*b.sz]
}

func (b *block) solve() ([]complex128, error) {
	return linalg.Solve(b.a, len(b.rows)*b.sz, b.rhs, b.sz)
}

func (eq *equation) start() error {
	e := eq.e
	k := e.K()
	g := eq.g
	if g.Nt() < k {
		panic(&contour.IndexError{Op: "start", Index: g.Nt(), Max: k})
	}
	if g.Ntau() < k {
		panic(&contour.IndexError{Op: "start", Index: g.Ntau(), Max: k})
	}
	sz := eq.size()
	es := sz * sz
	ntau := g.Ntau()
	gp := contour.Herm(g)
	neg := complex(-eq.sign, 0)
	dt := e.dt

	if eq.dyson() {
		xi := complex(0, g.Sign())
		id := linalg.Identity(sz)
		for i := range id {
			g.RetPtr(0, 0)[i] = -1i * id[i]
		}
		for m := 0; m <= ntau; m++ {
			src := g.MatPtr(ntau - m)
			dst := g.TVPtr(0, m)
			for i := range dst {
				dst[i] = xi * src[i]
			}
		}
	}

	// fixed rows are known from the initial condition
	rowsFrom := func(first int, skip int) []int {
		var rows []int
		for i := first; i <= k; i++ {
			if i != skip {
				rows = append(rows, i)
			}
		}
		return rows
	}
	first := 0
	if eq.dyson() {
		first = 1
	}

	// assemble fills the system for the given rows, with rule(i) the quadrature
	// of row i, fixed the column held at known value x0, src the source of row i.
	assemble := func(rows []int, rule func(i int) (lo, hi int, w func(p int) float64), fixed int, x0 []complex128, src func(i int, dst []complex128), s *scratch) ([]complex128, error) {
		b := newBlock(rows, sz)
		c := make([]complex128, es)
		for ri, i := range rows {
			lo, hi, w := rule(i)
			col := func(p int) float64 {
				if p < lo || p > hi {
					return 0
				}
				return w(p) * dt
			}
			for pi, p := range rows {
				eq.coef(c, i, p, col(p), true, s)
				b.set(ri, pi, c)
			}
			r := b.rhsPtr(ri)
			src(i, r)
			if fixed >= 0 {
				eq.coef(c, i, fixed, col(fixed), true, s)
				linalg.MulAdd(r, -1, c, x0, 1, sz)
			}
		}
		return b.solve()
	}

	// retarded, one column j at a time
	err := e.parallel(k+1, func(j int, s *scratch) error {
		s.ensure(es)
		x0 := make([]complex128, es)
		if eq.dyson() {
			for a := 0; a < sz; a++ {
				x0[a*sz+a] = -1i
			}
		} else {
			eq.q.GetRet(j, j, x0)
		}
		rows := rowsFrom(0, j)
		x, err := assemble(rows, func(i int) (int, int, func(int) float64) {
			r := e.in.Weights(j, i)
			return r.Lo(), r.Hi(), r.W
		}, j, x0, func(i int, dst []complex128) {
			for a := range dst {
				dst[a] = 0
			}
			if !eq.dyson() {
				eq.q.GetRet(i, j, dst)
			}
		}, s)
		if err != nil {
			return fmt.Errorf("start ret column %d: %w", j, err)
		}
		copy(g.RetPtr(j, j), x0)
		for ri, i := range rows {
			if i > j {
				copy(g.RetPtr(i, j), x[ri*es:(ri+1)*es])
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	quad0 := func(i int) (int, int, func(int) float64) {
		r := e.in.Weights(0, i)
		return r.Lo(), r.Hi(), r.W
	}

	// mixing, one τ at a time
	err = e.parallel(ntau+1, func(m int, s *scratch) error {
		s.ensure(es)
		rows := rowsFrom(first, -1)
		fixed := -1
		var x0 []complex128
		if eq.dyson() {
			fixed = 0
			x0 = g.TVPtr(0, m)
		}
		x, err := assemble(rows, quad0, fixed, x0, func(i int, dst []complex128) {
			for a := range dst {
				dst[a] = 0
			}
			if !eq.dyson() {
				eq.q.GetTV(i, m, dst)
			}
			acc := make([]complex128, es)
			e.tvMixConv(acc, i, m, eq.kern, gp)
			linalg.Axpy(dst, neg, acc)
		}, s)
		if err != nil {
			return fmt.Errorf("start tv %d: %w", m, err)
		}
		for ri, i := range rows {
			copy(g.TVPtr(i, m), x[ri*es:(ri+1)*es])
		}
		return nil
	})
	if err != nil {
		return err
	}

	// lesser, one column j at a time
	for j := 0; j <= k; j++ {
		if err := eq.lesColumn(j); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	return nil
}
