package contour

import "github.com/san-kum/kadanoff/internal/linalg"

// Pair reads a contour function A whose missing triangle is taken from a
// partner Cc with Cc(t,t') = A(t',t)^†. For a Hermitian function both are
// the same matrix, see [Herm].
type Pair struct {
	A  *HermMatrix
	Cc *HermMatrix
}

// Herm pairs g with itself.
func Herm(g *HermMatrix) Pair { return Pair{A: g, Cc: g} }

// NewPair checks the shapes of a and cc. A nil cc means a is Hermitian.
func NewPair(a, cc *HermMatrix) Pair {
	if cc == nil {
		return Herm(a)
	}
	if a.size != cc.size || a.ntau != cc.ntau || a.sig != cc.sig || a.nt > cc.nt {
		panic(&IndexError{Op: "NewPair", Index: cc.nt, Max: a.nt})
	}
	return Pair{A: a, Cc: cc}
}

func (p Pair) Size() int     { return p.A.size }
func (p Pair) Ntau() int     { return p.A.ntau }
func (p Pair) Nt() int       { return p.A.nt }
func (p Pair) Sign() float64 { return p.A.sig.Sign() }

// Ret copies A^R(i,j). Above the diagonal it returns the continuation
// -[Cc^R(j,i)]^†, which is smooth across i = j.
func (p Pair) Ret(i, j int, dst []complex128) {
	if i >= j {
		copy(dst, p.A.RetPtr(i, j))
		return
	}
	linalg.NegAdjoint(dst, p.Cc.RetPtr(j, i), p.A.size)
}

// Adv copies A^A(i,j) = [Cc^R(j,i)]^†, continued below the diagonal.
func (p Pair) Adv(i, j int, dst []complex128) {
	if j >= i {
		linalg.Adjoint(dst, p.Cc.RetPtr(j, i), p.A.size)
		return
	}
	src := p.A.RetPtr(i, j)
	for k := range dst[:p.A.es] {
		dst[k] = -src[k]
	}
}

// Les copies A^<(i,j) for any i, j.
func (p Pair) Les(i, j int, dst []complex128) {
	if i <= j {
		copy(dst, p.A.LesPtr(i, j))
		return
	}
	linalg.NegAdjoint(dst, p.Cc.LesPtr(j, i), p.A.size)
}

// TV copies A^⌉(n, τ_m).
func (p Pair) TV(n, m int, dst []complex128) { copy(dst, p.A.TVPtr(n, m)) }

// VT copies A^⌈(τ_m, n) = -ξ [Cc^⌉(n, β-τ_m)]^†.
func (p Pair) VT(m, n int, dst []complex128) {
	src := p.Cc.TVPtr(n, p.A.ntau-m)
	sz := p.A.size
	if p.A.sig == Fermion {
		linalg.Adjoint(dst, src, sz)
		return
	}
	linalg.NegAdjoint(dst, src, sz)
}

// Mat copies A^M(τ_m).
func (p Pair) Mat(m int, dst []complex128) { copy(dst, p.A.MatPtr(m)) }

// MatNeg copies A^M(-τ_m) = ξ A^M(β-τ_m).
func (p Pair) MatNeg(m int, dst []complex128) { p.A.GetMatNeg(m, dst) }

func frob(a, b []complex128) float64 { return linalg.FrobeniusDistance(a, b) }
