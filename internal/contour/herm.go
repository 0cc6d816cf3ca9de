package contour

import "github.com/san-kum/kadanoff/internal/linalg"

// HermMatrix is a two-time contour function with Hermitian symmetry.
//
// Layout per element size es = size*size:
//
//	mat  (ntau+1) matrices, M(m)
//	ret  row n holds R(n, 0..n)
//	les  column n holds <(0..n, n)
//	tv   row n holds ⌉(n, 0..ntau)
type HermMatrix struct {
	nt   int
	ntau int
	size int
	es   int
	sig  Statistics

	mat []complex128
	ret []complex128
	les []complex128
	tv  []complex128
}

// NewHermMatrix allocates a zero Green's function. nt = -1 keeps only the
// Matsubara component.
func NewHermMatrix(nt, ntau, size int, sig Statistics) *HermMatrix {
	if nt < -1 || ntau < 0 || size < 1 {
		panic(&IndexError{Op: "NewHermMatrix", Index: nt, Max: -1})
	}
	es := size * size
	tri := (nt + 1) * (nt + 2) / 2
	return &HermMatrix{
		nt:   nt,
		ntau: ntau,
		size: size,
		es:   es,
		sig:  sig,
		mat:  make([]complex128, (ntau+1)*es),
		ret:  make([]complex128, tri*es),
		les:  make([]complex128, tri*es),
		tv:   make([]complex128, (nt+1)*(ntau+1)*es),
	}
}

func (g *HermMatrix) Nt() int                { return g.nt }
func (g *HermMatrix) Ntau() int              { return g.ntau }
func (g *HermMatrix) Size() int              { return g.size }
func (g *HermMatrix) ElementSize() int       { return g.es }
func (g *HermMatrix) Statistics() Statistics { return g.sig }
func (g *HermMatrix) Sign() float64          { return g.sig.Sign() }

func tri(n, m int) int { return n*(n+1)/2 + m }

// MatPtr aliases M(τ_m).
func (g *HermMatrix) MatPtr(m int) []complex128 {
	check("MatPtr", m, 0, g.ntau)
	return g.mat[m*g.es : (m+1)*g.es]
}

// RetPtr aliases R(n, m) for 0 <= m <= n.
func (g *HermMatrix) RetPtr(n, m int) []complex128 {
	check("RetPtr", n, 0, g.nt)
	check("RetPtr", m, 0, n)
	off := tri(n, m) * g.es
	return g.ret[off : off+g.es]
}

// LesPtr aliases <(j, n) for 0 <= j <= n.
func (g *HermMatrix) LesPtr(j, n int) []complex128 {
	check("LesPtr", n, 0, g.nt)
	check("LesPtr", j, 0, n)
	off := tri(n, j) * g.es
	return g.les[off : off+g.es]
}

// TVPtr aliases ⌉(n, τ_m).
func (g *HermMatrix) TVPtr(n, m int) []complex128 {
	check("TVPtr", n, 0, g.nt)
	check("TVPtr", m, 0, g.ntau)
	off := (n*(g.ntau+1) + m) * g.es
	return g.tv[off : off+g.es]
}

// GetMat copies M(τ_m) into dst.
func (g *HermMatrix) GetMat(m int, dst []complex128) { copy(dst, g.MatPtr(m)) }

// GetMatNeg copies M(-τ_m) = ξ M(β-τ_m) into dst.
func (g *HermMatrix) GetMatNeg(m int, dst []complex128) {
	src := g.MatPtr(g.ntau - m)
	xi := complex(g.Sign(), 0)
	for i := range dst[:g.es] {
		dst[i] = xi * src[i]
	}
}

// GetRet copies R(i, j) into dst. For i < j it returns the smooth
// continuation -[R(j,i)]^†.
func (g *HermMatrix) GetRet(i, j int, dst []complex128) { Herm(g).Ret(i, j, dst) }

// GetAdv copies A(i, j) = [R(j,i)]^† into dst.
func (g *HermMatrix) GetAdv(i, j int, dst []complex128) { Herm(g).Adv(i, j, dst) }

// GetLes copies <(i, j) into dst for any i, j.
func (g *HermMatrix) GetLes(i, j int, dst []complex128) { Herm(g).Les(i, j, dst) }

// GetTV copies ⌉(n, τ_m) into dst.
func (g *HermMatrix) GetTV(n, m int, dst []complex128) { copy(dst, g.TVPtr(n, m)) }

// GetVT copies ⌈(τ_m, n) = -ξ [⌉(n, β-τ_m)]^† into dst.
func (g *HermMatrix) GetVT(m, n int, dst []complex128) { Herm(g).VT(m, n, dst) }

// SetRet stores R(n, m).
func (g *HermMatrix) SetRet(n, m int, v []complex128) { copy(g.RetPtr(n, m), v) }

// SetLes stores <(j, n).
func (g *HermMatrix) SetLes(j, n int, v []complex128) { copy(g.LesPtr(j, n), v) }

// SetTV stores ⌉(n, τ_m).
func (g *HermMatrix) SetTV(n, m int, v []complex128) { copy(g.TVPtr(n, m), v) }

// SetMat stores M(τ_m).
func (g *HermMatrix) SetMat(m int, v []complex128) { copy(g.MatPtr(m), v) }

// View returns a borrowed slice of timestep n aliasing g.
func (g *HermMatrix) View(n int) *View {
	check("View", n, -1, g.nt)
	s := &slice{tstp: n, ntau: g.ntau, size: g.size, es: g.es, sig: g.sig}
	if n == -1 {
		s.mat = g.mat
	} else {
		s.ret = g.ret[tri(n, 0)*g.es : tri(n, n+1)*g.es]
		s.les = g.les[tri(n, 0)*g.es : tri(n, n+1)*g.es]
		s.tv = g.tv[n*(g.ntau+1)*g.es : (n+1)*(g.ntau+1)*g.es]
	}
	return &View{slice: s, owner: g}
}

// Timestep returns an owned copy of timestep n.
func (g *HermMatrix) Timestep(n int) *Timestep {
	ts := NewTimestep(n, g.ntau, g.size, g.sig)
	ts.copyFrom(g.View(n))
	return ts
}

// SetTimestep copies src into timestep n of g.
func (g *HermMatrix) SetTimestep(n int, src TimestepData) {
	if src.Tstp() != n || src.Ntau() != g.ntau || src.Size() != g.size {
		panic(&IndexError{Op: "SetTimestep", Index: src.Tstp(), Max: n})
	}
	g.View(n).copyFrom(src)
}

// SetTimestepFrom copies timestep n of src into g.
func (g *HermMatrix) SetTimestepFrom(n int, src *HermMatrix) {
	g.SetTimestep(n, src.View(n))
}

// SetTimestepZero clears timestep n.
func (g *HermMatrix) SetTimestepZero(n int) { g.View(n).SetZero() }

// SmulTimestep multiplies timestep n by w.
func (g *HermMatrix) SmulTimestep(n int, w complex128) { g.View(n).Smul(w) }

// IncrTimestep adds w*src to timestep n.
func (g *HermMatrix) IncrTimestep(n int, src TimestepData, w complex128) {
	g.View(n).Incr(src, w)
}

// IncrTimestepFrom adds w times timestep n of src.
func (g *HermMatrix) IncrTimestepFrom(n int, src *HermMatrix, w complex128) {
	g.IncrTimestep(n, src.View(n), w)
}

// LeftMultiply replaces G(t,t') by w f(t) G(t,t') on timestep n.
func (g *HermMatrix) LeftMultiply(n int, f *Function, w float64) {
	g.multiply(n, f, w, true)
}

// RightMultiply replaces G(t,t') by w G(t,t') f(t') on timestep n.
func (g *HermMatrix) RightMultiply(n int, f *Function, w float64) {
	g.multiply(n, f, w, false)
}

func (g *HermMatrix) multiply(n int, f *Function, w float64, left bool) {
	if f.Size1() != g.size || f.Size2() != g.size {
		panic(&IndexError{Op: "multiply", Index: f.Size1(), Max: g.size})
	}
	sz := g.size
	tmp := make([]complex128, g.es)
	cw := complex(w, 0)
	apply := func(dst, fm []complex128) {
		if left {
			linalg.MulAdd(tmp, cw, fm, dst, 0, sz)
		} else {
			linalg.MulAdd(tmp, cw, dst, fm, 0, sz)
		}
		copy(dst, tmp)
	}
	if n == -1 {
		f0 := f.Ptr(-1)
		for m := 0; m <= g.ntau; m++ {
			apply(g.MatPtr(m), f0)
		}
		return
	}
	fn := f.Ptr(n)
	f0 := f.Ptr(-1)
	for m := 0; m <= n; m++ {
		if left {
			apply(g.RetPtr(n, m), fn)
			apply(g.LesPtr(m, n), f.Ptr(m))
		} else {
			apply(g.RetPtr(n, m), f.Ptr(m))
			apply(g.LesPtr(m, n), fn)
		}
	}
	for m := 0; m <= g.ntau; m++ {
		if left {
			apply(g.TVPtr(n, m), fn)
		} else {
			apply(g.TVPtr(n, m), f0)
		}
	}
}

// SetMatrixElement copies element (j1, j2) of src into element (i1, i2) of g
// on timestep n.
func (g *HermMatrix) SetMatrixElement(n, i1, i2 int, src *HermMatrix, j1, j2 int) {
	di := i1*g.size + i2
	si := j1*src.size + j2
	if n == -1 {
		for m := 0; m <= g.ntau; m++ {
			g.MatPtr(m)[di] = src.MatPtr(m)[si]
		}
		return
	}
	for m := 0; m <= n; m++ {
		g.RetPtr(n, m)[di] = src.RetPtr(n, m)[si]
		g.LesPtr(m, n)[di] = src.LesPtr(m, n)[si]
	}
	for m := 0; m <= g.ntau; m++ {
		g.TVPtr(n, m)[di] = src.TVPtr(n, m)[si]
	}
}

// DensityMatrix returns ρ(t_n); n = -1 gives the equilibrium value -M(β).
func (g *HermMatrix) DensityMatrix(n int) []complex128 {
	rho := make([]complex128, g.es)
	if n == -1 {
		src := g.MatPtr(g.ntau)
		for i := range rho {
			rho[i] = -src[i]
		}
		return rho
	}
	src := g.LesPtr(n, n)
	w := complex(0, g.Sign())
	for i := range rho {
		rho[i] = w * src[i]
	}
	return rho
}

// Clone returns a deep copy.
func (g *HermMatrix) Clone() *HermMatrix {
	c := *g
	c.mat = append([]complex128(nil), g.mat...)
	c.ret = append([]complex128(nil), g.ret...)
	c.les = append([]complex128(nil), g.les...)
	c.tv = append([]complex128(nil), g.tv...)
	return &c
}

// ReduceTimestep stores the sum of parts in timestep n of dst.
func ReduceTimestep(n int, dst *HermMatrix, parts ...TimestepData) {
	v := dst.View(n)
	v.SetZero()
	for _, p := range parts {
		v.Incr(p, 1)
	}
}
