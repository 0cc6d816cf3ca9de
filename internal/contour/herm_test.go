package contour

import (
	"math/cmplx"
	"testing"
)

func fillRandomish(g *HermMatrix) {
	es := g.ElementSize()
	val := func(a, b, c int) complex128 {
		return complex(float64(a+2*b+3*c)*0.1, float64(a-b+c)*0.05)
	}
	for m := 0; m <= g.Ntau(); m++ {
		p := g.MatPtr(m)
		for k := 0; k < es; k++ {
			p[k] = val(m, k, 7)
		}
	}
	for n := 0; n <= g.Nt(); n++ {
		for m := 0; m <= n; m++ {
			r := g.RetPtr(n, m)
			l := g.LesPtr(m, n)
			for k := 0; k < es; k++ {
				r[k] = val(n, m, k)
				l[k] = val(m, k, n) * 1i
			}
		}
		for m := 0; m <= g.Ntau(); m++ {
			p := g.TVPtr(n, m)
			for k := 0; k < es; k++ {
				p[k] = val(n+m, k, 1)
			}
		}
	}
}

func TestLesserHermitianSymmetry(t *testing.T) {
	g := NewHermMatrix(4, 6, 2, Fermion)
	fillRandomish(g)

	a := make([]complex128, 4)
	b := make([]complex128, 4)
	for i := 0; i <= 4; i++ {
		for j := 0; j <= 4; j++ {
			g.GetLes(i, j, a)
			g.GetLes(j, i, b)
			for p := 0; p < 2; p++ {
				for q := 0; q < 2; q++ {
					want := -cmplx.Conj(b[q*2+p])
					if i != j && cmplx.Abs(a[p*2+q]-want) > 1e-14 {
						t.Fatalf("G<(%d,%d)[%d,%d] = %v, want %v", i, j, p, q, a[p*2+q], want)
					}
				}
			}
		}
	}
}

func TestAdvancedIsAdjointOfRetarded(t *testing.T) {
	g := NewHermMatrix(3, 2, 2, Boson)
	fillRandomish(g)

	adv := make([]complex128, 4)
	for i := 0; i <= 3; i++ {
		for j := i; j <= 3; j++ {
			g.GetAdv(i, j, adv)
			ret := g.RetPtr(j, i)
			for p := 0; p < 2; p++ {
				for q := 0; q < 2; q++ {
					if adv[p*2+q] != cmplx.Conj(ret[q*2+p]) {
						t.Errorf("GA(%d,%d) mismatch at [%d,%d]", i, j, p, q)
					}
				}
			}
		}
	}
}

func TestVerticalMixing(t *testing.T) {
	tests := []struct {
		name string
		sig  Statistics
	}{
		{"fermion", Fermion},
		{"boson", Boson},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewHermMatrix(2, 5, 1, tt.sig)
			g.TVPtr(1, 5-2)[0] = complex(0.3, -0.7)
			vt := make([]complex128, 1)
			g.GetVT(2, 1, vt)
			want := -complex(tt.sig.Sign(), 0) * complex(0.3, 0.7)
			if vt[0] != want {
				t.Errorf("G⌈ = %v, want %v", vt[0], want)
			}
		})
	}
}

func TestMatsubaraNegativeArgument(t *testing.T) {
	g := NewHermMatrix(-1, 4, 1, Fermion)
	g.MatPtr(3)[0] = 0.25
	dst := make([]complex128, 1)
	g.GetMatNeg(1, dst)
	if dst[0] != -0.25 {
		t.Errorf("GM(-τ) = %v, want -0.25", dst[0])
	}
}

func TestViewAliasesOwner(t *testing.T) {
	g := NewHermMatrix(3, 4, 2, Fermion)
	v := g.View(2)
	v.RetPtr(1)[3] = 2.5
	v.LesPtr(0)[1] = 1i
	v.TVPtr(4)[0] = -1

	if g.RetPtr(2, 1)[3] != 2.5 {
		t.Error("retarded write through view not visible")
	}
	if g.LesPtr(0, 2)[1] != 1i {
		t.Error("lesser write through view not visible")
	}
	if g.TVPtr(2, 4)[0] != -1 {
		t.Error("mixing write through view not visible")
	}
	if v.Owner() != g {
		t.Error("view owner mismatch")
	}
}

func TestTimestepIsOwned(t *testing.T) {
	g := NewHermMatrix(3, 4, 1, Fermion)
	fillRandomish(g)
	ts := g.Timestep(3)
	before := g.RetPtr(3, 2)[0]
	ts.RetPtr(2)[0] = 42
	if g.RetPtr(3, 2)[0] != before {
		t.Error("timestep copy aliases owner")
	}

	h := NewHermMatrix(3, 4, 1, Fermion)
	h.SetTimestep(3, ts)
	if h.RetPtr(3, 2)[0] != 42 {
		t.Errorf("SetTimestep: got %v", h.RetPtr(3, 2)[0])
	}
	if d := DistanceNorm2(3, h.View(3), ts); d != 0 {
		t.Errorf("distance after copy = %v", d)
	}
}

func TestTimestepArithmetic(t *testing.T) {
	g := NewHermMatrix(2, 3, 1, Boson)
	fillRandomish(g)
	h := g.Clone()

	h.SmulTimestep(2, 3)
	h.IncrTimestepFrom(2, g, -2)
	if d := DistanceNorm2(2, h.View(2), g.View(2)); d > 1e-12 {
		t.Errorf("3g-2g differs from g by %v", d)
	}

	h.SetTimestepZero(2)
	for m := 0; m <= 2; m++ {
		if h.RetPtr(2, m)[0] != 0 || h.LesPtr(m, 2)[0] != 0 {
			t.Fatal("timestep not cleared")
		}
	}
	if h.RetPtr(1, 0)[0] != g.RetPtr(1, 0)[0] {
		t.Error("clearing timestep 2 touched timestep 1")
	}

	ReduceTimestep(1, h, g.View(1), g.View(1))
	if h.RetPtr(1, 1)[0] != 2*g.RetPtr(1, 1)[0] {
		t.Error("ReduceTimestep did not sum parts")
	}
}

func TestLeftRightMultiply(t *testing.T) {
	g := NewHermMatrix(2, 2, 1, Fermion)
	fillRandomish(g)
	orig := g.Clone()

	f := NewFunction(2, 1, 1)
	for n := -1; n <= 2; n++ {
		f.SetScalar(n, complex(float64(n+2), 0))
	}
	g.LeftMultiply(2, f, 0.5)
	if got, want := g.RetPtr(2, 1)[0], 0.5*4*orig.RetPtr(2, 1)[0]; got != want {
		t.Errorf("left ret = %v, want %v", got, want)
	}
	if got, want := g.LesPtr(1, 2)[0], 0.5*3*orig.LesPtr(1, 2)[0]; got != want {
		t.Errorf("left les = %v, want %v", got, want)
	}

	g = orig.Clone()
	g.RightMultiply(2, f, 1)
	if got, want := g.TVPtr(2, 1)[0], 1*orig.TVPtr(2, 1)[0]; got != want {
		t.Errorf("right tv = %v, want %v", got, want)
	}
	if got, want := g.RetPtr(2, 0)[0], 2*orig.RetPtr(2, 0)[0]; got != want {
		t.Errorf("right ret = %v, want %v", got, want)
	}
}

func TestSetMatrixElement(t *testing.T) {
	src := NewHermMatrix(1, 2, 1, Fermion)
	fillRandomish(src)
	dst := NewHermMatrix(1, 2, 2, Fermion)
	for n := -1; n <= 1; n++ {
		dst.SetMatrixElement(n, 1, 1, src, 0, 0)
	}
	if dst.RetPtr(1, 0)[3] != src.RetPtr(1, 0)[0] {
		t.Error("retarded element not copied")
	}
	if dst.MatPtr(2)[3] != src.MatPtr(2)[0] {
		t.Error("matsubara element not copied")
	}
	if dst.RetPtr(1, 0)[0] != 0 {
		t.Error("untouched element changed")
	}
}

func TestIndexPanics(t *testing.T) {
	g := NewHermMatrix(2, 3, 1, Fermion)
	cases := []struct {
		name string
		fn   func()
	}{
		{"ret above diagonal", func() { g.RetPtr(1, 2) }},
		{"timestep beyond nt", func() { g.View(3) }},
		{"tau beyond ntau", func() { g.TVPtr(0, 4) }},
		{"matsubara of real timestep", func() { g.View(1).MatPtr(0) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if _, ok := r.(*IndexError); !ok {
					t.Errorf("expected *IndexError panic, got %v", r)
				}
			}()
			tc.fn()
		})
	}
}

func TestDensityMatrix(t *testing.T) {
	g := NewHermMatrix(1, 3, 1, Fermion)
	g.MatPtr(3)[0] = -0.3
	g.LesPtr(1, 1)[0] = 0.4i
	if rho := g.DensityMatrix(-1); rho[0] != 0.3 {
		t.Errorf("equilibrium density = %v", rho[0])
	}
	if rho := g.DensityMatrix(1); cmplx.Abs(rho[0]-0.4) > 1e-15 {
		t.Errorf("density = %v", rho[0])
	}
}
