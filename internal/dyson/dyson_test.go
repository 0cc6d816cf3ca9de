package dyson

import (
	"errors"
	"fmt"
	"math/cmplx"
	"testing"

	"github.com/san-kum/kadanoff/internal/compute"
	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/integration"
)

// embedding is level 1 of the 2×2 test Hamiltonian with level 2 folded into
// the self-energy Σ = λ² g_2; its exact solution is element (0,0) of the
// 2×2 free Green's function.
type embedding struct {
	nt, ntau int
	dt       float64
	hf       *contour.Function
	sigma    *contour.HermMatrix
	exact    *contour.HermMatrix
	engine   *Engine
}

func newEmbedding(t testing.TB, nt, ntau int, dt float64, k int) *embedding {
	t.Helper()
	g2x2 := contour.NewHermMatrix(nt, ntau, 2, contour.Fermion)
	if err := GreenFromH(g2x2, testMu, testH2x2(), testBeta, dt); err != nil {
		t.Fatal(err)
	}
	exact := contour.NewHermMatrix(nt, ntau, 1, contour.Fermion)
	for n := -1; n <= nt; n++ {
		exact.SetMatrixElement(n, 0, 0, g2x2, 0, 0)
	}

	sigma := contour.NewHermMatrix(nt, ntau, 1, contour.Fermion)
	if err := GreenFromH(sigma, testMu, []complex128{testEps2}, testBeta, dt); err != nil {
		t.Fatal(err)
	}
	for n := -1; n <= nt; n++ {
		sigma.SmulTimestep(n, testLam*testLam)
	}

	hf := contour.NewFunction(nt, 1, 1)
	hf.SetConstant([]complex128{testEps1})

	return &embedding{
		nt: nt, ntau: ntau, dt: dt,
		hf: hf, sigma: sigma, exact: exact,
		engine: New(integration.MustNew(k), testBeta, dt),
	}
}

func (em *embedding) matsubara(t testing.TB, method Method) *contour.HermMatrix {
	t.Helper()
	g := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	if err := em.engine.DysonMat(g, testMu, em.hf, em.sigma, method); err != nil {
		t.Fatalf("DysonMat: %v", err)
	}
	return g
}

func (em *embedding) averageError(g *contour.HermMatrix) float64 {
	return DistanceNorm2Range(0, em.nt, em.exact, g) / float64(em.nt)
}

func TestDysonMatEmbedding(t *testing.T) {
	em := newEmbedding(t, -1, 400, 0.05, 5)
	for _, method := range []Method{Fixpoint, Spectral} {
		t.Run(method.String(), func(t *testing.T) {
			g := em.matsubara(t, method)
			if d := DistanceNorm2(-1, g, em.exact); d > 1e-5 {
				t.Errorf("matsubara error %e", d)
			}
		})
	}
}

// At β = 10 and unit hybridisation the kernel F = -g_0*Σ has norm well
// above one, out of reach of plain successive substitution.
func TestDysonMatStrongCoupling(t *testing.T) {
	const beta, lam, ntau = 10.0, 1.0, 400
	h := []complex128{0, complex(0, lam), complex(0, -lam), 0}
	full := contour.NewHermMatrix(-1, ntau, 2, contour.Fermion)
	if err := GreenFromH(full, 0, h, beta, 0.02); err != nil {
		t.Fatal(err)
	}
	exact := contour.NewHermMatrix(-1, ntau, 1, contour.Fermion)
	exact.SetMatrixElement(-1, 0, 0, full, 0, 0)

	sigma := contour.NewHermMatrix(-1, ntau, 1, contour.Fermion)
	if err := GreenFromH(sigma, 0, []complex128{0}, beta, 0.02); err != nil {
		t.Fatal(err)
	}
	sigma.SmulTimestep(-1, lam*lam)
	hf := contour.NewFunction(-1, 1, 1)
	hf.SetConstant([]complex128{0})

	e := New(integration.MustNew(5), beta, 0.02)
	for _, method := range []Method{Fixpoint, Spectral} {
		t.Run(method.String(), func(t *testing.T) {
			g := contour.NewHermMatrix(-1, ntau, 1, contour.Fermion)
			if err := e.DysonMat(g, 0, hf, sigma, method); err != nil {
				t.Fatalf("DysonMat: %v", err)
			}
			if d := DistanceNorm2(-1, g, exact); d > 1e-5 {
				t.Errorf("matsubara error %e", d)
			}
		})
	}
}

func TestDysonMatReportsResidual(t *testing.T) {
	em := newEmbedding(t, -1, 100, 0.05, 5)
	e := em.engine.WithInnerTolerance(1e-30, 1)
	g := contour.NewHermMatrix(-1, em.ntau, 1, contour.Fermion)
	err := e.DysonMat(g, testMu, em.hf, em.sigma, Fixpoint)
	var ie *InnerError
	if !errors.As(err, &ie) {
		t.Fatalf("DysonMat error = %v, want *InnerError", err)
	}
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("error %v does not wrap ErrNotConverged", err)
	}
	if ie.Residual <= 0 || ie.Iterations != 1 {
		t.Errorf("InnerError = %+v, want positive residual after 1 iteration", ie)
	}
}

func TestDysonEmbeddingIntegroDifferential(t *testing.T) {
	if testing.Short() {
		t.Skip("long propagation")
	}
	em := newEmbedding(t, 200, 400, 0.05, 5)
	g := em.matsubara(t, Fixpoint)
	e := em.engine

	if err := e.DysonStart(g, testMu, em.hf, em.sigma); err != nil {
		t.Fatalf("DysonStart: %v", err)
	}
	for n := e.K() + 1; n <= em.nt; n++ {
		if err := e.DysonTimestep(n, g, testMu, em.hf, em.sigma); err != nil {
			t.Fatalf("DysonTimestep(%d): %v", n, err)
		}
	}
	if err := em.averageError(g); err > 1e-3 {
		t.Errorf("integro-differential error %e exceeds 1e-3", err)
	}
}

func TestDysonTimestepOrdersStayBounded(t *testing.T) {
	if testing.Short() {
		t.Skip("long propagation")
	}
	tests := []struct {
		k   int
		tol float64 // average error, 0 for bound check only
	}{
		{k: 1},
		{k: 2},
		{k: 3, tol: 1e-2},
		{k: 4, tol: 1e-2},
		{k: 5, tol: 1e-3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d", tt.k), func(t *testing.T) {
			em := newEmbedding(t, 200, 200, 0.05, tt.k)
			g := em.matsubara(t, Spectral)
			e := em.engine
			if err := e.DysonStart(g, testMu, em.hf, em.sigma); err != nil {
				t.Fatalf("DysonStart: %v", err)
			}
			for n := e.K() + 1; n <= em.nt; n++ {
				if err := e.DysonTimestep(n, g, testMu, em.hf, em.sigma); err != nil {
					t.Fatalf("DysonTimestep(%d): %v", n, err)
				}
			}
			// a single level has |G^<| <= 1 and |G^R| <= 1
			for n := 0; n <= em.nt; n++ {
				for j := 0; j <= n; j++ {
					les := g.LesPtr(j, n)[0]
					ret := g.RetPtr(n, j)[0]
					if !(cmplx.Abs(les) <= 1.05) || !(cmplx.Abs(ret) <= 1.05) {
						t.Fatalf("G(%d,%d) out of bounds: les %v ret %v", j, n, les, ret)
					}
				}
			}
			if tt.tol > 0 {
				if err := em.averageError(g); err > tt.tol {
					t.Errorf("average error %e exceeds %e", err, tt.tol)
				}
			}
		})
	}
}

func TestDysonEmbeddingIntegral(t *testing.T) {
	if testing.Short() {
		t.Skip("long propagation")
	}
	em := newEmbedding(t, 200, 400, 0.05, 5)
	g := em.matsubara(t, Fixpoint)
	e := em.engine
	k := e.K()

	g0 := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	if err := GreenFromH(g0, testMu, []complex128{testEps1}, testBeta, em.dt); err != nil {
		t.Fatal(err)
	}
	f := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	fcc := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	kernel := func(n int) {
		if err := e.ConvolutionTimestep(n, f, contour.Herm(g0), contour.Herm(em.sigma)); err != nil {
			t.Fatal(err)
		}
		if err := e.ConvolutionTimestep(n, fcc, contour.Herm(em.sigma), contour.Herm(g0)); err != nil {
			t.Fatal(err)
		}
		f.SmulTimestep(n, -1)
		fcc.SmulTimestep(n, -1)
	}

	for n := 0; n <= k; n++ {
		kernel(n)
	}
	fp := contour.NewPair(f, fcc)
	if err := e.VIE2Start(g, fp, g0); err != nil {
		t.Fatalf("VIE2Start: %v", err)
	}
	for n := k + 1; n <= em.nt; n++ {
		kernel(n)
		if err := e.VIE2Timestep(n, g, fp, g0); err != nil {
			t.Fatalf("VIE2Timestep(%d): %v", n, err)
		}
	}
	if err := em.averageError(g); err > 1e-6 {
		t.Errorf("integral form error %e exceeds 1e-6", err)
	}
}

func TestVIE2MatMatchesDysonMat(t *testing.T) {
	em := newEmbedding(t, -1, 200, 0.05, 4)
	e := em.engine
	g := em.matsubara(t, Spectral)

	g0 := contour.NewHermMatrix(-1, em.ntau, 1, contour.Fermion)
	if err := GreenFromH(g0, testMu, []complex128{testEps1}, testBeta, em.dt); err != nil {
		t.Fatal(err)
	}
	f := contour.NewHermMatrix(-1, em.ntau, 1, contour.Fermion)
	if err := e.MatsubaraConvolution(f, g0, em.sigma); err != nil {
		t.Fatal(err)
	}
	f.SmulTimestep(-1, -1)
	g2 := contour.NewHermMatrix(-1, em.ntau, 1, contour.Fermion)
	if err := e.VIE2Mat(g2, f, g0, Fixpoint); err != nil {
		t.Fatal(err)
	}
	if d := DistanceNorm2(-1, g, g2); d > 1e-9 {
		t.Errorf("VIE2Mat and DysonMat differ by %e", d)
	}
}

func TestConvolutionParallelEquivalence(t *testing.T) {
	em := newEmbedding(t, 14, 30, 0.05, 4)
	serial := em.engine.WithBackend(compute.NewSerialBackend())
	parallel := em.engine.WithBackend(compute.NewCPUBackendN(4))

	g := em.exact
	c1 := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	c2 := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	if err := serial.Convolution(c1, contour.Herm(em.sigma), contour.Herm(g)); err != nil {
		t.Fatal(err)
	}
	if err := parallel.Convolution(c2, contour.Herm(em.sigma), contour.Herm(g)); err != nil {
		t.Fatal(err)
	}
	for n := -1; n <= em.nt; n++ {
		if d := DistanceNorm2(n, c1, c2); d != 0 {
			t.Errorf("timestep %d: parallel result differs by %e", n, d)
		}
	}
}

func TestDysonCausality(t *testing.T) {
	em := newEmbedding(t, 16, 60, 0.05, 3)
	e := em.engine
	const cut = 10

	solve := func(sigma *contour.HermMatrix) *contour.HermMatrix {
		g := em.matsubara(t, Fixpoint)
		if err := e.DysonStart(g, testMu, em.hf, sigma); err != nil {
			t.Fatal(err)
		}
		for n := e.K() + 1; n <= em.nt; n++ {
			if err := e.DysonTimestep(n, g, testMu, em.hf, sigma); err != nil {
				t.Fatal(err)
			}
		}
		return g
	}

	g1 := solve(em.sigma)
	perturbed := em.sigma.Clone()
	for n := cut + 1; n <= em.nt; n++ {
		perturbed.SmulTimestep(n, 3+1i)
	}
	g2 := solve(perturbed)

	for n := 0; n <= cut; n++ {
		if d := DistanceNorm2(n, g1, g2); d != 0 {
			t.Errorf("timestep %d changed by a perturbation of later timesteps: %e", n, d)
		}
	}
	if d := DistanceNorm2(em.nt, g1, g2); d == 0 {
		t.Error("perturbation had no effect on the last timestep")
	}
}

func TestCorrelationEnergyStationary(t *testing.T) {
	em := newEmbedding(t, 12, 400, 0.05, 5)
	e := em.engine
	eq := e.CorrelationEnergy(-1, em.exact, em.sigma)
	for _, n := range []int{0, 6, 12} {
		if got := e.CorrelationEnergy(n, em.exact, em.sigma); abs(got-eq) > 1e-6 {
			t.Errorf("E_corr(t%d) = %.9f, equilibrium %.9f", n, got, eq)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func BenchmarkConvolutionTimestep(b *testing.B) {
	em := newEmbedding(b, 40, 100, 0.05, 5)
	c := contour.NewHermMatrix(em.nt, em.ntau, 1, contour.Fermion)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := em.engine.ConvolutionTimestep(em.nt, c, contour.Herm(em.sigma), contour.Herm(em.exact)); err != nil {
			b.Fatal(err)
		}
	}
}
