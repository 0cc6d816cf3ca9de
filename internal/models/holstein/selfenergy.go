package holstein

import (
	"github.com/san-kum/kadanoff/internal/contour"
)

// sigmaTimestep stores timestep n of the Migdal self-energy
//
//	Σ(t,t') = i g(t) g(t') D0(t,t') G(t,t')
//
// whose components are
//
//	Σ^R = i g g [D^R G^< + D^< G^R + D^R G^R]
//	Σ^< = i g g D^< G^<
//	Σ^⌉ = i g(t) g(-1) D^⌉ G^⌉
//	Σ^M = -g(-1)² D^M G^M
func (m *Model) sigmaTimestep(n int, g *contour.HermMatrix) {
	s := m.Sigma
	d := m.D0
	es := g.ElementSize()

	if n == -1 {
		g0 := m.coupling(-1)
		w := complex(-g0*g0, 0)
		for k := 0; k <= g.Ntau(); k++ {
			scaleInto(s.MatPtr(k), w*d.MatPtr(k)[0], g.MatPtr(k))
		}
		return
	}

	gp := contour.Herm(g)
	dp := contour.Herm(m.D0)
	gr := make([]complex128, es)
	gl := make([]complex128, es)
	dr := make([]complex128, 1)
	dl := make([]complex128, 1)

	gn := m.coupling(n)
	for j := 0; j <= n; j++ {
		c := complex(0, gn*m.coupling(j))

		gp.Ret(n, j, gr)
		gp.Les(n, j, gl)
		dp.Ret(n, j, dr)
		dp.Les(n, j, dl)
		dst := s.RetPtr(n, j)
		for i := range dst {
			dst[i] = c * (dr[0]*gl[i] + dl[0]*gr[i] + dr[0]*gr[i])
		}

		scaleInto(s.LesPtr(j, n), c*d.LesPtr(j, n)[0], g.LesPtr(j, n))
	}

	c := complex(0, gn*m.coupling(-1))
	for k := 0; k <= g.Ntau(); k++ {
		scaleInto(s.TVPtr(n, k), c*d.TVPtr(n, k)[0], g.TVPtr(n, k))
	}
}

func scaleInto(dst []complex128, w complex128, src []complex128) {
	for i := range dst {
		dst[i] = w * src[i]
	}
}
