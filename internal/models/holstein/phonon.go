package holstein

import "math"

// force returns F(t) = g(t) n(t), the source of the classical phonon.
func (m *Model) force(n int) float64 {
	return m.coupling(n) * real(m.Ntot.At(n, 0, 0))
}

// displacement stores X(t_n). With ∂_t X = ω0 P and ∂_t P = -ω0 X - 2F,
//
//	X(t) = X_eq - 2 ∫_0^t sin(ω0(t-s)) [F(s) - F_eq] ds,  X_eq = -2 F_eq/ω0.
func (m *Model) displacement(n int) {
	w0 := m.p.PhononFreq
	feq := m.force(-1)
	if n == -1 {
		m.Xph.SetScalar(-1, complex(-2*feq/w0, 0))
		return
	}
	x := real(m.Xph.At(-1, 0, 0)) - 2*m.history(n, math.Sin)
	m.Xph.SetScalar(n, complex(x, 0))
}

// momentum returns P(t_n) = -2 ∫_0^t cos(ω0(t-s)) [F(s) - F_eq] ds.
func (m *Model) momentum(n int) float64 {
	if n == -1 {
		return 0
	}
	return -2 * m.history(n, math.Cos)
}

// history integrates kernel(ω0(t_n-s)) [F(s) - F_eq] over [0, t_n].
func (m *Model) history(n int, kernel func(float64) float64) float64 {
	w0 := m.p.PhononFreq
	dt := m.engine.Dt()
	feq := m.force(-1)
	r := m.engine.Integrator().Weights(0, n)
	var sum float64
	for p := r.Lo(); p <= r.Hi(); p++ {
		w := r.W(p)
		if w == 0 {
			continue
		}
		sum += w * kernel(w0*float64(n-p)*dt) * (m.force(p) - feq)
	}
	return sum * dt
}
