package contour

// TimestepData is the read access shared by owned and borrowed time slices.
type TimestepData interface {
	Tstp() int
	Ntau() int
	Size() int
	RetPtr(m int) []complex128
	TVPtr(m int) []complex128
	LesPtr(j int) []complex128
	MatPtr(m int) []complex128
}

type slice struct {
	tstp int
	ntau int
	size int
	es   int
	sig  Statistics

	ret []complex128
	tv  []complex128
	les []complex128
	mat []complex128
}

func (s *slice) Tstp() int              { return s.tstp }
func (s *slice) Ntau() int              { return s.ntau }
func (s *slice) Size() int              { return s.size }
func (s *slice) Statistics() Statistics { return s.sig }

// RetPtr aliases R(tstp, m).
func (s *slice) RetPtr(m int) []complex128 {
	check("Timestep.RetPtr", m, 0, s.tstp)
	return s.ret[m*s.es : (m+1)*s.es]
}

// TVPtr aliases ⌉(tstp, τ_m).
func (s *slice) TVPtr(m int) []complex128 {
	check("Timestep.TVPtr", m, 0, s.ntau)
	if s.tstp == -1 {
		panic(&IndexError{Op: "Timestep.TVPtr", Index: s.tstp, Max: -1})
	}
	return s.tv[m*s.es : (m+1)*s.es]
}

// LesPtr aliases <(j, tstp).
func (s *slice) LesPtr(j int) []complex128 {
	check("Timestep.LesPtr", j, 0, s.tstp)
	return s.les[j*s.es : (j+1)*s.es]
}

// MatPtr aliases M(τ_m); valid only for tstp = -1.
func (s *slice) MatPtr(m int) []complex128 {
	check("Timestep.MatPtr", m, 0, s.ntau)
	if s.tstp != -1 {
		panic(&IndexError{Op: "Timestep.MatPtr", Index: s.tstp, Max: -1})
	}
	return s.mat[m*s.es : (m+1)*s.es]
}

// SetZero clears every stored entry.
func (s *slice) SetZero() {
	for _, b := range [][]complex128{s.ret, s.tv, s.les, s.mat} {
		for i := range b {
			b[i] = 0
		}
	}
}

// Smul multiplies every stored entry by w.
func (s *slice) Smul(w complex128) {
	for _, b := range [][]complex128{s.ret, s.tv, s.les, s.mat} {
		for i := range b {
			b[i] *= w
		}
	}
}

// Incr adds w*src.
func (s *slice) Incr(src TimestepData, w complex128) {
	s.combine(src, func(dst, v []complex128) {
		for i := range dst {
			dst[i] += w * v[i]
		}
	})
}

// Set overwrites every stored entry with src.
func (s *slice) Set(src TimestepData) { s.copyFrom(src) }

func (s *slice) copyFrom(src TimestepData) {
	s.combine(src, func(dst, v []complex128) { copy(dst, v) })
}

func (s *slice) combine(src TimestepData, op func(dst, v []complex128)) {
	if src.Tstp() != s.tstp || src.Ntau() != s.ntau || src.Size() != s.size {
		panic(&IndexError{Op: "Timestep.combine", Index: src.Tstp(), Max: s.tstp})
	}
	if s.tstp == -1 {
		for m := 0; m <= s.ntau; m++ {
			op(s.MatPtr(m), src.MatPtr(m))
		}
		return
	}
	for m := 0; m <= s.tstp; m++ {
		op(s.RetPtr(m), src.RetPtr(m))
		op(s.LesPtr(m), src.LesPtr(m))
	}
	for m := 0; m <= s.ntau; m++ {
		op(s.TVPtr(m), src.TVPtr(m))
	}
}

// Timestep is an owned copy of one time slice.
type Timestep struct {
	*slice
}

// NewTimestep allocates a zero slice for timestep tstp.
func NewTimestep(tstp, ntau, size int, sig Statistics) *Timestep {
	if tstp < -1 || ntau < 0 || size < 1 {
		panic(&IndexError{Op: "NewTimestep", Index: tstp, Max: -1})
	}
	es := size * size
	s := &slice{tstp: tstp, ntau: ntau, size: size, es: es, sig: sig}
	if tstp == -1 {
		s.mat = make([]complex128, (ntau+1)*es)
	} else {
		s.ret = make([]complex128, (tstp+1)*es)
		s.les = make([]complex128, (tstp+1)*es)
		s.tv = make([]complex128, (ntau+1)*es)
	}
	return &Timestep{slice: s}
}

// Clone returns a deep copy.
func (t *Timestep) Clone() *Timestep {
	c := NewTimestep(t.tstp, t.ntau, t.size, t.sig)
	c.copyFrom(t)
	return c
}

// View aliases one timestep of a HermMatrix. Writes through a view change
// the owner.
type View struct {
	*slice
	owner *HermMatrix
}

// Owner returns the matrix the view borrows from.
func (v *View) Owner() *HermMatrix { return v.owner }

// DistanceNorm2 returns the summed Frobenius distance between timestep n of
// a and b over every stored entry.
func DistanceNorm2(n int, a, b TimestepData) float64 {
	if a.Tstp() != n || b.Tstp() != n || a.Size() != b.Size() || a.Ntau() != b.Ntau() {
		panic(&IndexError{Op: "DistanceNorm2", Index: n, Max: a.Tstp()})
	}
	var d float64
	if n == -1 {
		for m := 0; m <= a.Ntau(); m++ {
			d += frob(a.MatPtr(m), b.MatPtr(m))
		}
		return d
	}
	for m := 0; m <= n; m++ {
		d += frob(a.RetPtr(m), b.RetPtr(m))
		d += frob(a.LesPtr(m), b.LesPtr(m))
	}
	for m := 0; m <= a.Ntau(); m++ {
		d += frob(a.TVPtr(m), b.TVPtr(m))
	}
	return d
}
