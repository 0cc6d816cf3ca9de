package contour

import "github.com/san-kum/kadanoff/internal/linalg"

// Function is a matrix valued function of one real time, t = -1..nt.
type Function struct {
	nt    int
	size1 int
	size2 int
	es    int
	data  []complex128
}

// NewFunction allocates a zero function of size1×size2 matrices.
func NewFunction(nt, size1, size2 int) *Function {
	if nt < -1 || size1 < 1 || size2 < 1 {
		panic(&IndexError{Op: "NewFunction", Index: nt, Max: -1})
	}
	es := size1 * size2
	return &Function{
		nt:    nt,
		size1: size1,
		size2: size2,
		es:    es,
		data:  make([]complex128, (nt+2)*es),
	}
}

func (f *Function) Nt() int    { return f.nt }
func (f *Function) Size1() int { return f.size1 }
func (f *Function) Size2() int { return f.size2 }

// Ptr returns the matrix stored at time t. The slice aliases f.
func (f *Function) Ptr(t int) []complex128 {
	check("Function.Ptr", t, -1, f.nt)
	off := (t + 1) * f.es
	return f.data[off : off+f.es]
}

// Value copies f(t) into a new slice.
func (f *Function) Value(t int) []complex128 {
	out := make([]complex128, f.es)
	copy(out, f.Ptr(t))
	return out
}

// At returns element (i, j) of f(t).
func (f *Function) At(t, i, j int) complex128 {
	return f.Ptr(t)[i*f.size2+j]
}

// SetValue stores m at time t.
func (f *Function) SetValue(t int, m []complex128) {
	copy(f.Ptr(t), m[:f.es])
}

// SetScalar stores x times the identity at time t (square functions only).
func (f *Function) SetScalar(t int, x complex128) {
	p := f.Ptr(t)
	for i := range p {
		p[i] = 0
	}
	for i := 0; i < f.size1 && i < f.size2; i++ {
		p[i*f.size2+i] = x
	}
}

// SetConstant stores m at every time.
func (f *Function) SetConstant(m []complex128) {
	for t := -1; t <= f.nt; t++ {
		f.SetValue(t, m)
	}
}

func (f *Function) SetZero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Scale multiplies f(t) by w at every time.
func (f *Function) Scale(w complex128) {
	linalg.Scale(f.data, w)
}

// Incr adds w*g to f.
func (f *Function) Incr(g *Function, w complex128) {
	linalg.Axpy(f.data, w, g.data)
}

// Clone returns a deep copy.
func (f *Function) Clone() *Function {
	c := *f
	c.data = make([]complex128, len(f.data))
	copy(c.data, f.data)
	return &c
}
