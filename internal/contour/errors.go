package contour

import "fmt"

// Statistics selects the sign rules of a contour function.
type Statistics int

const (
	Fermion Statistics = -1
	Boson   Statistics = 1
)

// Sign returns ξ = -1 for fermions and +1 for bosons.
func (s Statistics) Sign() float64 { return float64(s) }

func (s Statistics) String() string {
	switch s {
	case Fermion:
		return "fermion"
	case Boson:
		return "boson"
	default:
		return fmt.Sprintf("Statistics(%d)", int(s))
	}
}

// IndexError describes a contour index outside the stored range. It is the
// panic value for precondition violations.
type IndexError struct {
	Op    string
	Index int
	Max   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("contour: index out of range in %s: %d (max %d)", e.Op, e.Index, e.Max)
}

func check(op string, idx, lo, hi int) {
	if idx < lo || idx > hi {
		panic(&IndexError{Op: op, Index: idx, Max: hi})
	}
}
