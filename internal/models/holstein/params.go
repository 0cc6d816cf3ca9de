package holstein

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned for unusable model parameters.
var ErrInvalidParams = errors.New("holstein: invalid parameters")

// Params are the model constants. DHopping and DCoupling are optional
// perturbations of length nt+2, indexed by t+1 for t = -1..nt.
type Params struct {
	Hopping    float64
	Coupling   float64
	PhononFreq float64
	MuMF       float64

	DHopping  []float64
	DCoupling []float64
}

// Validate checks p against a grid with nt real-time steps.
func (p Params) Validate(nt int) error {
	if p.PhononFreq <= 0 {
		return fmt.Errorf("%w: phonon frequency must be positive, got %g", ErrInvalidParams, p.PhononFreq)
	}
	if p.Hopping == 0 {
		return fmt.Errorf("%w: hopping must be non-zero", ErrInvalidParams)
	}
	for name, v := range map[string][]float64{"dhopping": p.DHopping, "del_ph_g": p.DCoupling} {
		if v != nil && len(v) != nt+2 {
			return fmt.Errorf("%w: %s has length %d, want nt+2 = %d", ErrInvalidParams, name, len(v), nt+2)
		}
	}
	return nil
}

func perturbed(base float64, d []float64, t int) float64 {
	if d == nil {
		return base
	}
	return base + d[t+1]
}
