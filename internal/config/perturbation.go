package config

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Perturbation is a time dependent change of a model parameter. In YAML it
// is either an explicit list of nt+2 values for t = -1..nt, or a ramp
// mapping:
//
//	del_ph_g:
//	  shape: step
//	  amplitude: 0.2
//	  start: 1.0
type Perturbation struct {
	Values []float64
	Ramp   *Ramp
}

// Ramp shapes, with t measured from Start.
const (
	ShapeStep   = "step"   // A for t >= 0
	ShapeLinear = "linear" // A t/Duration, then A
	ShapePulse  = "pulse"  // A sin²(π t/Duration) inside the window, else 0
)

type Ramp struct {
	Shape     string  `yaml:"shape"`
	Amplitude float64 `yaml:"amplitude"`
	Start     float64 `yaml:"start"`
	Duration  float64 `yaml:"duration,omitempty"`
}

func (p Perturbation) IsZero() bool { return p.Values == nil && p.Ramp == nil }

func (p *Perturbation) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		p.Ramp = nil
		return node.Decode(&p.Values)
	case yaml.MappingNode:
		p.Values = nil
		p.Ramp = &Ramp{Shape: ShapeStep}
		return node.Decode(p.Ramp)
	default:
		return fmt.Errorf("line %d: perturbation must be a list or a ramp mapping", node.Line)
	}
}

func (p Perturbation) MarshalYAML() (any, error) {
	if p.Ramp != nil {
		return p.Ramp, nil
	}
	return p.Values, nil
}

func (p Perturbation) clone() Perturbation {
	c := Perturbation{}
	if p.Values != nil {
		c.Values = append([]float64(nil), p.Values...)
	}
	if p.Ramp != nil {
		r := *p.Ramp
		c.Ramp = &r
	}
	return c
}

func (p Perturbation) validate(nt int) error {
	if p.Values != nil && len(p.Values) != nt+2 {
		return fmt.Errorf("expected nt+2 = %d values, got %d", nt+2, len(p.Values))
	}
	if r := p.Ramp; r != nil {
		switch r.Shape {
		case ShapeStep:
		case ShapeLinear, ShapePulse:
			if r.Duration <= 0 {
				return fmt.Errorf("%s ramp needs a positive duration", r.Shape)
			}
		default:
			return fmt.Errorf("unknown ramp shape %q", r.Shape)
		}
	}
	return nil
}

// Vector expands p on the grid t_n = n dt, n = -1..nt; element n+1 holds
// the value at t_n and the equilibrium entry is zero for ramps. It returns
// nil for an empty perturbation.
func (p Perturbation) Vector(nt int, dt float64) []float64 {
	if p.Values != nil {
		return append([]float64(nil), p.Values...)
	}
	if p.Ramp == nil {
		return nil
	}
	v := make([]float64, nt+2)
	for n := 0; n <= nt; n++ {
		v[n+1] = p.Ramp.At(float64(n) * dt)
	}
	return v
}

// At returns the ramp value at time t.
func (r *Ramp) At(t float64) float64 {
	s := t - r.Start
	if s < 0 {
		return 0
	}
	switch r.Shape {
	case ShapeLinear:
		return r.Amplitude * math.Min(s/r.Duration, 1)
	case ShapePulse:
		if s > r.Duration {
			return 0
		}
		x := math.Sin(math.Pi * s / r.Duration)
		return r.Amplitude * x * x
	default:
		return r.Amplitude
	}
}
