package integration

import "math/big"

// poly is a polynomial with exact rational coefficients, c[p] multiplies x^p.
type poly []*big.Rat

func newPoly(deg int) poly {
	p := make(poly, deg+1)
	for i := range p {
		p[i] = new(big.Rat)
	}
	return p
}

func ratInt(v int) *big.Rat { return new(big.Rat).SetInt64(int64(v)) }

// lagrangeBasis returns L_0..L_k on the integer nodes 0..k.
func lagrangeBasis(k int) []poly {
	basis := make([]poly, k+1)
	for j := 0; j <= k; j++ {
		p := poly{ratInt(1)}
		denom := ratInt(1)
		for i := 0; i <= k; i++ {
			if i == j {
				continue
			}
			p = p.mul(poly{ratInt(-i), ratInt(1)})
			denom.Mul(denom, ratInt(j-i))
		}
		inv := new(big.Rat).Inv(denom)
		for _, c := range p {
			c.Mul(c, inv)
		}
		basis[j] = p
	}
	return basis
}

func (p poly) mul(q poly) poly {
	out := newPoly(len(p) + len(q) - 2)
	tmp := new(big.Rat)
	for i, a := range p {
		for j, b := range q {
			out[i+j].Add(out[i+j], tmp.Mul(a, b))
		}
	}
	return out
}

func (p poly) eval(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

func (p poly) deriv() poly {
	if len(p) == 1 {
		return poly{new(big.Rat)}
	}
	out := newPoly(len(p) - 2)
	for i := 1; i < len(p); i++ {
		out[i-1].Mul(p[i], ratInt(i))
	}
	return out
}

// integral returns ∫_a^b p(x) dx.
func (p poly) integral(a, b *big.Rat) *big.Rat {
	anti := newPoly(len(p))
	for i, c := range p {
		anti[i+1].Quo(c, ratInt(i+1))
	}
	return new(big.Rat).Sub(anti.eval(b), anti.eval(a))
}

// reflect returns q(x) = p(m - x).
func (p poly) reflect(m int) poly {
	out := poly{new(big.Rat)}
	pow := poly{ratInt(1)}
	lin := poly{ratInt(m), ratInt(-1)}
	for i, c := range p {
		if i > 0 {
			pow = pow.mul(lin)
		}
		term := newPoly(len(pow) - 1)
		for d, pc := range pow {
			term[d].Mul(pc, c)
		}
		out = out.add(term)
	}
	return out
}

func (p poly) add(q poly) poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := newPoly(n - 1)
	for i := range out {
		if i < len(p) {
			out[i].Add(out[i], p[i])
		}
		if i < len(q) {
			out[i].Add(out[i], q[i])
		}
	}
	return out
}

func toFloat(r *big.Rat) float64 {
	f, _ := r.Float64()
	return f
}
