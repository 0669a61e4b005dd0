// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package geom implements the GPrim data model: primitive
// variants, primitive variables, attribute sets and the
// bound/dice/split contract every variant must satisfy (spec
// §3 "Scene Primitive", §4.2).
package geom

import "github.com/aqsis/aqsis-sub002/linear"

// Bound is an axis-aligned bound in camera space.
type Bound struct {
	Min, Max linear.V3
}

// EmptyBound returns a bound that Union will absorb unchanged.
func EmptyBound() Bound {
	const inf = 1e30
	return Bound{
		Min: linear.V3{inf, inf, inf},
		Max: linear.V3{-inf, -inf, -inf},
	}
}

// Union sets b to contain both b and o.
func (b *Bound) Union(o Bound) {
	for i := range b.Min {
		if o.Min[i] < b.Min[i] {
			b.Min[i] = o.Min[i]
		}
		if o.Max[i] > b.Max[i] {
			b.Max[i] = o.Max[i]
		}
	}
}

// Valid reports whether b contains at least one point.
func (b Bound) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// AddPoint grows b to contain p.
func (b *Bound) AddPoint(p linear.V3) {
	for i := range b.Min {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Transform sets b to contain the bound of o transformed by m
// (an affine camera/projection matrix in homogeneous form).
func (b *Bound) Transform(o Bound, m *linear.M4) {
	*b = EmptyBound()
	for i := 0; i < 8; i++ {
		var p linear.V3
		if i&1 != 0 {
			p[0] = o.Max[0]
		} else {
			p[0] = o.Min[0]
		}
		if i&2 != 0 {
			p[1] = o.Max[1]
		} else {
			p[1] = o.Min[1]
		}
		if i&4 != 0 {
			p[2] = o.Max[2]
		} else {
			p[2] = o.Min[2]
		}
		v4 := linear.V4{p[0], p[1], p[2], 1}
		var r linear.V4
		r.Mul(m, &v4)
		if r[3] != 0 {
			b.AddPoint(linear.V3{r[0] / r[3], r[1] / r[3], r[2] / r[3]})
		}
	}
}
