// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "math"

// V2 is a 2-component vector of float32.
//
// It is used throughout the raster-space math of the
// rendering pipeline (sample positions, lens offsets,
// texture-warp quadrilaterals).
type V2 [2]float32

// Add sets v to contain l + r.
func (v *V2) Add(l, r *V2) {
	for i := range v {
		v[i] = l[i] + r[i]
	}
}

// Sub sets v to contain l - r.
func (v *V2) Sub(l, r *V2) {
	for i := range v {
		v[i] = l[i] - r[i]
	}
}

// Scale sets v to contain s ⋅ w.
func (v *V2) Scale(s float32, w *V2) {
	for i := range v {
		v[i] = s * w[i]
	}
}

// Dot returns v ⋅ w.
func (v *V2) Dot(w *V2) (d float32) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Len returns the length of v.
func (v *V2) Len() float32 { return float32(math.Sqrt(float64(v.Dot(v)))) }

// Norm sets v to contain w normalized.
func (v *V2) Norm(w *V2) { v.Scale(1/w.Len(), w) }

// Mul sets v to contain m ⋅ w.
func (v *V2) Mul(m *M2, w *V2) {
	*v = V2{}
	for i := range v {
		for j := range v {
			v[i] += m[j][i] * w[j]
		}
	}
}

// ToDisc warps the unit-square point w into the unit disc by
// scaling it by max(|u|,|v|)/√(u²+v²), which preserves the
// uniformity of a stratified square sampling (used to derive
// depth-of-field lens offsets from jittered sample positions).
// w's components must lie in [-1, 1].
func (v *V2) ToDisc(w *V2) {
	u, y := w[0], w[1]
	if u == 0 && y == 0 {
		*v = V2{0, 0}
		return
	}
	au, ay := float32(math.Abs(float64(u))), float32(math.Abs(float64(y)))
	m := au
	if ay > m {
		m = ay
	}
	s := m / w.Len()
	v.Scale(s, w)
}
