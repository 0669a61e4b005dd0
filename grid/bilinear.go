// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package grid implements the Micropolygon Grid and Micropolygon
// types produced by dicing (spec §3 "Micropolygon Grid",
// "Micropolygon").
package grid

// Bilinear evaluates the four corner values A (min-u,min-v), B
// (max-u,min-v), C (min-u,max-v), D (max-u,max-v) at parametric
// coordinates (s,t), each clamped to [0,1].
// Grounded on Aqsis's BilinearEvaluate: resolve the two u-edges
// first, then interpolate between them in v.
func Bilinear(a, b, c, d []float32, s, t float32, out []float32) {
	if s <= 0 {
		s = 0
	} else if s >= 1 {
		s = 1
	}
	if t <= 0 {
		t = 0
	} else if t >= 1 {
		t = 1
	}
	for i := range out {
		ab := (b[i]-a[i])*s + a[i]
		cd := (d[i]-c[i])*s + c[i]
		out[i] = (cd-ab)*t + ab
	}
}
