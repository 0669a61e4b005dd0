// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"math"

	"github.com/aqsis/aqsis-sub002/linear"
)

// Default EWA parameters (spec.md §4.7 steps 1 and 3).
const (
	defaultSigma         = float32(1.3 / (2 * math.Pi))
	defaultMaxAspect     = float32(20)
	defaultLogEdgeWeight = float32(4) // ln(1/C), C = e^-4
)

// ewaLUTSize is the LUT resolution the weight function is
// pre-tabulated at (spec.md §4.7 step 5: "a 20-entry LUT, linearly
// interpolated").
const ewaLUTSize = 20

var ewaLUT [ewaLUTSize + 1]float32

func init() {
	for i := range ewaLUT {
		t := float64(i) / float64(ewaLUTSize) * float64(defaultLogEdgeWeight)
		ewaLUT[i] = float32(math.Exp(-t))
	}
}

func ewaWeight(q float32) float32 {
	if q < 0 {
		q = 0
	}
	t := q / defaultLogEdgeWeight * ewaLUTSize
	i := int(t)
	if i >= ewaLUTSize {
		return ewaLUT[ewaLUTSize]
	}
	f := t - float32(i)
	return ewaLUT[i]*(1-f) + ewaLUT[i+1]*f
}

// WarpQuad is a 2-D parallelogram in normalized [0,1]^2 texture
// space, the preimage of an output pixel under the image warp
// (spec.md §4.7): Center is the pixel's (u,v) center and Jacobian
// holds the two du/dv screen-space derivative columns.
type WarpQuad struct {
	Center   linear.V2
	Jacobian linear.M2
}

// Options configures one EWA (or PCF) lookup. Zero-valued fields
// fall back to the spec.md §4.7 defaults.
type Options struct {
	WrapU, WrapV WrapMode

	// BlurS, BlurT add extra pre-filter variance along each
	// texture axis ("Σ_blur").
	BlurS, BlurT float32

	// MaxAspect bounds the filter's eccentricity (default 20).
	MaxAspect float32

	// SigmaPre, SigmaRecon are the EWA pre-filter and
	// reconstruction variances (default 1.3/(2π) each).
	SigmaPre, SigmaRecon float32

	// LogEdgeWeight is ln(1/C) for the ellipse edge cutoff
	// (default 4, i.e. C = e^-4).
	LogEdgeWeight float32
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// buildQ implements spec.md §4.7 step 1: Q = (J·Jᵀ·σ_pre +
// Σ_blur)·S², plus reconstruction variance, where S is the base
// level's (W,H) texel scaling.
func (m *Mipmap) buildQ(j linear.M2, opts Options) linear.M2 {
	sigmaPre := orDefault(opts.SigmaPre, defaultSigma)
	sigmaRecon := orDefault(opts.SigmaRecon, defaultSigma)

	var jt, jjt linear.M2
	jt.Transpose(&j)
	jjt.Mul(&j, &jt)
	for i := range jjt {
		for k := range jjt[i] {
			jjt[i][k] *= sigmaPre
		}
	}
	jjt[0][0] += opts.BlurS
	jjt[1][1] += opts.BlurT

	w0, h0 := float32(m.levelW[0]), float32(m.levelH[0])
	s2 := linear.M2{{w0 * w0, 0}, {0, h0 * h0}}
	var q linear.M2
	q.Mul(&jjt, &s2)
	q[0][0] += sigmaRecon
	q[1][1] += sigmaRecon
	return q
}

// clampAspect implements step 2: eigen-decompose Q and, if the
// ratio of eigenvalues exceeds maxAspect², clamp the minor
// eigenvalue and rebuild Q.
func clampAspect(q linear.M2, maxAspect float32) (linear.M2, float32, float32) {
	lambda1, lambda2, r := q.Eigen()
	if lambda1 < lambda2 {
		lambda1, lambda2 = lambda2, lambda1
	}
	if lambda2 <= 0 {
		lambda2 = 1e-6
	}
	if lambda1/lambda2 > maxAspect*maxAspect {
		lambda2 = lambda1 / (maxAspect * maxAspect)
		q.Rebuild(lambda1, lambda2, &r)
	}
	return q, lambda1, lambda2
}

// SampleEWA implements the EWA texture filter of spec.md §4.7:
// it builds the filter's covariance, clamps eccentricity, picks
// (and trilinearly blends between) mipmap levels, and accumulates
// weighted texel contributions within the ellipse. The quadratic
// form evaluated per texel is the covariance's inverse -- contours
// of xᵀ·V⁻¹·x are the filter's iso-weight ellipses, so a wider
// footprint (larger eigenvalues of V) covers more texels.
func (m *Mipmap) SampleEWA(quad WarpQuad, opts Options) []float32 {
	maxAspect := orDefault(opts.MaxAspect, defaultMaxAspect)
	logW := orDefault(opts.LogEdgeWeight, defaultLogEdgeWeight)

	q := m.buildQ(quad.Jacobian, opts)
	q, _, lambda2 := clampAspect(q, maxAspect)

	wMinor := float32(math.Sqrt(float64(8 * lambda2 * logW)))
	if wMinor < 1e-6 {
		wMinor = 1e-6
	}
	lvl := m.levelFor(wMinor)
	l0 := int(math.Floor(float64(lvl)))
	frac := lvl - float32(l0)
	l1 := l0
	if frac > 0 && l0 < m.Levels()-1 {
		l1 = l0 + 1
	} else {
		frac = 0
	}

	out := m.sampleLevel(q, quad.Center, l0, opts, logW)
	if l1 == l0 {
		return out
	}
	out1 := m.sampleLevel(q, quad.Center, l1, opts, logW)
	for i := range out {
		out[i] = out[i]*(1-frac) + out1[i]*frac
	}
	return out
}

// levelFor maps a filter's minor-axis width, in base-level texel
// units, to the fractional mipmap level l = log2(wMinor), clamped
// to the level-set's range. Level 0 is the finest: a footprint of
// one base texel filters the base level, and doubling wMinor
// raises the unclamped level by exactly one, since each coarser
// level's texels cover twice the base-texel span (spec.md §8
// "Mipmap monotonicity").
func (m *Mipmap) levelFor(wMinor float32) float32 {
	if wMinor <= 1 {
		return 0
	}
	lvl := float32(math.Log2(float64(wMinor)))
	maxLvl := float32(m.Levels() - 1)
	if lvl > maxLvl {
		return maxLvl
	}
	return lvl
}

// levelQ rescales a base-texel-space covariance down to level's
// texel coordinates: coordinates shrink by 2^level, so the
// covariance scales by (1/2^level)².
func levelQ(q linear.M2, level int) linear.M2 {
	s := float32(1)
	for i := 0; i < level; i++ {
		s *= 0.5
	}
	s2 := s * s
	var out linear.M2
	for i := range q {
		for k := range q[i] {
			out[i][k] = q[i][k] * s2
		}
	}
	return out
}

// eachTexel walks the integer texel box bounding the ellipse
// q(x,y)<=logW around (cx,cy) in level's own texel coordinates,
// invoking fn with the per-texel weight for every texel inside it
// (spec.md §4.7 step 5).
func eachTexel(q linear.M2, cx, cy, logW float32, fn func(x, y int, w float32)) {
	a, b, c := q[0][0], (q[0][1]+q[1][0])/2, q[1][1]
	det := a*c - b*b
	if det <= 0 {
		det = 1e-6
	}
	dx := float32(math.Sqrt(float64(logW * c / det)))
	dy := float32(math.Sqrt(float64(logW * a / det)))
	x0, x1 := int(math.Floor(float64(cx-dx))), int(math.Ceil(float64(cx+dx)))
	y0, y1 := int(math.Floor(float64(cy-dy))), int(math.Ceil(float64(cy+dy)))
	for y := y0; y <= y1; y++ {
		dyp := float32(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dxp := float32(x) + 0.5 - cx
			qv := a*dxp*dxp + 2*b*dxp*dyp + c*dyp*dyp
			if qv > logW {
				continue
			}
			fn(x, y, ewaWeight(qv))
		}
	}
}

// sampleLevel accumulates weighted texel channels from one mipmap
// level. covBase is the filter covariance in base-level texel
// space; it is rescaled to the level's coordinates and inverted
// into the quadratic form the per-texel test evaluates.
func (m *Mipmap) sampleLevel(covBase linear.M2, centerUV linear.V2, level int, opts Options, logW float32) []float32 {
	w, h := m.LevelSize(level)
	cx := centerUV[0] * float32(w)
	cy := centerUV[1] * float32(h)
	cov := levelQ(covBase, level)
	var q linear.M2
	q.Invert(&cov)

	sum := make([]float32, m.nchan)
	var wsum float32
	eachTexel(q, cx, cy, logW, func(x, y int, weight float32) {
		tex := m.Texel(level, x, y, opts.WrapU, opts.WrapV)
		if tex == nil {
			return
		}
		for i, v := range tex {
			sum[i] += weight * v
		}
		wsum += weight
	})
	if wsum > 0 {
		for i := range sum {
			sum[i] /= wsum
		}
	}
	return sum
}
