// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package filter

import (
	"math"

	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/sample"
)

// Resolve filters every pixel of bucket's non-halo Rect, producing
// one driver.PixelSample per pixel in row-major order, ready for
// driver.ImageSink.WriteBucket (spec.md §4.5). lut must have been
// built with the same (Sx,Sy) layout as the bucket's pixels.
func Resolve(bucket *sample.Bucket, lut *WeightLUT, opts *driver.OptionSet) []driver.PixelSample {
	rect := bucket.Rect
	out := make([]driver.PixelSample, 0, rect.Width()*rect.Height())
	for py := rect.Y0; py < rect.Y1; py++ {
		for px := rect.X0; px < rect.X1; px++ {
			out = append(out, resolvePixel(bucket, lut, opts, px, py))
		}
	}
	return out
}

func resolvePixel(bucket *sample.Bucket, lut *WeightLUT, opts *driver.OptionSet, px, py int) driver.PixelSample {
	var sumC, sumO [3]float32
	var sumAlpha, sumW float32
	minZ := float32(math.Inf(1))
	any := false

	for dy := -lut.OffY; dy <= lut.OffY; dy++ {
		for dx := -lut.OffX; dx <= lut.OffX; dx++ {
			pixel := bucket.PixelAt(px+dx, py+dy)
			if pixel == nil {
				continue
			}
			for i := range pixel.Samples {
				s := &pixel.Samples[i]
				w, ok := lut.Weight(dx, dy, s.SubcellU, s.SubcellV)
				if !ok || w == 0 {
					continue
				}
				c, o, alpha, depth, valid := Composite(s)
				if !valid {
					// A sample nothing hit still carries its filter
					// weight, contributing transparent black -- this
					// is what rolls edge pixels off toward zero
					// coverage instead of snapping them opaque.
					sumW += w
					continue
				}
				sumC[0] += w * c[0]
				sumC[1] += w * c[1]
				sumC[2] += w * c[2]
				sumO[0] += w * o[0]
				sumO[1] += w * o[1]
				sumO[2] += w * o[2]
				sumAlpha += w * alpha
				sumW += w
				if depth < minZ {
					minZ = depth
				}
				any = true
			}
		}
	}

	var ps driver.PixelSample
	if !any || sumW == 0 {
		ps.Depth = float32(math.Inf(1))
		return ps
	}
	ps.Color = [3]float32{sumC[0] / sumW, sumC[1] / sumW, sumC[2] / sumW}
	ps.Opacity = [3]float32{sumO[0] / sumW, sumO[1] / sumW, sumO[2] / sumW}
	ps.Alpha = sumAlpha / sumW
	ps.Depth = minZ
	ps.Coverage = clamp01(ps.Alpha)

	expose(&ps, opts.ExposureGain, opts.ExposureGamma)
	quantizeColor(&ps, &opts.Quantize[driver.QRGBA], px, py)
	ps.Depth = quantizeScalar(ps.Depth, &opts.Quantize[driver.QDepth], px, py, 7)
	return ps
}

// Composite resolves a sample's final color, opacity, alpha and
// depth per spec.md §4.5 step 2: Porter-Duff "over" compositing of
// s.List front-to-back when non-empty, else the opaque fast-path
// value. The opaque fast-path hit is not exclusive with s.List --
// a semi-transparent, matte or CSG hit in front of an opaque
// background still leaves s.OpaqueValid set -- so a non-empty list
// composites over the opaque hit as its implicit back element
// instead of discarding it (spec.md §8 scenario 2).
func Composite(s *sample.Sample) (color, opacity [3]float32, alpha, depth float32, valid bool) {
	if len(s.List) == 0 {
		if !s.OpaqueValid {
			return color, opacity, 0, 0, false
		}
		return s.OpaqueColor, [3]float32{1, 1, 1}, 1, s.OpaqueDepth, true
	}
	// s.List is sorted nearest-first; composite back-to-front so
	// "over" folds correctly. The back element is the opaque
	// fast-path hit when present, otherwise transparent black.
	// A Matte record is a holdout: it contributes nothing of its
	// own but still attenuates whatever lies behind it, punching a
	// hole in the output where an opaque matte covers the sample.
	if s.OpaqueValid {
		color, opacity, alpha = s.OpaqueColor, [3]float32{1, 1, 1}, 1
	}
	for i := len(s.List) - 1; i >= 0; i-- {
		r := s.List[i]
		cf, of, af := r.Color, r.Opacity, r.Alpha
		if r.Flags&sample.Matte != 0 {
			cf, of, af = [3]float32{}, [3]float32{}, 0
		}
		for c := 0; c < 3; c++ {
			color[c] = cf[c] + (1-r.Opacity[c])*color[c]
			opacity[c] = of[c] + (1-r.Opacity[c])*opacity[c]
		}
		alpha = af + (1-r.Alpha)*alpha
	}
	depth = s.List[0].Depth
	if s.OpaqueValid && s.OpaqueDepth < depth {
		depth = s.OpaqueDepth
	}
	return color, opacity, alpha, depth, true
}

func expose(ps *driver.PixelSample, gain, gamma float32) {
	if gain == 1 && gamma == 1 {
		return
	}
	invGamma := float64(1)
	if gamma != 0 {
		invGamma = 1 / float64(gamma)
	}
	for i := 0; i < 3; i++ {
		v := float64(ps.Color[i]) * float64(gain)
		if v < 0 {
			v = 0
		}
		ps.Color[i] = float32(math.Pow(v, invGamma))
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func quantizeColor(ps *driver.PixelSample, q *driver.Quantize, px, py int) {
	for i := 0; i < 3; i++ {
		ps.Color[i] = quantizeScalar(ps.Color[i], q, px, py, i)
		ps.Opacity[i] = quantizeScalar(ps.Opacity[i], q, px, py, i+3)
	}
	ps.Alpha = quantizeScalar(ps.Alpha, q, px, py, 6)
}

// quantizeScalar rounds v per spec.md §4.5 step 6:
// q = round(one*C + dither*xi), clamped to [min,max]. One == 0
// means "leave as float". channel disambiguates the dither hash so
// sibling channels of the same pixel don't share identical noise.
func quantizeScalar(v float32, q *driver.Quantize, px, py, channel int) float32 {
	if q.One == 0 {
		return v
	}
	xi := ditherNoise(px, py, channel)
	r := math.Round(float64(q.One)*float64(v) + float64(q.Dither)*xi)
	if r < float64(q.Min) {
		r = float64(q.Min)
	}
	if r > float64(q.Max) {
		r = float64(q.Max)
	}
	return float32(r)
}

// ditherNoise returns a deterministic pseudo-random value in
// [-0.5,0.5] for a given pixel and channel, via a small integer
// hash (no global PRNG state, so resolving two buckets concurrently
// is race-free).
func ditherNoise(px, py, channel int) float64 {
	h := uint32(px)*0x9e3779b1 ^ uint32(py)*0x85ebca6b ^ uint32(channel)*0xc2b2ae35
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	h *= 0x297a2d39
	h ^= h >> 15
	return float64(h)/float64(^uint32(0)) - 0.5
}
