// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package filter

import "math"

// WeightLUT is the per-bucket pre-tabulated filter weight table of
// spec.md §4.5 step 3 ("Weights are pre-tabulated per (pixel-offset,
// sub-pixel index, sub-cell) tuple for speed") and §5 ("Filter-weight
// LUT: per bucket ..., but immutable after InitialiseFilterValues").
//
// Weight depends on the continuous jittered sample position, but the
// jitter within a sub-cell is small relative to the filter support,
// so the table is built once at each sub-cell's centre and reused
// for every pixel in the bucket (the jitter pattern itself is
// per-pixel, not per-bucket, so this is an approximation rather than
// an exact per-sample evaluation — acceptable because the alternative,
// evaluating the two 1-D kernels per sample per contributing pixel,
// is exactly the cost the pre-tabulation exists to avoid).
type WeightLUT struct {
	kernel  Kernel
	support float64
	fwx     float64
	fwy     float64
	sx, sy  int

	// OffX, OffY are the furthest pixel offsets (in whole pixels)
	// the filter support can reach from the centre pixel.
	OffX, OffY int

	// table[oy][ox][sv][su] holds the precomputed weight for a
	// sample at sub-cell (su,sv) in a pixel offset (ox-OffX,
	// oy-OffY) pixels away from the pixel being resolved.
	table [][][][]float32
}

// BuildLUT constructs a WeightLUT for the given filter kernel, its
// support width (Fwx, Fwy) in pixels, and the bucket's sx*sy
// sub-pixel sample layout.
func BuildLUT(kind FilterKind, fwx, fwy float32, sx, sy int) *WeightLUT {
	l := &WeightLUT{
		kernel:  Lookup(kind),
		support: Support(kind),
		fwx:     float64(fwx) / 2,
		fwy:     float64(fwy) / 2,
		sx:      sx, sy: sy,
	}
	l.OffX = int(math.Ceil(l.fwx))
	l.OffY = int(math.Ceil(l.fwy))
	w := 2*l.OffX + 1
	h := 2*l.OffY + 1
	l.table = make([][][][]float32, h)
	for oy := 0; oy < h; oy++ {
		l.table[oy] = make([][][]float32, w)
		py := float64(oy - l.OffY)
		for ox := 0; ox < w; ox++ {
			l.table[oy][ox] = make([][]float32, sy)
			px := float64(ox - l.OffX)
			for sv := 0; sv < sy; sv++ {
				l.table[oy][ox][sv] = make([]float32, sx)
				cy := (float64(sv)+0.5)/float64(sy) - 0.5
				for su := 0; su < sx; su++ {
					cx := (float64(su)+0.5)/float64(sx) - 0.5
					// Distance from the pixel centre, normalized so
					// the filter-width edge lands at 1, then scaled
					// onto the kernel's natural support.
					dx := (px + cx) / l.fwx * l.support
					dy := (py + cy) / l.fwy * l.support
					l.table[oy][ox][sv][su] = float32(l.kernel(math.Abs(dx)) * l.kernel(math.Abs(dy)))
				}
			}
		}
	}
	return l
}

// Weight returns the pre-tabulated weight for a sample at sub-cell
// (su,sv) in a pixel offset (dx,dy) pixels from the pixel being
// resolved. It returns 0, false if the offset lies outside the
// table's precomputed support.
func (l *WeightLUT) Weight(dx, dy, su, sv int) (float32, bool) {
	ox := dx + l.OffX
	oy := dy + l.OffY
	if ox < 0 || ox >= len(l.table[0]) || oy < 0 || oy >= len(l.table) {
		return 0, false
	}
	if su < 0 || su >= l.sx || sv < 0 || sv >= l.sy {
		return 0, false
	}
	return l.table[oy][ox][sv][su], true
}
