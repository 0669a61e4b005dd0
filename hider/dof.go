// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package hider

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/grid"
)

// CoC returns the raster-space circle-of-confusion radius (in
// sample-position units) for a point at camera-space depth z under
// the thin-lens model of dof, used to scale a sample's lens offset
// before the point-in-MP test (spec.md §4.4 "offset positions by
// s.dofOffset * coc(depth)").
func CoC(z float32, dof driver.DepthOfField) float32 {
	if !dof.Enabled || dof.FStop <= 0 || z <= 0 {
		return 0
	}
	aperture := dof.FocalLen / dof.FStop
	denom := dof.FocalDist - dof.FocalLen
	if denom <= 0 {
		return 0
	}
	c := aperture * abs32(z-dof.FocalDist) / z * (dof.FocalLen / denom)
	return c
}

// cocRange returns the smallest and largest circle-of-confusion
// radii over every corner of mp at every motion time, bounding how
// far any lens offset can move the micropolygon in raster space.
func cocRange(mp *grid.MP, dof driver.DepthOfField) (cMin, cMax float32) {
	cMin = 1e30
	for _, pos := range mp.Pos {
		for _, p := range pos {
			c := CoC(p[2], dof)
			if c < cMin {
				cMin = c
			}
			if c > cMax {
				cMax = c
			}
		}
	}
	if cMin > cMax {
		cMin = cMax
	}
	return
}

// lensInterval maps a required offset*coc interval [lo,hi] (raster
// units, one axis) onto the widest lens-offset interval it could
// correspond to for any coc in [cMin,cMax], clamped to the lens
// disc's [-1,1] span. Widest means: each endpoint is divided by
// whichever coc pushes it furthest from zero, so the result is
// conservative for every depth the micropolygon covers. Callers
// must ensure cMin > 0.
func lensInterval(lo, hi, cMin, cMax float32) (oLo, oHi float32) {
	oLo = lo / cMax
	if lo < 0 {
		oLo = lo / cMin
	}
	oHi = hi / cMin
	if hi < 0 {
		oHi = hi / cMax
	}
	if oLo < -1 {
		oLo = -1
	}
	if oHi > 1 {
		oHi = 1
	}
	return
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
