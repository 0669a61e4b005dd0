// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package dice implements the diceable arbiter: the per-primitive
// screen-space test that decides whether a primitive is diced
// directly into a shading grid or split into sub-primitives
// (spec.md §4.2).
package dice

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/linear"
)

// Decision is the arbiter's verdict for one primitive.
type Decision int

const (
	Dice Decision = iota
	Split
	ForceUndiceable
	Discard
)

// UndiceableThreshold is the default maximum raster-space extent,
// in pixels, a dimension may have before the primitive must be
// split instead of diced.
const UndiceableThreshold = 255

// MaxGridArea is the default maximum u*v grid cell count.
const MaxGridArea = 256

// minSplitExtent is the raster-space extent below which
// splitting no longer shrinks a primitive meaningfully -- the
// arbiter gives up and forces a dice instead of looping forever.
const minSplitExtent = 2

// Result carries the arbiter's verdict and its parameters.
type Result struct {
	Decision Decision

	// U, V hold the dice resolution when Decision == Dice or
	// ForceUndiceable.
	U, V int

	// Axis holds the split axis (0=u, 1=v) when Decision == Split.
	Axis int
}

// Project maps a camera-space point to raster space.
type Project func(linear.V3) linear.V2

// Decide applies the diceable-arbiter algorithm of spec.md §4.2 to
// prim's first snapshot, using project to estimate raster-space
// extent.
func Decide(prim *geom.Primitive, project Project) Result {
	if prim.Degenerate() || len(prim.Snapshots) == 0 {
		return Result{Decision: Discard}
	}
	corners := prim.Snapshots[0].V.Corners()
	var r [4]linear.V2
	for i, c := range corners {
		r[i] = project(c)
	}
	lu, lv := rasterExtent(r)

	const eps = 1e-6
	if lu*lv < eps {
		return Result{Decision: Discard}
	}

	rate := prim.Attrs.ShadingRate
	if rate <= 0 {
		rate = 1
	}
	invR := 1 / float32(math.Sqrt(float64(rate)))
	u := lu * invR
	v := lv * invR

	if lu > UndiceableThreshold || lv > UndiceableThreshold || u*v > MaxGridArea {
		if lu < minSplitExtent && lv < minSplitExtent {
			// Splitting a sub-two-pixel primitive cannot shrink it
			// further; dice it at a bounded resolution instead.
			return Result{
				Decision: ForceUndiceable,
				U:        min(roundPow2(u), MaxGridArea),
				V:        min(roundPow2(v), MaxGridArea),
			}
		}
		axis := 0
		if lv > lu {
			axis = 1
		}
		return Result{Decision: Split, Axis: axis}
	}
	return Result{Decision: Dice, U: roundPow2(u), V: roundPow2(v)}
}

// rasterExtent returns the longest row length (u direction) and
// the longest column length (v direction) of the projected
// control hull, ordered (min-u,min-v), (max-u,min-v), (min-u,max-v),
// (max-u,max-v) as geom.Variant.Corners returns them.
func rasterExtent(r [4]linear.V2) (lu, lv float32) {
	var e linear.V2
	e.Sub(&r[1], &r[0])
	topU := e.Len()
	e.Sub(&r[3], &r[2])
	botU := e.Len()
	lu = topU
	if botU > lu {
		lu = botU
	}
	e.Sub(&r[2], &r[0])
	leftV := e.Len()
	e.Sub(&r[3], &r[1])
	rightV := e.Len()
	lv = leftV
	if rightV > lv {
		lv = rightV
	}
	return
}

// roundPow2 rounds x up to the next power of two, with a minimum
// of 1 (spec.md §4.2 rule 3, preventing cracks between adjacent
// grids). Generic over any float kind; Decide calls it with the
// single-precision raster extents computed here.
func roundPow2[T constraints.Float](x T) int {
	n := int(math.Ceil(float64(x)))
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
