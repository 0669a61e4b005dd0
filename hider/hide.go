// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package hider implements the Hider/Sampler stage: rasterizing a
// shaded micropolygon into a bucket's sub-pixel samples, resolving
// motion blur and depth-of-field positions, and applying the
// opaque-fast-path / sample-list insertion rules of spec.md §4.4.
package hider

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/grid"
	"github.com/aqsis/aqsis-sub002/linear"
	"github.com/aqsis/aqsis-sub002/sample"
)

// Project maps a camera-space point to raster space.
type Project func(linear.V3) linear.V2

// cyclicIdx reorders grid.MP's (00,10,01,11) corner layout into the
// cyclic quad order (00,10,11,01) used for polygon tests, matching
// grid.Area's reordering.
var cyclicIdx = [4]int{0, 1, 3, 2}

// triA and triB are the two triangles cyclicIdx splits the quad
// into, expressed directly in original corner indices.
var triA = [3]int{0, 1, 3}
var triB = [3]int{0, 3, 2}

// Hide rasterizes mp into bucket, testing every sample of every
// pixel mp's motion-extended raster bound overlaps (spec.md §4.4
// pseudocode). project maps camera space to raster space; dof
// holds the active depth-of-field configuration (Enabled == false
// disables lens offsetting). eh reports per-MP faults; a nil
// handler is treated as driver.Discard.
func Hide(bucket *sample.Bucket, mp *grid.MP, project Project, dof driver.DepthOfField, eh driver.ErrorHandler) {
	if eh == nil {
		eh = driver.Discard
	}
	mpMin, mpMax := mp.RasterBound(project)
	minR, maxR := mpMin, mpMax
	var cMin, cMax float32
	if dof.Enabled {
		// A lens offset can move the micropolygon by up to the
		// largest circle of confusion it spans, in any direction.
		cMin, cMax = cocRange(mp, dof)
		minR[0] -= cMax
		minR[1] -= cMax
		maxR[0] += cMax
		maxR[1] += cMax
	}
	x0, y0 := floorInt(minR[0]), floorInt(minR[1])
	x1, y1 := floorInt(maxR[0])+1, floorInt(maxR[1])+1

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			pixel := bucket.PixelAt(px, py)
			if pixel == nil {
				continue
			}
			if dof.Enabled && cMin > minCoC {
				hidePixelDoF(bucket, pixel, float32(px), float32(py), mp, mpMin, mpMax, cMin, cMax, project, dof)
				continue
			}
			for i := range pixel.Samples {
				hideSample(bucket, &pixel.Samples[i], mp, project, dof)
			}
		}
	}
}

// minCoC is the circle-of-confusion radius below which the DoF bin
// pre-filter cannot narrow the candidate set meaningfully (a
// nearly in-focus micropolygon barely moves under any lens
// offset), so the hider tests every sample instead.
const minCoC = 1e-4

// hidePixelDoF tests only the samples whose lens offsets can place
// mp over this pixel: a sample with offset o sees the micropolygon
// shifted by o*coc, so it can only hit when o*coc falls within
// [pixel.min - mp.max, pixel.max - mp.min] per axis. The pixel's
// cached dofBin->sampleIndex map turns that lens-space box into
// exactly the candidate samples (spec.md §4.4 sub-pixel sampling
// layout); hideSample still performs the exact per-sample test, so
// the bin walk is purely a conservative pre-filter.
func hidePixelDoF(bucket *sample.Bucket, pixel *sample.Pixel, px, py float32, mp *grid.MP, mpMin, mpMax linear.V2, cMin, cMax float32, project Project, dof driver.DepthOfField) {
	oxLo, oxHi := lensInterval(px-mpMax[0], px+1-mpMin[0], cMin, cMax)
	oyLo, oyHi := lensInterval(py-mpMax[1], py+1-mpMin[1], cMin, cMax)
	if oxLo > oxHi || oyLo > oyHi {
		return
	}
	idx := pixel.DofBins()
	bx0, by0, bx1, by1 := idx.BinsFor(linear.V2{oxLo, oyLo}, linear.V2{oxHi, oyHi})
	for by := by0; by <= by1; by++ {
		for bx := bx0; bx <= bx1; bx++ {
			for _, si := range idx.Lookup(bx, by) {
				hideSample(bucket, &pixel.Samples[si], mp, project, dof)
			}
		}
	}
}

func hideSample(bucket *sample.Bucket, s *sample.Sample, mp *grid.MP, project Project, dof driver.DepthOfField) {
	pos := mp.PAtTime(s.Time)

	var r [4]linear.V2
	var z [4]float32
	for i, p := range pos {
		r[i] = project(p)
		z[i] = p[2]
	}
	if dof.Enabled {
		for i := range pos {
			c := CoC(z[i], dof)
			r[i][0] += s.LensOffs[0] * c
			r[i][1] += s.LensOffs[1] * c
		}
	}

	inside, tri, bary := pointInMP(s.Pos, r)
	if !inside {
		return
	}
	depth := bary[0]*z[tri[0]] + bary[1]*z[tri[1]] + bary[2]*z[tri[2]]
	apply(bucket, s, mp, depth, tri, bary)
}

// pointInMP tests s against the quad r (in grid.MP's native corner
// order), splitting it into triA/triB the same way grid.Area does.
// On a hit it returns the original-index triangle and the
// barycentric weights of s within it.
func pointInMP(s linear.V2, r [4]linear.V2) (inside bool, tri [3]int, bary [3]float32) {
	if ok, b := barycentric(s, r[triA[0]], r[triA[1]], r[triA[2]]); ok {
		return true, triA, b
	}
	if ok, b := barycentric(s, r[triB[0]], r[triB[1]], r[triB[2]]); ok {
		return true, triB, b
	}
	return false, tri, bary
}

// barycentric returns p's barycentric weights in triangle (a,b,c)
// and whether p lies within it (all weights in [0,1]).
func barycentric(p, a, b, c linear.V2) (bool, [3]float32) {
	v0 := linear.V2{c[0] - a[0], c[1] - a[1]}
	v1 := linear.V2{b[0] - a[0], b[1] - a[1]}
	v2 := linear.V2{p[0] - a[0], p[1] - a[1]}

	dot00 := v0.Dot(&v0)
	dot01 := v0.Dot(&v1)
	dot02 := v0.Dot(&v2)
	dot11 := v1.Dot(&v1)
	dot12 := v1.Dot(&v2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return false, [3]float32{}
	}
	inv := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * inv
	v := (dot00*dot12 - dot01*dot02) * inv
	if u < 0 || v < 0 || u+v > 1 {
		return false, [3]float32{}
	}
	// weights for (a,c,b) in terms of (u,v): p = a + u*v0 + v*v1
	// = a + u*(c-a) + v*(b-a), so wA = 1-u-v, wC = u, wB = v.
	return true, [3]float32{1 - u - v, v, u}
}

// apply implements spec.md §4.4 "apply(s, data, z) rules": the
// opaque fast path replaces s's current nearest opaque hit; every
// other primitive inserts a depth-ordered Record. Per the decided
// CSG redesign (spec §9 open question), CSG members are never
// truncated here -- ResolveCSG evaluates the full untruncated
// segment list at filter time.
func apply(bucket *sample.Bucket, s *sample.Sample, mp *grid.MP, z float32, tri [3]int, bary [3]float32) {
	cs, os := interpolate(mp, tri, bary)
	avgAlpha := (os[0] + os[1] + os[2]) / 3

	if mp.Opaque && mp.CSGNode == -1 && !mp.Matte {
		if s.ApplyOpaque([3]float32(cs), z) {
			bucket.NotifyOpaqueUpdate(s.Pos, s.OpaqueDepth)
		}
		return
	}

	r := sample.Record{
		Color:   [3]float32(cs),
		Opacity: [3]float32(os),
		Alpha:   avgAlpha,
		Depth:   z,
		CSGNode: mp.CSGNode,
	}
	if mp.Matte {
		r.Flags |= sample.Matte
	}
	if mp.Opaque && mp.CSGNode == -1 {
		r.Flags |= sample.Occludes
	}
	s.InsertRecord(r)

	if mp.CSGNode == -1 {
		truncateAfterOcclude(s)
	}
}

// truncateAfterOcclude drops every record behind the first one
// flagged Occludes, since nothing can contribute past a fully
// opaque, non-CSG hit.
func truncateAfterOcclude(s *sample.Sample) {
	for i := range s.List {
		if s.List[i].Flags&sample.Occludes != 0 {
			s.List = s.List[:i+1]
			return
		}
	}
}

// interpolate barycentrically blends mp's per-corner shaded color
// and opacity over triangle tri.
func interpolate(mp *grid.MP, tri [3]int, bary [3]float32) (color, opacity linear.V3) {
	for i := 0; i < 3; i++ {
		c := mp.Cs[tri[i]]
		o := mp.Os[tri[i]]
		w := bary[i]
		color[0] += w * c[0]
		color[1] += w * c[1]
		color[2] += w * c[2]
		opacity[0] += w * o[0]
		opacity[1] += w * o[1]
		opacity[2] += w * o[2]
	}
	return
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}
