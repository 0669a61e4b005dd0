// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package sample

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/grid"
	"github.com/aqsis/aqsis-sub002/linear"
	"github.com/aqsis/aqsis-sub002/occlusion"
)

// Bucket is a rectangular raster region owning its pixels, its
// deferred-primitive and deferred-grid queues, and its lazily-built
// occlusion hierarchy (spec.md §3 "Bucket").
type Bucket struct {
	Rect driver.Rect

	// HaloRect extends Rect by the filter halo in every direction
	// (spec.md §3 "pixels include a filter-halo extension").
	HaloRect driver.Rect

	Pixels []*Pixel

	PrimQueue []*geom.Primitive
	GridQueue []*grid.Grid

	occTree     *occlusion.Tree
	occCoarse   *occlusion.CoarseHierarchy
	coarseDirty bool
}

// NewBucket allocates a bucket covering rect, with pixels extended
// by (haloX,haloY) on every side, sx*sy samples per pixel and
// shutter times stratified over [open,close].
func NewBucket(rect driver.Rect, haloX, haloY, sx, sy int, dof bool, open, close float32) *Bucket {
	halo := driver.Rect{
		X0: rect.X0 - haloX, Y0: rect.Y0 - haloY,
		X1: rect.X1 + haloX, Y1: rect.Y1 + haloY,
	}
	b := &Bucket{Rect: rect, HaloRect: halo}
	w, h := halo.Width(), halo.Height()
	b.Pixels = make([]*Pixel, w*h)
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			seed := uint32((halo.Y0+py)*73856093 ^ (halo.X0+px)*19349663)
			b.Pixels[py*w+px] = NewPixel(halo.X0+px, halo.Y0+py, sx, sy, dof, open, close, seed)
		}
	}
	b.occCoarse = occlusion.NewCoarseHierarchy(occlusion.Bound{
		Min: linear.V2{float32(halo.X0), float32(halo.Y0)},
		Max: linear.V2{float32(halo.X1), float32(halo.Y1)},
	})
	b.coarseDirty = true
	return b
}

// PixelAt returns the pixel at raster position (x,y), or nil if
// outside the bucket's halo-extended rectangle.
func (b *Bucket) PixelAt(x, y int) *Pixel {
	if x < b.HaloRect.X0 || x >= b.HaloRect.X1 || y < b.HaloRect.Y0 || y >= b.HaloRect.Y1 {
		return nil
	}
	w := b.HaloRect.Width()
	return b.Pixels[(y-b.HaloRect.Y0)*w+(x-b.HaloRect.X0)]
}

// Occludes reports whether region is entirely behind z, consulting
// the coarse hierarchy first and falling back to the per-sample
// KD-tree (spec.md §4.6). Both structures are built lazily on the
// first query; the coarse hierarchy is additionally re-swept here
// whenever opaque hits have landed since the last query, since its
// region nodes cannot be narrowed sample by sample the way the
// KD-tree's single-sample leaves can.
func (b *Bucket) Occludes(region occlusion.Bound, z float32) bool {
	if b.occTree == nil {
		b.occTree = occlusion.Build(b.samplePoints())
	}
	if b.coarseDirty {
		b.occCoarse.Refresh(b.samplePoints())
		b.coarseDirty = false
	}
	if b.occCoarse.Occludes(region, z) {
		return true
	}
	return b.occTree.Occludes(region, z)
}

// NotifyOpaqueUpdate narrows the KD-tree leaf at the sample
// position pos to the sample's new opaque depth and schedules the
// coarse hierarchy for a batched re-sweep on the next query,
// preserving the monotonic non-increasing invariant of spec.md
// §4.6.
func (b *Bucket) NotifyOpaqueUpdate(pos linear.V2, opaqueZ float32) {
	if b.occTree != nil {
		b.occTree.Update(pos, opaqueZ)
	}
	b.coarseDirty = true
}

// samplePoints snapshots every sample's position and current
// occluding depth. A sample with no opaque hit yet carries
// MaxZ = +inf, so regions containing it are never culled.
func (b *Bucket) samplePoints() []occlusion.Point {
	pts := make([]occlusion.Point, 0, len(b.Pixels)*len(b.Pixels[0].Samples))
	for _, p := range b.Pixels {
		for i := range p.Samples {
			s := &p.Samples[i]
			pts = append(pts, occlusion.Point{Pos: s.Pos, MaxZ: s.MaxZ})
		}
	}
	return pts
}
