// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package schedule implements the bucket-oriented Primitive
// Scheduler (spec.md §4.1): binding each incoming primitive to the
// buckets its bound overlaps, driving each bucket through
// dice/shade/hide/resolve until its queue is empty, and honoring
// EyeSplitLimit before a primitive is allowed to split indefinitely
// across the near clip plane.
package schedule

import (
	"context"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aqsis/aqsis-sub002/dice"
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/filter"
	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/grid"
	"github.com/aqsis/aqsis-sub002/hider"
	"github.com/aqsis/aqsis-sub002/linear"
	"github.com/aqsis/aqsis-sub002/occlusion"
	"github.com/aqsis/aqsis-sub002/sample"
	"github.com/aqsis/aqsis-sub002/shade"
)

// Project maps camera space to raster space.
type Project func(linear.V3) linear.V2

// Scheduler owns the grid of buckets covering one frame and the
// options driving dicing, shading and hiding.
type Scheduler struct {
	Opts    *driver.OptionSet
	Project Project
	EH      driver.ErrorHandler
	CSG     *hider.Tree

	bucketsX, bucketsY int
	haloX, haloY       int
	buckets            []*sample.Bucket

	// gridAttrs remembers which attribute set produced each queued
	// grid. grid.Grid cannot carry this itself: geom already
	// imports grid for Primitive.Dice, so the reverse import would
	// cycle. attrsMu guards it when DriveAll runs buckets
	// concurrently: every bucket's grids share this one map even
	// though their pixel/sample state never overlaps.
	attrsMu   sync.Mutex
	gridAttrs map[*grid.Grid]geom.Attrs

	lut *filter.WeightLUT
}

// New builds a Scheduler covering a Xres x Yres frame in
// BucketSize-sized tiles, each halo-extended by the filter width
// and seeded with PixelSamples jittered samples.
func New(opts *driver.OptionSet, project Project, eh driver.ErrorHandler) *Scheduler {
	if eh == nil {
		eh = driver.Discard
	}
	bw, bh := opts.BucketSize[0], opts.BucketSize[1]
	bx := (opts.Xres + bw - 1) / bw
	by := (opts.Yres + bh - 1) / bh
	haloX := halo(opts.FilterWidth[0])
	haloY := halo(opts.FilterWidth[1])

	s := &Scheduler{
		Opts: opts, Project: project, EH: eh,
		bucketsX: bx, bucketsY: by,
		haloX: haloX, haloY: haloY,
		gridAttrs: make(map[*grid.Grid]geom.Attrs),
	}
	s.buckets = make([]*sample.Bucket, bx*by)
	for iy := 0; iy < by; iy++ {
		for ix := 0; ix < bx; ix++ {
			rect := driver.Rect{
				X0: ix * bw, Y0: iy * bh,
				X1: min(ix*bw+bw, opts.Xres), Y1: min(iy*bh+bh, opts.Yres),
			}
			s.buckets[iy*bx+ix] = sample.NewBucket(rect, haloX, haloY,
				opts.PixelSamples[0], opts.PixelSamples[1],
				opts.DoF.Enabled, opts.ShutterOpen, opts.ShutterClose)
		}
	}
	s.lut = filter.BuildLUT(opts.FilterFunc, opts.FilterWidth[0], opts.FilterWidth[1], opts.PixelSamples[0], opts.PixelSamples[1])
	return s
}

// NBuckets returns the number of buckets the frame was tiled into.
func (s *Scheduler) NBuckets() int { return len(s.buckets) }

// BucketAt returns the bucket at the given raster scan index.
func (s *Scheduler) BucketAt(i int) *sample.Bucket { return s.buckets[i] }

// halo returns the filter-halo extension for one axis,
// ceil((Fw-1)/2) pixels (spec.md §3 "Bucket").
func halo(fw float32) int {
	h := int(math.Ceil(float64(fw-1) / 2))
	if h < 0 {
		return 0
	}
	return h
}

// bucketIndicesFor returns, in raster scan order, the indices of
// every bucket whose halo-extended rectangle overlaps bound
// (projected to raster space). The halo matters: a primitive that
// only grazes a neighbouring bucket's halo must still be diced
// there, or the neighbour's edge pixels would miss its filter
// contribution (spec.md §8 scenario 4).
func (s *Scheduler) bucketIndicesFor(rmin, rmax linear.V2) []int {
	bw, bh := s.Opts.BucketSize[0], s.Opts.BucketSize[1]
	ix0 := clampi((int(rmin[0])-s.haloX)/bw, 0, s.bucketsX-1)
	ix1 := clampi((int(rmax[0])+s.haloX)/bw, 0, s.bucketsX-1)
	iy0 := clampi((int(rmin[1])-s.haloY)/bh, 0, s.bucketsY-1)
	iy1 := clampi((int(rmax[1])+s.haloY)/bh, 0, s.bucketsY-1)
	var out []int
	for iy := iy0; iy <= iy1; iy++ {
		for ix := ix0; ix <= ix1; ix++ {
			out = append(out, iy*s.bucketsX+ix)
		}
	}
	return out
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Post binds prim to every bucket its clipped bound overlaps,
// skipping each bucket whose occlusion hierarchy already guarantees
// it is fully hidden there (spec.md §4.6 culling before binding).
func (s *Scheduler) Post(prim *geom.Primitive) {
	if prim.CrossesNear(s.Opts.Near) {
		if prim.EyeSplitCount >= s.Opts.EyeSplitLimit {
			s.EH(driver.Warning, driver.EyeSplitOverflow, "primitive discarded: eye-split limit exceeded")
			return
		}
		a, b, err := prim.Split(0)
		if err != nil {
			s.EH(driver.Warning, driver.BadPrimitive, err.Error())
			return
		}
		a.EyeSplitCount++
		b.EyeSplitCount++
		s.Post(a)
		s.Post(b)
		return
	}

	b := prim.ClipNear(s.Opts.Near)
	rmin, rmax := s.projectBound(b)
	idxs := s.bucketIndicesFor(rmin, rmax)
	occBound := occlusion.Bound{Min: rmin, Max: rmax}
	zNear := b.Min[2]

	for _, idx := range idxs {
		bucket := s.buckets[idx]
		if bucket.Occludes(occBound, zNear) {
			continue
		}
		bucket.PrimQueue = append(bucket.PrimQueue, prim)
	}
}

func (s *Scheduler) projectBound(b geom.Bound) (min, max linear.V2) {
	const inf = 1e30
	min, max = linear.V2{inf, inf}, linear.V2{-inf, -inf}
	corners := [8]linear.V3{
		{b.Min[0], b.Min[1], b.Min[2]}, {b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]}, {b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]}, {b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]}, {b.Max[0], b.Max[1], b.Max[2]},
	}
	for _, c := range corners {
		r := s.Project(c)
		for i := range min {
			if r[i] < min[i] {
				min[i] = r[i]
			}
			if r[i] > max[i] {
				max[i] = r[i]
			}
		}
	}
	return
}

// Drive runs bucket idx to completion: repeatedly dice/split its
// primitive queue into grids, shade them, hide every resulting
// micropolygon, then filter-resolve once the queue is empty
// (spec.md §4.1 bucket drive loop). Each primitive's grids are hidden
// before the next primitive is diced, so a primitive queued behind an
// opaque one sees its occlusion contribution in occludedNow rather
// than the occlusion hierarchy as it stood when the bucket started
// (spec.md §8 scenario 3).
func (s *Scheduler) Drive(idx int) []driver.PixelSample {
	bucket := s.buckets[idx]
	for len(bucket.PrimQueue) > 0 {
		prim := bucket.PrimQueue[0]
		bucket.PrimQueue = bucket.PrimQueue[1:]
		s.dicePrimitive(bucket, prim)
		for len(bucket.GridQueue) > 0 {
			g := bucket.GridQueue[0]
			bucket.GridQueue = bucket.GridQueue[1:]
			s.hideGrid(bucket, g)
			s.attrsMu.Lock()
			delete(s.gridAttrs, g)
			s.attrsMu.Unlock()
		}
	}
	return filter.Resolve(bucket, s.lut, s.Opts)
}

// DriveAll runs every bucket to completion, in raster scan order
// within the returned slice, fanning out across up to
// runtime.GOMAXPROCS(0) goroutines when s.Opts.Parallel is set
// (spec.md §4.1 buckets are independent once posted; SPEC_FULL.md
// AMBIENT STACK "Concurrency"). Each bucket only ever touches its
// own Pixels/queues, so the only shared mutable state is gridAttrs,
// guarded by attrsMu.
func (s *Scheduler) DriveAll(ctx context.Context) ([][]driver.PixelSample, error) {
	out := make([][]driver.PixelSample, len(s.buckets))
	if !s.Opts.Parallel {
		// Cancellation is a polled check between buckets; a bucket
		// in flight always runs to completion (spec.md §5).
		for i := range s.buckets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = s.Drive(i)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	if workers > len(s.buckets) {
		workers = len(s.buckets)
	}
	if workers < 1 {
		workers = 1
	}
	next := make(chan int)
	g.Go(func() error {
		defer close(next)
		for i := range s.buckets {
			select {
			case next <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range next {
				out[i] = s.Drive(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// occludedNow re-checks prim's current bound against bucket's
// occlusion hierarchy immediately before dicing, not only the
// bound Post saw when the primitive was first queued: a primitive
// can sit in bucket.PrimQueue behind other primitives that get
// diced and hidden first, and their opaque hits may have raised
// the bucket's max-Z enough to fully occlude prim by the time its
// turn comes (spec.md §8 scenario 3).
func (s *Scheduler) occludedNow(bucket *sample.Bucket, prim *geom.Primitive) bool {
	b := prim.ClipNear(s.Opts.Near)
	rmin, rmax := s.projectBound(b)
	return bucket.Occludes(occlusion.Bound{Min: rmin, Max: rmax}, b.Min[2])
}

func (s *Scheduler) dicePrimitive(bucket *sample.Bucket, prim *geom.Primitive) {
	if s.occludedNow(bucket, prim) {
		return
	}
	d := dice.Decide(prim, dice.Project(s.Project))
	switch d.Decision {
	case dice.Discard:
		return
	case dice.Dice, dice.ForceUndiceable:
		g := prim.Dice(d.U, d.V)
		s.attrsMu.Lock()
		s.gridAttrs[g] = prim.Attrs
		s.attrsMu.Unlock()
		bucket.GridQueue = append(bucket.GridQueue, g)
	case dice.Split:
		a, b, err := prim.Split(d.Axis)
		if err != nil {
			s.EH(driver.Warning, driver.BadPrimitive, err.Error())
			return
		}
		s.dicePrimitive(bucket, a)
		s.dicePrimitive(bucket, b)
	}
}

func (s *Scheduler) hideGrid(bucket *sample.Bucket, g *grid.Grid) {
	s.attrsMu.Lock()
	attrs := s.gridAttrs[g]
	s.attrsMu.Unlock()
	shade.Shade(g, attrs, s.EH)
	if g.Culled {
		return
	}
	hitCSG := false
	for mv := 0; mv < g.V; mv++ {
		for mu := 0; mu < g.U; mu++ {
			mp := grid.NewMPFromGrid(g, mu, mv, "Ci", "Oi")
			mp.CSGNode = attrs.CSGNode
			mp.Matte = attrs.Matte
			var corners [4]linear.V2
			for i, p := range mp.Pos[0] {
				corners[i] = s.Project(p)
			}
			if area := grid.Area(corners); area > -1e-9 && area < 1e-9 {
				continue
			}
			hider.Hide(bucket, &mp, hider.Project(s.Project), s.Opts.DoF, s.EH)
			if mp.CSGNode != -1 {
				hitCSG = true
			}
		}
	}
	if hitCSG {
		resolveCSGForGrid(bucket, s.CSG)
	}
}

// resolveCSGForGrid runs ResolveCSG over every sample the bucket
// owns. It is idempotent -- rerunning it after later MPs is
// harmless since already-resolved non-CSG segments are untouched.
func resolveCSGForGrid(bucket *sample.Bucket, tree *hider.Tree) {
	if tree == nil {
		return
	}
	for _, p := range bucket.Pixels {
		for i := range p.Samples {
			hider.ResolveCSG(&p.Samples[i], tree)
		}
	}
}
