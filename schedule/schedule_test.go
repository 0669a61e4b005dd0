// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package schedule

import (
	"context"
	"testing"

	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/linear"
)

func orthoProject(p linear.V3) linear.V2 { return linear.V2{p[0], p[1]} }

func TestNewTilesFrameIntoBuckets(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 32, 16
	opts.BucketSize = [2]int{16, 16}
	s := New(&opts, orthoProject, nil)
	if s.NBuckets() != 2 {
		t.Fatalf("New: have %d buckets, want 2", s.NBuckets())
	}
}

// constQuad is a minimal geom.Variant standing in for a
// diced-to-nothing primitive, used only to exercise Post's
// near-plane and binding logic without depending on geom's patch
// machinery.
type constQuad struct {
	corners [4]linear.V3
}

func (c *constQuad) Kind() geom.Kind { return geom.KPolygon }
func (c *constQuad) Bound() geom.Bound {
	b := geom.EmptyBound()
	for _, p := range c.corners {
		b.AddPoint(p)
	}
	return b
}
func (c *constQuad) Corners() [4]linear.V3 { return c.corners }
func (c *constQuad) Dice(u, v int, vars []geom.PrimVar) ([]linear.V3, []linear.V3) {
	np := (u + 1) * (v + 1)
	pos := make([]linear.V3, np)
	norm := make([]linear.V3, np)
	for i := range pos {
		pos[i] = c.corners[0]
		norm[i] = linear.V3{0, 0, -1}
	}
	return pos, norm
}
func (c *constQuad) Split(axis int, vars []geom.PrimVar) (geom.Variant, geom.Variant, []geom.PrimVar, []geom.PrimVar, error) {
	return c, c, vars, vars, nil
}
func (c *constQuad) Degenerate() bool { return false }

func TestPostBindsPrimitiveToOverlappingBucket(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 32, 32
	opts.BucketSize = [2]int{16, 16}
	opts.Near = 0.01
	s := New(&opts, orthoProject, nil)

	prim := &geom.Primitive{
		Attrs: geom.DefaultAttrs(),
		Snapshots: []geom.Snapshot{{Time: 0, V: &constQuad{corners: [4]linear.V3{
			{2, 2, 5}, {6, 2, 5}, {2, 6, 5}, {6, 6, 5},
		}}}},
	}
	s.Post(prim)
	if len(s.BucketAt(0).PrimQueue) != 1 {
		t.Fatalf("Post: bucket 0 PrimQueue has %d entries, want 1", len(s.BucketAt(0).PrimQueue))
	}
}

func TestPostDiscardsBeyondEyeSplitLimit(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 16, 16
	opts.EyeSplitLimit = 0
	opts.Near = 1
	var warned bool
	eh := func(sev driver.Severity, kind driver.Kind, reason string) {
		if kind == driver.EyeSplitOverflow {
			warned = true
		}
	}
	s := New(&opts, orthoProject, eh)
	prim := &geom.Primitive{
		Attrs: geom.DefaultAttrs(),
		Snapshots: []geom.Snapshot{{Time: 0, V: &constQuad{corners: [4]linear.V3{
			{0, 0, -1}, {1, 0, 2}, {0, 1, -1}, {1, 1, 2},
		}}}},
	}
	s.Post(prim)
	if !warned {
		t.Fatal("Post: expected an EyeSplitOverflow warning")
	}
}

// TestDriveWhiteQuadOnBlack exercises the full dice/shade/hide/
// resolve loop end to end against spec.md §8 scenario 1: a white
// opaque quad covering pixels [10..20)x[10..20) on an otherwise
// empty frame must resolve to opaque white inside that box and
// uncovered black everywhere else, independent of the quad's
// internal dicing.
func TestDriveWhiteQuadOnBlack(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 32, 32
	opts.BucketSize = [2]int{32, 32}
	opts.PixelSamples = [2]int{1, 1}
	opts.FilterFunc = driver.FBox
	opts.FilterWidth = [2]float32{1, 1}
	opts.Quantize[driver.QRGBA] = driver.Quantize{One: 0}
	opts.Near = 0.01

	s := New(&opts, orthoProject, nil)

	quad := geom.NewQuad(
		linear.V3{10, 10, 1}, linear.V3{20, 10, 1},
		linear.V3{20, 20, 1}, linear.V3{10, 20, 1},
	)
	attrs := geom.DefaultAttrs()
	attrs.ColorDefault = [3]float32{1, 1, 1}
	s.Post(&geom.Primitive{
		Attrs:     attrs,
		Snapshots: []geom.Snapshot{{Time: 0, V: quad}},
	})

	pixels := s.Drive(0)
	at := func(x, y int) driver.PixelSample { return pixels[y*opts.Xres+x] }

	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			p := at(x, y)
			if p.Color != [3]float32{1, 1, 1} || p.Alpha != 1 {
				t.Fatalf("pixel (%d,%d): have color %v alpha %v, want opaque white", x, y, p.Color, p.Alpha)
			}
		}
	}
	for _, c := range [][2]int{{0, 0}, {9, 9}, {20, 20}, {31, 31}, {15, 9}, {9, 15}} {
		p := at(c[0], c[1])
		if p.Alpha != 0 || p.Coverage != 0 {
			t.Fatalf("pixel %v: have alpha %v coverage %v, want uncovered", c, p.Alpha, p.Coverage)
		}
	}
}

// countingQuad is a geom.Variant whose Dice increments a shared
// counter, so a test can observe whether dicePrimitive ever reached
// it without depending on the grid it would have produced.
type countingQuad struct {
	corners [4]linear.V3
	diced   *int
}

func (c *countingQuad) Kind() geom.Kind { return geom.KPolygon }
func (c *countingQuad) Bound() geom.Bound {
	b := geom.EmptyBound()
	for _, p := range c.corners {
		b.AddPoint(p)
	}
	return b
}
func (c *countingQuad) Corners() [4]linear.V3 { return c.corners }
func (c *countingQuad) Dice(u, v int, vars []geom.PrimVar) ([]linear.V3, []linear.V3) {
	*c.diced++
	np := (u + 1) * (v + 1)
	pos := make([]linear.V3, np)
	norm := make([]linear.V3, np)
	for i := range pos {
		pos[i] = c.corners[0]
		norm[i] = linear.V3{0, 0, -1}
	}
	return pos, norm
}
func (c *countingQuad) Split(axis int, vars []geom.PrimVar) (geom.Variant, geom.Variant, []geom.PrimVar, []geom.PrimVar, error) {
	return c, c, vars, vars, nil
}
func (c *countingQuad) Degenerate() bool { return false }

// TestDicePrimitiveSkipsAlreadyOccludedPrimitive exercises spec.md
// §8 scenario 3 end to end: an opaque square diced and hidden first
// in a bucket must raise the bucket's occlusion hierarchy enough
// that a primitive entirely behind it, queued in the same bucket,
// is never diced when its turn comes.
func TestDicePrimitiveSkipsAlreadyOccludedPrimitive(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 8, 8
	opts.BucketSize = [2]int{8, 8}
	opts.PixelSamples = [2]int{1, 1}
	opts.Near = 0.01

	s := New(&opts, orthoProject, nil)

	opaque := geom.NewQuad(
		linear.V3{0, 0, 1}, linear.V3{8, 0, 1},
		linear.V3{8, 8, 1}, linear.V3{0, 8, 1},
	)
	attrs := geom.DefaultAttrs()
	attrs.ColorDefault = [3]float32{1, 1, 1}
	s.Post(&geom.Primitive{
		Attrs:     attrs,
		Snapshots: []geom.Snapshot{{Time: 0, V: opaque}},
	})

	var diced int
	behind := &countingQuad{
		corners: [4]linear.V3{{0, 0, 1.5}, {8, 0, 1.5}, {0, 8, 1.5}, {8, 8, 1.5}},
		diced:   &diced,
	}
	s.Post(&geom.Primitive{
		Attrs:     geom.DefaultAttrs(),
		Snapshots: []geom.Snapshot{{Time: 0, V: behind}},
	})

	s.Drive(0)

	if diced != 0 {
		t.Fatalf("dicePrimitive: occluded primitive was diced %d times, want 0", diced)
	}
}

// TestDriveTransparentOverOpaque exercises spec.md §8 scenario 2:
// a front z=1 half-transparent red quad over a back z=2 opaque
// green quad must resolve to (0.5,0.5,0) at alpha 1, depth 1.
func TestDriveTransparentOverOpaque(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 8, 8
	opts.BucketSize = [2]int{8, 8}
	opts.PixelSamples = [2]int{1, 1}
	opts.FilterFunc = driver.FBox
	opts.FilterWidth = [2]float32{1, 1}
	opts.Quantize[driver.QRGBA] = driver.Quantize{One: 0}
	opts.Near = 0.01

	s := New(&opts, orthoProject, nil)

	back := geom.NewQuad(
		linear.V3{0, 0, 2}, linear.V3{8, 0, 2},
		linear.V3{8, 8, 2}, linear.V3{0, 8, 2},
	)
	ba := geom.DefaultAttrs()
	ba.ColorDefault = [3]float32{0, 1, 0}
	s.Post(&geom.Primitive{Attrs: ba, Snapshots: []geom.Snapshot{{Time: 0, V: back}}})

	front := geom.NewQuad(
		linear.V3{0, 0, 1}, linear.V3{8, 0, 1},
		linear.V3{8, 8, 1}, linear.V3{0, 8, 1},
	)
	fa := geom.DefaultAttrs()
	// Ci is opacity-premultiplied: red at opacity 0.5.
	fa.ColorDefault = [3]float32{0.5, 0, 0}
	fa.OpacityDefault = [3]float32{0.5, 0.5, 0.5}
	s.Post(&geom.Primitive{Attrs: fa, Snapshots: []geom.Snapshot{{Time: 0, V: front}}})

	pixels := s.Drive(0)
	p := pixels[4*opts.Xres+4]
	const eps = 1e-5
	want := [3]float32{0.5, 0.5, 0}
	for i := range want {
		if d := p.Color[i] - want[i]; d > eps || d < -eps {
			t.Fatalf("center pixel color have %v, want %v", p.Color, want)
		}
	}
	if d := p.Alpha - 1; d > eps || d < -eps {
		t.Fatalf("center pixel alpha have %v, want 1", p.Alpha)
	}
	if p.Depth != 1 {
		t.Fatalf("center pixel depth have %v, want 1", p.Depth)
	}
}

// TestDriveFilterHaloAcrossBuckets exercises spec.md §8 scenario
// 4: a thin quad at the right edge of bucket 0, filtered with a
// width-3 box, must contribute to bucket 1's leftmost pixel column
// through bucket 1's halo.
func TestDriveFilterHaloAcrossBuckets(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 16, 8
	opts.BucketSize = [2]int{8, 8}
	opts.PixelSamples = [2]int{1, 1}
	opts.FilterFunc = driver.FBox
	opts.FilterWidth = [2]float32{3, 3}
	opts.Quantize[driver.QRGBA] = driver.Quantize{One: 0}
	opts.Near = 0.01

	s := New(&opts, orthoProject, nil)

	quad := geom.NewQuad(
		linear.V3{7, 0, 1}, linear.V3{8, 0, 1},
		linear.V3{8, 8, 1}, linear.V3{7, 8, 1},
	)
	attrs := geom.DefaultAttrs()
	attrs.ColorDefault = [3]float32{1, 1, 1}
	s.Post(&geom.Primitive{Attrs: attrs, Snapshots: []geom.Snapshot{{Time: 0, V: quad}}})

	if len(s.BucketAt(1).PrimQueue) != 1 {
		t.Fatal("Post: quad grazing bucket 1's halo must be bound to bucket 1")
	}

	s.Drive(0)
	pixels := s.Drive(1)
	p := pixels[4*8+0] // raster pixel (8,4), bucket-local (0,4)
	if p.Alpha <= 0 || p.Color[0] <= 0 {
		t.Fatalf("pixel (8,4): have alpha %v color %v, want a halo contribution from the quad", p.Alpha, p.Color)
	}
}

func TestDriveAllParallelMatchesSequentialBucketCount(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = 32, 32
	opts.BucketSize = [2]int{8, 8}
	opts.Parallel = true
	s := New(&opts, orthoProject, nil)

	out, err := s.DriveAll(context.Background())
	if err != nil {
		t.Fatalf("DriveAll: %v", err)
	}
	if len(out) != s.NBuckets() {
		t.Fatalf("DriveAll: have %d results, want %d", len(out), s.NBuckets())
	}
}
