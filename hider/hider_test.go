// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package hider

import (
	"testing"

	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/grid"
	"github.com/aqsis/aqsis-sub002/linear"
	"github.com/aqsis/aqsis-sub002/sample"
)

func identityProject(p linear.V3) linear.V2 { return linear.V2{p[0], p[1]} }

func unitQuadMP(opaque bool) *grid.MP {
	mp := &grid.MP{
		Times:   []float32{0},
		Pos:     [][4]linear.V3{{{0, 0, 5}, {2, 0, 5}, {0, 2, 5}, {2, 2, 5}}},
		CSGNode: -1,
	}
	for i := range mp.Cs {
		mp.Cs[i] = linear.V3{1, 0, 0}
		if opaque {
			mp.Os[i] = linear.V3{1, 1, 1}
		} else {
			mp.Os[i] = linear.V3{0.5, 0.5, 0.5}
		}
	}
	mp.Opaque = opaque
	return mp
}

func TestHideOpaqueFastPath(t *testing.T) {
	b := sample.NewBucket(driver.Rect{X0: 0, Y0: 0, X1: 4, Y1: 4}, 0, 0, 1, 1, false, 0, 0)
	mp := unitQuadMP(true)
	Hide(b, mp, identityProject, driver.DepthOfField{}, nil)

	p := b.PixelAt(1, 1)
	if !p.Samples[0].OpaqueValid {
		t.Fatal("Hide: sample inside MP must set opaque fast path")
	}
	if p.Samples[0].OpaqueColor != [3]float32{1, 0, 0} {
		t.Fatalf("Hide: opaque color have %v, want {1,0,0}", p.Samples[0].OpaqueColor)
	}
	if len(p.Samples[0].List) != 0 {
		t.Fatal("Hide: opaque hit must not also populate the list")
	}

	outside := b.PixelAt(3, 3)
	if outside.Samples[0].OpaqueValid {
		t.Fatal("Hide: sample outside MP must not be touched")
	}
}

func TestHideTranslucentInsertsRecord(t *testing.T) {
	b := sample.NewBucket(driver.Rect{X0: 0, Y0: 0, X1: 4, Y1: 4}, 0, 0, 1, 1, false, 0, 0)
	mp := unitQuadMP(false)
	Hide(b, mp, identityProject, driver.DepthOfField{}, nil)

	p := b.PixelAt(1, 1)
	if len(p.Samples[0].List) != 1 {
		t.Fatalf("Hide: have %d records, want 1", len(p.Samples[0].List))
	}
	if p.Samples[0].List[0].Depth != 5 {
		t.Fatalf("Hide: depth have %v, want 5", p.Samples[0].List[0].Depth)
	}
}

func TestBarycentricInsideAndOutside(t *testing.T) {
	a := linear.V2{0, 0}
	bb := linear.V2{2, 0}
	c := linear.V2{0, 2}
	if ok, _ := barycentric(linear.V2{0.5, 0.5}, a, bb, c); !ok {
		t.Fatal("barycentric: point inside triangle reported outside")
	}
	if ok, _ := barycentric(linear.V2{5, 5}, a, bb, c); ok {
		t.Fatal("barycentric: point outside triangle reported inside")
	}
}

func TestCoCZeroWhenDisabled(t *testing.T) {
	if c := CoC(10, driver.DepthOfField{Enabled: false}); c != 0 {
		t.Fatalf("CoC: disabled DoF have %v, want 0", c)
	}
}

func TestCoCZeroAtFocalDistance(t *testing.T) {
	dof := driver.DepthOfField{Enabled: true, FStop: 4, FocalLen: 0.05, FocalDist: 5}
	if c := CoC(5, dof); c != 0 {
		t.Fatalf("CoC: at focal distance have %v, want 0", c)
	}
}

func TestLensIntervalConservative(t *testing.T) {
	// A micropolygon one raster unit to the pixel's right needs a
	// positive x offset to reach it; with coc in [0.5, 2] the
	// required offset*coc interval [1, 3] must widen to [1/2, 1],
	// clamped to the lens disc.
	lo, hi := lensInterval(1, 3, 0.5, 2)
	if lo != 0.5 || hi != 1 {
		t.Fatalf("lensInterval: have [%v,%v], want [0.5,1]", lo, hi)
	}
	// A negative requirement divides by the coc that pushes it
	// furthest from zero.
	lo, hi = lensInterval(-3, -1, 0.5, 2)
	if lo != -1 || hi != -0.5 {
		t.Fatalf("lensInterval: have [%v,%v], want [-1,-0.5]", lo, hi)
	}
}

// TestHideDoFBinsMatchBruteForce exercises the dofBin->sampleIndex
// enumeration end to end: a defocused micropolygon hidden through
// the bin pre-filter must hit exactly the samples a brute-force
// scan of the same pixel would, since the bins only narrow the
// candidate set.
func TestHideDoFBinsMatchBruteForce(t *testing.T) {
	dof := driver.DepthOfField{Enabled: true, FStop: 2, FocalLen: 0.5, FocalDist: 2}
	mk := func() (*sample.Bucket, *grid.MP) {
		b := sample.NewBucket(driver.Rect{X0: 0, Y0: 0, X1: 4, Y1: 4}, 0, 0, 4, 4, true, 0, 0)
		mp := &grid.MP{
			Times:   []float32{0},
			Pos:     [][4]linear.V3{{{1, 1, 5}, {2, 1, 5}, {1, 2, 5}, {2, 2, 5}}},
			CSGNode: -1,
		}
		for i := range mp.Cs {
			mp.Cs[i] = linear.V3{1, 1, 1}
			mp.Os[i] = linear.V3{1, 1, 1}
		}
		mp.Opaque = true
		return b, mp
	}

	binned, mp := mk()
	Hide(binned, mp, identityProject, dof, nil)

	brute, mp2 := mk()
	cMin, cMax := cocRange(mp2, dof)
	if cMin <= minCoC {
		t.Fatalf("cocRange: have cMin %v, want a defocused setup (coc > %v)", cMin, minCoC)
	}
	mpMin, mpMax := mp2.RasterBound(identityProject)
	x0, y0 := floorInt(mpMin[0]-cMax), floorInt(mpMin[1]-cMax)
	x1, y1 := floorInt(mpMax[0]+cMax)+1, floorInt(mpMax[1]+cMax)+1
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			pixel := brute.PixelAt(px, py)
			if pixel == nil {
				continue
			}
			for i := range pixel.Samples {
				hideSample(brute, &pixel.Samples[i], mp2, identityProject, dof)
			}
		}
	}

	for py := 0; py < 4; py++ {
		for px := 0; px < 4; px++ {
			pb := binned.PixelAt(px, py)
			pf := brute.PixelAt(px, py)
			for i := range pb.Samples {
				if pb.Samples[i].OpaqueValid != pf.Samples[i].OpaqueValid {
					t.Fatalf("pixel (%d,%d) sample %d: bin-filtered hit %v, brute force %v",
						px, py, i, pb.Samples[i].OpaqueValid, pf.Samples[i].OpaqueValid)
				}
			}
		}
	}
}

func TestResolveCSGUnionKeepsNearestPerLeafTransition(t *testing.T) {
	s := &sample.Sample{}
	s.CSGInit()
	s.InsertRecord(sample.Record{Depth: 1, CSGNode: 0, Color: [3]float32{1, 0, 0}, Opacity: [3]float32{1, 1, 1}})
	s.InsertRecord(sample.Record{Depth: 2, CSGNode: 0, Color: [3]float32{0, 1, 0}, Opacity: [3]float32{1, 1, 1}})
	s.InsertRecord(sample.Record{Depth: 3, CSGNode: 1, Color: [3]float32{0, 0, 1}, Opacity: [3]float32{1, 1, 1}})

	tree := &Tree{Nodes: []Node{
		{IsLeaf: true, Leaf: 0},
		{IsLeaf: true, Leaf: 1},
		{IsLeaf: false, Op: Union, Left: 0, Right: 1},
	}, Root: 2}

	ResolveCSG(s, tree)
	if len(s.List) == 0 {
		t.Fatal("ResolveCSG: union of two solids must keep at least the entering surface")
	}
	if s.List[0].Depth != 1 {
		t.Fatalf("ResolveCSG: nearest kept record depth have %v, want 1", s.List[0].Depth)
	}
}
