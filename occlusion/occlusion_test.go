// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package occlusion

import (
	"testing"

	"github.com/aqsis/aqsis-sub002/linear"
)

func grid4() []Point {
	var pts []Point
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			pts = append(pts, Point{Pos: linear.V2{float32(x), float32(y)}, MaxZ: 10})
		}
	}
	return pts
}

func TestBuildMaxZ(t *testing.T) {
	tr := Build(grid4())
	if tr.MaxZ() != 10 {
		t.Fatalf("MaxZ: have %v, want 10", tr.MaxZ())
	}
}

func TestOccludesFarBound(t *testing.T) {
	tr := Build(grid4())
	b := Bound{Min: linear.V2{0, 0}, Max: linear.V2{3, 3}}
	if tr.Occludes(b, 5) {
		t.Fatal("Occludes: bound at z=5 should not be occluded when maxZ=10")
	}
	if !tr.Occludes(b, 20) {
		t.Fatal("Occludes: bound at z=20 should be occluded when maxZ=10")
	}
}

func TestOccludesOutsideBound(t *testing.T) {
	tr := Build(grid4())
	b := Bound{Min: linear.V2{100, 100}, Max: linear.V2{200, 200}}
	if !tr.Occludes(b, 1) {
		t.Fatal("Occludes: a bound with no overlapping samples is trivially occluded")
	}
}

func TestUpdateMonotonic(t *testing.T) {
	tr := Build(grid4())
	tr.Update(linear.V2{0, 0}, 1)
	if tr.MaxZ() != 10 {
		t.Fatalf("Update: lowering one leaf must not raise the overall maxZ below the other 15 samples' 10: have %v", tr.MaxZ())
	}
}

func TestCoarseHierarchy(t *testing.T) {
	b := Bound{Min: linear.V2{0, 0}, Max: linear.V2{64, 64}}
	c := NewCoarseHierarchy(b)
	if c.Occludes(b, 5) {
		t.Fatal("Occludes: fresh hierarchy (maxZ=+inf) must not occlude")
	}

	// Every sample resolved opaque at z=1: the whole region
	// occludes anything farther, but nothing nearer.
	var pts []Point
	for y := 0; y < 64; y += 4 {
		for x := 0; x < 64; x += 4 {
			pts = append(pts, Point{Pos: linear.V2{float32(x), float32(y)}, MaxZ: 1})
		}
	}
	c.Refresh(pts)
	if !c.Occludes(b, 5) {
		t.Fatal("Occludes: fully-covered region at z=1 must occlude z=5")
	}
	if c.Occludes(b, 0.5) {
		t.Fatal("Occludes: fully-covered region at z=1 must not occlude z=0.5")
	}

	// One sample still uncovered: its cell must stop occlusion.
	pts[0].MaxZ = 1e30
	c.Refresh(pts)
	corner := Bound{Min: linear.V2{0, 0}, Max: linear.V2{2, 2}}
	if c.Occludes(corner, 5) {
		t.Fatal("Occludes: a region holding an uncovered sample must not occlude")
	}
}
