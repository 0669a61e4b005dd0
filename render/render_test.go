// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package render

import (
	"context"
	"testing"

	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/linear"
)

func TestDefaultConfigRoundTripsThroughConfigure(t *testing.T) {
	c := DefaultConfig()
	opts, err := Configure(c)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if opts.Xres != c.Xres || opts.Yres != c.Yres {
		t.Fatalf("Configure: resolution mismatch, have %dx%d want %dx%d", opts.Xres, opts.Yres, c.Xres, c.Yres)
	}
}

func TestConfigureRejectsZeroResolution(t *testing.T) {
	c := DefaultConfig()
	c.Xres = 0
	if _, err := Configure(c); err == nil {
		t.Fatal("Configure: expected an error for Xres == 0")
	}
}

func TestAttrFrameBeginEndIsolatesChanges(t *testing.T) {
	root := newRootFrame()
	child := root.WithShadingRate(4)
	if root.Attrs().ShadingRate == 4 {
		t.Fatal("AttrFrame: mutating a child frame must not affect its parent")
	}
	if child.Attrs().ShadingRate != 4 {
		t.Fatalf("AttrFrame: child ShadingRate have %v, want 4", child.Attrs().ShadingRate)
	}
	if back := child.End(); back != root {
		t.Fatal("AttrFrame: End must return exactly the parent frame")
	}
}

func TestAttrFrameEndOnRootIsNoop(t *testing.T) {
	root := newRootFrame()
	if root.End() != root {
		t.Fatal("AttrFrame: End on the root frame must return itself")
	}
}

type constPrim struct {
	corners [4]linear.V3
}

func (c *constPrim) Kind() geom.Kind     { return geom.KPolygon }
func (c *constPrim) Corners() [4]linear.V3 { return c.corners }
func (c *constPrim) Bound() geom.Bound {
	b := geom.EmptyBound()
	for _, p := range c.corners {
		b.AddPoint(p)
	}
	return b
}
func (c *constPrim) Dice(u, v int, vars []geom.PrimVar) ([]linear.V3, []linear.V3) {
	np := (u + 1) * (v + 1)
	pos := make([]linear.V3, np)
	norm := make([]linear.V3, np)
	for i := range pos {
		pos[i] = c.corners[0]
		norm[i] = linear.V3{0, 0, -1}
	}
	return pos, norm
}
func (c *constPrim) Split(axis int, vars []geom.PrimVar) (geom.Variant, geom.Variant, []geom.PrimVar, []geom.PrimVar, error) {
	return c, c, vars, vars, nil
}
func (c *constPrim) Degenerate() bool { return false }

func identityProject(p linear.V3) linear.V2 { return linear.V2{p[0], p[1]} }

func TestFrameLifecycleDrivesAllBuckets(t *testing.T) {
	c := DefaultConfig()
	c.Xres, c.Yres = 16, 16
	c.BucketSizeX, c.BucketSizeY = 8, 8
	c.PixelSamplesX, c.PixelSamplesY = 1, 1

	f, err := BeginFrame(c, identityProject, nil)
	if err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	f.WorldBegin()
	f.AttributeBegin()
	f.SetFrame(f.AttrStack().WithShadingRate(2))
	f.Surface(&geom.Primitive{
		Snapshots: []geom.Snapshot{{Time: 0, V: &constPrim{corners: [4]linear.V3{
			{2, 2, 5}, {6, 2, 5}, {2, 6, 5}, {6, 6, 5},
		}}}},
	})
	f.AttributeEnd()
	f.WorldEnd()

	n := 0
	for range f.Buckets() {
		n++
	}
	if n != f.NBuckets() {
		t.Fatalf("Buckets: visited %d buckets, want %d", n, f.NBuckets())
	}
	f.EndFrame()
}

func TestFrameRenderParallel(t *testing.T) {
	c := DefaultConfig()
	c.Xres, c.Yres = 16, 16
	c.BucketSizeX, c.BucketSizeY = 8, 8
	c.PixelSamplesX, c.PixelSamplesY = 1, 1
	c.Parallel = true

	f, err := BeginFrame(c, identityProject, nil)
	if err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	f.WorldBegin()
	f.Surface(&geom.Primitive{
		Snapshots: []geom.Snapshot{{Time: 0, V: &constPrim{corners: [4]linear.V3{
			{2, 2, 5}, {6, 2, 5}, {2, 6, 5}, {6, 6, 5},
		}}}},
	})
	f.WorldEnd()

	if err := f.Render(context.Background()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	f.EndFrame()
}
