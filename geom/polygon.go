// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import "github.com/aqsis/aqsis-sub002/linear"

// Polygon is a triangle or quadrilateral face, stored the same
// way as Patch (four corners, bilinearly diced) but tagged with
// its own Kind. A triangle is represented by duplicating its
// third vertex into both of the quad's max-v corners, which
// collapses the last dice row to a single point -- the invariant
// spec §3 names for triangle-derived micropolygon grids.
// Polygons with more than four vertices are fan-triangulated
// into a sequence of these before they reach the core (the RI
// façade's job, out of scope per spec §1).
type Polygon struct {
	P [4]linear.V3
}

// NewTriangle builds a Polygon from three vertices.
func NewTriangle(v0, v1, v2 linear.V3) *Polygon {
	return &Polygon{P: [4]linear.V3{v0, v1, v2, v2}}
}

// NewQuad builds a Polygon from four vertices in CCW winding
// (v0,v1,v2,v3 around the boundary).
func NewQuad(v0, v1, v2, v3 linear.V3) *Polygon {
	return &Polygon{P: [4]linear.V3{v0, v1, v3, v2}}
}

// Kind implements Variant.
func (p *Polygon) Kind() Kind { return KPolygon }

// Bound implements Variant.
func (p *Polygon) Bound() Bound {
	b := EmptyBound()
	for _, c := range p.P {
		b.AddPoint(c)
	}
	return b
}

// Corners implements Variant.
func (p *Polygon) Corners() [4]linear.V3 { return p.P }

// Degenerate implements Variant.
func (p *Polygon) Degenerate() bool {
	var e1, e2, n linear.V3
	e1.Sub(&p.P[1], &p.P[0])
	e2.Sub(&p.P[2], &p.P[0])
	n.Cross(&e1, &e2)
	const eps = 1e-12
	return n.Dot(&n) < eps
}

// Dice implements Variant; identical math to Patch.Dice.
func (p *Polygon) Dice(u, v int, vars []PrimVar) (pos, norm []linear.V3) {
	pp := Patch{P: p.P}
	return pp.Dice(u, v, vars)
}

// Split implements Variant; identical math to Patch.Split.
func (p *Polygon) Split(axis int, vars []PrimVar) (a, b Variant, varsA, varsB []PrimVar, err error) {
	pp := Patch{P: p.P}
	va, vb, varsA, varsB, err := pp.Split(axis, vars)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	pa, pb := va.(*Patch), vb.(*Patch)
	return &Polygon{P: pa.P}, &Polygon{P: pb.P}, varsA, varsB, nil
}
