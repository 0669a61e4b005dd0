// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package geom

import (
	"github.com/aqsis/aqsis-sub002/internal/arena"
	"github.com/aqsis/aqsis-sub002/linear"
)

// Subdivision is a quadrilateral face of a Catmull-Clark control
// mesh (spec §3 "Subdivision surface", §9 "Winged-edge subdivision
// meshes"). Construction runs one smoothing pass over the face's
// four corner vertices, walking the mesh's winged-edge topology
// in internal/arena to account for adjacent faces and edges; the
// smoothed corners are then treated exactly like a Patch's control
// hull for Dice/Split, which mirrors how a diceable arbiter
// eventually reduces any subdivision leaf to a bilinear patch.
type Subdivision struct {
	P [4]linear.V3
}

// NewSubdivision builds a Subdivision for face f of mesh, whose
// vertex positions are given by pos (indexed by Vert.PosIdx).
// Only quadrilateral faces are supported; arbitrary polygon
// control meshes are expected to have been quadrangulated before
// reaching this constructor.
func NewSubdivision(mesh *arena.Mesh, f int, pos []linear.V3) *Subdivision {
	verts := mesh.FaceVerts(f)
	// FaceVerts walks the boundary ring; Patch corners are ordered
	// (min-u,min-v), (max-u,min-v), (min-u,max-v), (max-u,max-v).
	ringToCorner := [4]int{0, 1, 3, 2}
	var s Subdivision
	for i, v := range verts {
		if i >= 4 {
			break
		}
		s.P[ringToCorner[i]] = vertexPoint(mesh, pos, v)
	}
	return &s
}

// vertexPoint applies the Catmull-Clark vertex rule: for an
// interior vertex of valence n incident to face-centroids F and
// edge-midpoints E, the new position is (F_avg + 2*E_avg +
// (n-3)*orig) / n. Boundary vertices (incident to an edge with no
// face on one side) keep their original position; crease handling
// for boundary loops is left to the original limit-surface
// evaluation, out of scope here.
func vertexPoint(mesh *arena.Mesh, pos []linear.V3, v int) linear.V3 {
	edges := mesh.VertEdges(v)
	orig := pos[mesh.Verts[v].PosIdx]
	if len(edges) == 0 {
		return orig
	}
	for _, e := range edges {
		edge := &mesh.Edges[e]
		if edge.LeftFace == -1 || edge.RightFace == -1 {
			return orig
		}
	}
	n := len(edges)
	var fAvg, eAvg linear.V3
	faceSeen := make(map[int]bool, n)
	for _, e := range edges {
		edge := &mesh.Edges[e]
		for _, fi := range [2]int{edge.LeftFace, edge.RightFace} {
			if fi == -1 || faceSeen[fi] {
				continue
			}
			faceSeen[fi] = true
			c := faceCentroid(mesh, pos, fi)
			fAvg.Add(&fAvg, &c)
		}
		other := edge.HeadVert
		if other == v {
			other = edge.TailVert
		}
		mid := pos[mesh.Verts[other].PosIdx]
		eAvg.Add(&eAvg, &mid)
	}
	nf := float32(len(faceSeen))
	if nf > 0 {
		fAvg.Scale(1/nf, &fAvg)
	}
	// eAvg currently holds the sum of neighboring vertex positions;
	// turn it into the average edge midpoint E = (orig+avgNeighbor)/2.
	eAvg.Scale(1/float32(n), &eAvg)
	eAvg.Add(&eAvg, &orig)
	eAvg.Scale(0.5, &eAvg)

	var out linear.V3
	out.Add(&fAvg, &eAvg)
	out.Add(&out, &eAvg)
	var scaled linear.V3
	scaled.Scale(float32(n-3), &orig)
	out.Add(&out, &scaled)
	out.Scale(1/float32(n), &out)
	return out
}

func faceCentroid(mesh *arena.Mesh, pos []linear.V3, f int) linear.V3 {
	verts := mesh.FaceVerts(f)
	var c linear.V3
	for _, v := range verts {
		p := pos[mesh.Verts[v].PosIdx]
		c.Add(&c, &p)
	}
	if len(verts) > 0 {
		c.Scale(1/float32(len(verts)), &c)
	}
	return c
}

// Kind implements Variant.
func (s *Subdivision) Kind() Kind { return KSubdivision }

// Bound implements Variant.
func (s *Subdivision) Bound() Bound {
	b := EmptyBound()
	for _, c := range s.P {
		b.AddPoint(c)
	}
	return b
}

// Corners implements Variant.
func (s *Subdivision) Corners() [4]linear.V3 { return s.P }

// Degenerate implements Variant.
func (s *Subdivision) Degenerate() bool {
	var e1, e2, n linear.V3
	e1.Sub(&s.P[1], &s.P[0])
	e2.Sub(&s.P[2], &s.P[0])
	n.Cross(&e1, &e2)
	const eps = 1e-12
	return n.Dot(&n) < eps
}

// Dice implements Variant; identical math to Patch.Dice, since a
// smoothed control hull dices the same way as a bilinear one.
func (s *Subdivision) Dice(u, v int, vars []PrimVar) (pos, norm []linear.V3) {
	p := Patch{P: s.P}
	return p.Dice(u, v, vars)
}

// Split implements Variant; identical math to Patch.Split.
func (s *Subdivision) Split(axis int, vars []PrimVar) (a, b Variant, varsA, varsB []PrimVar, err error) {
	p := Patch{P: s.P}
	va, vb, varsA, varsB, err := p.Split(axis, vars)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	pa, pb := va.(*Patch), vb.(*Patch)
	return &Subdivision{P: pa.P}, &Subdivision{P: pb.P}, varsA, varsB, nil
}
