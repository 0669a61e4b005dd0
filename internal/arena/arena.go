// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package arena implements the index-based winged-edge mesh
// representation called for in spec §9: rather than a graph of
// pointer-linked CqWVert/CqWEdge/CqWFace nodes with manual
// lifetime management, topology is stored as three growable
// index slices. Subdivision rebuilds the arena instead of
// mutating a pointer graph, so there is no ownership cycle to
// reason about.
package arena

import (
	"golang.org/x/exp/slices"

	"github.com/aqsis/aqsis-sub002/internal/bitm"
)

// noIdx marks an unset index reference.
const noIdx = -1

// Vert is a vertex in the arena: its position index into the
// mesh's primvar storage, plus one incident edge (enough to walk
// the full vertex star via headCW/headCCW).
type Vert struct {
	PosIdx int
	Edge   int
}

// Edge is a half of a winged edge: {head,tail} vertices, the
// faces on either side, and the four winged links used to walk
// a vertex's or face's incident edges without backtracking.
// SubdividedChild is set to the index of the edge's midpoint
// child edge after a subdivision pass, or noIdx before one.
type Edge struct {
	HeadVert, TailVert  int
	LeftFace, RightFace int
	HeadCW, HeadCCW     int
	TailCW, TailCCW     int
	Sharpness           float32
	SubdividedChildIdx  int
}

// Face is a polygonal face referencing one of its boundary
// edges; the rest are reached by walking HeadCCW/TailCCW.
type Face struct {
	Edge int
}

// Mesh is the arena itself: indexed vectors of verts, edges and
// faces, plus bitmaps tracking which slots are live (so deleted
// elements are dropped without shifting indices that other
// elements still reference). Freed slots are not reused: the Add
// methods always append.
type Mesh struct {
	Verts []Vert
	Edges []Edge
	Faces []Face

	liveV bitm.Bitm[uint32]
	liveE bitm.Bitm[uint32]
	liveF bitm.Bitm[uint32]
}

// NewMesh creates an empty arena.
func NewMesh() *Mesh { return &Mesh{} }

// NewMeshSize creates an empty arena with its index slices
// pre-grown to the given expected element counts, avoiding
// reallocation churn while a Catmull-Clark subdivision pass
// rebuilds the arena at a known larger topology size.
func NewMeshSize(nverts, nedges, nfaces int) *Mesh {
	m := &Mesh{}
	m.Verts = slices.Grow(m.Verts, nverts)
	m.Edges = slices.Grow(m.Edges, nedges)
	m.Faces = slices.Grow(m.Faces, nfaces)
	return m
}

// AddVert appends a vertex and returns its index.
func (m *Mesh) AddVert(posIdx int) int {
	idx := len(m.Verts)
	m.Verts = append(m.Verts, Vert{PosIdx: posIdx, Edge: noIdx})
	if idx >= m.liveV.Len() {
		m.liveV.Grow(1)
	}
	m.liveV.Set(idx)
	return idx
}

// AddEdge appends an edge and returns its index. The winged
// links default to noIdx; callers stitch them as the mesh is
// built face by face.
func (m *Mesh) AddEdge(head, tail int) int {
	idx := len(m.Edges)
	m.Edges = append(m.Edges, Edge{
		HeadVert: head, TailVert: tail,
		LeftFace: noIdx, RightFace: noIdx,
		HeadCW: noIdx, HeadCCW: noIdx,
		TailCW: noIdx, TailCCW: noIdx,
		SubdividedChildIdx: noIdx,
	})
	if idx >= m.liveE.Len() {
		m.liveE.Grow(1)
	}
	m.liveE.Set(idx)
	return idx
}

// AddFace appends a face referencing edge e and returns its
// index.
func (m *Mesh) AddFace(e int) int {
	idx := len(m.Faces)
	m.Faces = append(m.Faces, Face{Edge: e})
	if idx >= m.liveF.Len() {
		m.liveF.Grow(1)
	}
	m.liveF.Set(idx)
	return idx
}

// RemoveFace marks a face's slot as free. AddFace never reuses
// the freed index.
func (m *Mesh) RemoveFace(idx int) { m.liveF.Unset(idx) }

// RemoveEdge marks an edge's slot as free.
func (m *Mesh) RemoveEdge(idx int) { m.liveE.Unset(idx) }

// RemoveVert marks a vertex's slot as free.
func (m *Mesh) RemoveVert(idx int) { m.liveV.Unset(idx) }

// FaceVerts returns, in order, the vertex indices bounding face
// f by walking its edge ring via HeadCCW.
func (m *Mesh) FaceVerts(f int) []int {
	start := m.Faces[f].Edge
	var verts []int
	e := start
	for {
		edge := &m.Edges[e]
		if edge.LeftFace == f {
			verts = append(verts, edge.TailVert)
			e = edge.HeadCCW
		} else {
			verts = append(verts, edge.HeadVert)
			e = edge.TailCCW
		}
		if e == start || e == noIdx {
			break
		}
	}
	return verts
}

// VertEdges returns the edges incident to vertex v, walked in
// order via the winged CW links (HeadCW on the head side, TailCW
// on the tail side). The walk stops when it returns to the start
// edge (interior vertex) or reaches noIdx (boundary vertex).
func (m *Mesh) VertEdges(v int) []int {
	start := m.Verts[v].Edge
	if start == noIdx {
		return nil
	}
	var edges []int
	e := start
	for {
		edges = append(edges, e)
		edge := &m.Edges[e]
		var next int
		if edge.HeadVert == v {
			next = edge.HeadCW
		} else {
			next = edge.TailCW
		}
		if next == noIdx || next == start {
			break
		}
		e = next
	}
	return edges
}

// NFaces returns the number of live faces.
func (m *Mesh) NFaces() int { return m.liveF.Len() - m.liveF.Rem() }

// NVerts returns the number of live vertices.
func (m *Mesh) NVerts() int { return m.liveV.Len() - m.liveV.Rem() }
