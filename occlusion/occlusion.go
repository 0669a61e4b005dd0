// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package occlusion implements the per-bucket occlusion hierarchy:
// a KD-tree over sample points with a max-Z bound used to cull
// fully-occluded primitives, plus a coarser box-quadtree used to
// reject whole primitives before any per-sample test (spec.md §4.6;
// the quadtree is a supplemented two-tier scheme grounded in the
// original renderer's coarser bucket-level occlusion check).
package occlusion

import (
	"golang.org/x/exp/slices"

	"github.com/aqsis/aqsis-sub002/linear"
)

// Point is the minimal per-sample data the KD-tree needs: a raster
// position and the sample's current opaque max-Z (spec.md §3
// "Occlusion KD-tree": "a node's max_z is >= every descendant
// sample's current opaque depth").
//
// Per an explicit open-question decision, this tree tracks only
// max_z, not min_z: the original renderer's min_z bookkeeping only
// ever fed a symmetric "fully in front" test that the core's
// depth-ordered sample lists already make redundant, so carrying
// it here would be dead weight.
type Point struct {
	Pos  linear.V2
	MaxZ float32
}

// Tree is a KD-tree over a bucket's sample points, split
// alternately in x then y, down to one sample per leaf.
type Tree struct {
	root *node
}

type node struct {
	bound       Bound
	maxZ        float32
	axis        int // 0 = split on x, 1 = split on y
	split       float32
	left, right *node
	leaf        *Point
}

// Bound is a 2-D axis-aligned raster rectangle.
type Bound struct {
	Min, Max linear.V2
}

// Build constructs a Tree over pts. pts is not retained; the tree
// stores copies. Build panics if pts is empty — callers must not
// build a tree for an empty bucket.
func Build(pts []Point) *Tree {
	if len(pts) == 0 {
		panic("occlusion: Build called with no points")
	}
	cp := append([]Point(nil), pts...)
	return &Tree{root: build(cp, 0)}
}

func build(pts []Point, depth int) *node {
	b := boundOf(pts)
	if len(pts) == 1 {
		return &node{bound: b, maxZ: pts[0].MaxZ, leaf: &pts[0]}
	}
	axis := depth % 2
	sortByAxis(pts, axis)
	mid := len(pts) / 2
	split := pts[mid].Pos[axis]
	left := build(pts[:mid], depth+1)
	right := build(pts[mid:], depth+1)
	maxZ := left.maxZ
	if right.maxZ > maxZ {
		maxZ = right.maxZ
	}
	return &node{bound: b, maxZ: maxZ, axis: axis, split: split, left: left, right: right}
}

func boundOf(pts []Point) Bound {
	b := Bound{
		Min: linear.V2{1e30, 1e30},
		Max: linear.V2{-1e30, -1e30},
	}
	for _, p := range pts {
		for i := 0; i < 2; i++ {
			if p.Pos[i] < b.Min[i] {
				b.Min[i] = p.Pos[i]
			}
			if p.Pos[i] > b.Max[i] {
				b.Max[i] = p.Pos[i]
			}
		}
	}
	return b
}

// sortByAxis sorts pts in place by Pos[axis].
func sortByAxis(pts []Point, axis int) {
	slices.SortFunc(pts, func(a, b Point) bool { return a.Pos[axis] < b.Pos[axis] })
}

// MaxZ returns the tree's overall max-Z bound.
func (t *Tree) MaxZ() float32 {
	if t == nil || t.root == nil {
		return 1e30
	}
	return t.root.maxZ
}

// Occludes reports whether every sample within b is guaranteed
// opaque at a depth nearer than z -- i.e. a primitive entirely
// behind z over the raster region b can be discarded (spec.md §3
// "Invariant: once a primitive's bound is known to lie entirely
// behind all sample depths of every bucket it touches, it may be
// discarded").
func (t *Tree) Occludes(b Bound, z float32) bool {
	if t == nil || t.root == nil {
		return false
	}
	return occludes(t.root, b, z)
}

func occludes(n *node, b Bound, z float32) bool {
	if !overlaps(n.bound, b) {
		return true
	}
	if n.maxZ < z {
		return true
	}
	if n.leaf != nil {
		// An overlapping leaf whose occluding depth is not nearer
		// than z: the bound could still be visible at this sample.
		return false
	}
	return occludes(n.left, b, z) && occludes(n.right, b, z)
}

func overlaps(a, b Bound) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1]
}

// Update sets the max-Z of the leaf nearest pos (by exact position
// match) and propagates the change up the tree, keeping the
// monotonically-non-increasing invariant of spec.md §3 (node
// max_z can only shrink as samples resolve nearer opaque hits).
func (t *Tree) Update(pos linear.V2, newMaxZ float32) {
	if t == nil || t.root == nil {
		return
	}
	update(t.root, pos, newMaxZ)
}

func update(n *node, pos linear.V2, newMaxZ float32) bool {
	if n.leaf != nil {
		if n.leaf.Pos == pos {
			if newMaxZ < n.maxZ {
				n.maxZ = newMaxZ
				n.leaf.MaxZ = newMaxZ
			}
			return true
		}
		return false
	}
	var found bool
	if pos[n.axis] <= n.split {
		found = update(n.left, pos, newMaxZ)
		if !found {
			found = update(n.right, pos, newMaxZ)
		}
	} else {
		found = update(n.right, pos, newMaxZ)
		if !found {
			found = update(n.left, pos, newMaxZ)
		}
	}
	if found {
		m := n.left.maxZ
		if n.right.maxZ > m {
			m = n.right.maxZ
		}
		if m < n.maxZ {
			n.maxZ = m
		}
	}
	return found
}
