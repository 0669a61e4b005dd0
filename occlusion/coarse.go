// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package occlusion

import "github.com/aqsis/aqsis-sub002/linear"

// CoarseHierarchy is a quadtree over an entire bucket's raster
// rectangle, coarser than the per-sample KD-tree: each node covers
// a fixed region and caches the maximum occluding depth over every
// sample inside it, recomputed in batched sweeps. It lets the
// scheduler reject
// a primitive's bound against a region before walking into the
// (more expensive) per-sample Tree at all -- the two-tier split the
// original renderer's occlusion.cpp performs between its bucket-wide
// hierarchy and its per-sample KD-tree.
type CoarseHierarchy struct {
	root *coarseNode
}

type coarseNode struct {
	bound    Bound
	maxZ     float32
	children [4]*coarseNode
}

// minCell is the smallest quadtree cell extent, in pixels, below
// which subdivision stops.
const minCell = 16

// NewCoarseHierarchy builds a hierarchy covering bound, with every
// node initialized to "unknown occlusion" (max-Z = +inf).
func NewCoarseHierarchy(bound Bound) *CoarseHierarchy {
	return &CoarseHierarchy{root: newCoarseNode(bound)}
}

func newCoarseNode(b Bound) *coarseNode {
	n := &coarseNode{bound: b, maxZ: 1e30}
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	if w <= minCell || h <= minCell {
		return n
	}
	mx := (b.Min[0] + b.Max[0]) / 2
	my := (b.Min[1] + b.Max[1]) / 2
	n.children[0] = newCoarseNode(Bound{b.Min, linear.V2{mx, my}})
	n.children[1] = newCoarseNode(Bound{linear.V2{mx, b.Min[1]}, linear.V2{b.Max[0], my}})
	n.children[2] = newCoarseNode(Bound{linear.V2{b.Min[0], my}, linear.V2{mx, b.Max[1]}})
	n.children[3] = newCoarseNode(Bound{linear.V2{mx, my}, b.Max})
	return n
}

// Refresh recomputes every node's max-Z from the current sample
// state in one batched sweep: a leaf cell's max-Z is the maximum
// occluding depth over the samples inside it (+inf while any of
// them still lacks an opaque hit, -inf when it holds no samples at
// all), and interior nodes take the maximum of their children.
// A region node can only be trusted once every sample it covers is
// accounted for, which is why this is a sweep over all points
// rather than a per-sample narrowing like the KD-tree's.
func (c *CoarseHierarchy) Refresh(pts []Point) {
	if c == nil || c.root == nil {
		return
	}
	refreshCoarse(c.root, pts)
}

func refreshCoarse(n *coarseNode, pts []Point) float32 {
	if n.children[0] == nil {
		m := float32(-1e30)
		for i := range pts {
			if contains(n.bound, pts[i].Pos) && pts[i].MaxZ > m {
				m = pts[i].MaxZ
			}
		}
		n.maxZ = m
		return m
	}
	m := float32(-1e30)
	for _, ch := range n.children {
		if v := refreshCoarse(ch, pts); v > m {
			m = v
		}
	}
	n.maxZ = m
	return m
}

func contains(b Bound, p linear.V2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

// Occludes reports whether the coarsest node(s) overlapping b are
// all known to be nearer than z, giving a cheap pre-test before
// falling back to a Tree query (spec.md §3's occlusion invariant,
// applied at bucket-region granularity).
func (c *CoarseHierarchy) Occludes(b Bound, z float32) bool {
	if c == nil || c.root == nil {
		return false
	}
	return occludesCoarse(c.root, b, z)
}

func occludesCoarse(n *coarseNode, b Bound, z float32) bool {
	if !overlaps(n.bound, b) {
		return true
	}
	if n.maxZ < z {
		return true
	}
	if n.children[0] == nil {
		return false
	}
	for _, ch := range n.children {
		if !occludesCoarse(ch, b, z) {
			return false
		}
	}
	return true
}
