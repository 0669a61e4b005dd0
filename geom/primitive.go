// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import (
	"errors"

	"github.com/aqsis/aqsis-sub002/grid"
	"github.com/aqsis/aqsis-sub002/linear"
)

const prefix = "geom: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// Kind identifies a concrete Variant implementation. It is the
// tag of the tagged-variant dispatch called for in spec §9
// ("GPrim polymorphism").
type Kind int

// Supported primitive kinds. Every kind reduces to the same
// Bound/Dice/Split/Corners contract (spec §1, §4.2); higher-order
// primitive types (NURBS, quadrics, true subdivision limit
// surfaces) are out of scope beyond exercising that contract, per
// spec §1's Non-goals.
const (
	KPatch Kind = iota
	KPolygon
	KSubdivision
)

// Variant is the per-snapshot geometric representation a GPrim
// reduces to. Implementations: Patch, Polygon, Subdivision.
type Variant interface {
	Kind() Kind

	// Bound returns the variant's camera-space axis-aligned
	// bound.
	Bound() Bound

	// Corners returns an approximation of the variant's control
	// hull corners, used by the diceable arbiter to estimate
	// raster-space extent (spec §4.2).
	Corners() [4]linear.V3

	// Dice produces a (u+1)x(v+1) lattice of positions and
	// normals; PrimVars are interpolated onto it according to
	// their Class.
	Dice(u, v int, vars []PrimVar) (pos []linear.V3, norm []linear.V3)

	// Split halves the variant along the given axis (0=u,1=v),
	// returning two children whose primvars have been
	// interpolated from vars. Must preserve C0 continuity at the
	// shared edge (spec §4.2).
	Split(axis int, vars []PrimVar) (a, b Variant, varsA, varsB []PrimVar, err error)

	// Degenerate reports whether the control hull has collapsed
	// to (approximately) zero area.
	Degenerate() bool
}

// Snapshot pairs a motion time with the variant state at that
// time.
type Snapshot struct {
	Time float32
	V    Variant
}

// Primitive is a (possibly motion-blurred) GPrim: an ordered
// sequence of snapshots sharing one set of primitive variables
// and one attribute set (spec §3 "Scene Primitive", "Motion
// Primitive").
type Primitive struct {
	Snapshots []Snapshot
	Vars      []PrimVar
	Attrs     Attrs

	// EyeSplitCount tracks how many times this primitive's
	// lineage has been split because it crossed the near plane
	// (spec §4.1 "EyeSplitLimit").
	EyeSplitCount int
}

// CrossesNear reports whether p's bound straddles the near clip
// plane (z == near): part of the primitive is in front of the eye
// and part behind it, the condition that forces an eye-split
// rather than an ordinary diceable-arbiter split (spec §4.1, §4.2
// "sub-primitives inherit the parent's EyeSplitCount (+1 when
// primitive's bound crossed the near plane)").
func (p *Primitive) CrossesNear(near float32) bool {
	b := p.Bound()
	return b.Min[2] < near && b.Max[2] > near
}

// ClipNear returns p's bound with its near-Z face clamped to lie
// at or behind near, mirroring the original renderer's
// ClipToNearPlane-before-reclip sequence (spec §9 "Eye-split
// accounting and near-plane clamp"): the scheduler re-projects
// against this clamped bound instead of the raw one, so a
// primitive straddling the eye is never treated as if it were
// entirely in front of it. The underlying snapshot geometry is
// untouched -- REYES clips micropolygons, not control hulls.
func (p *Primitive) ClipNear(near float32) Bound {
	b := p.Bound()
	if b.Min[2] < near {
		b.Min[2] = near
	}
	return b
}

// Times returns the snapshot times.
func (p *Primitive) Times() []float32 {
	t := make([]float32, len(p.Snapshots))
	for i := range p.Snapshots {
		t[i] = p.Snapshots[i].Time
	}
	return t
}

// Bound returns the union of every snapshot's bound (spec §3
// "Motion Primitive: its bound is the union of per-snapshot
// bounds").
func (p *Primitive) Bound() Bound {
	b := EmptyBound()
	for _, s := range p.Snapshots {
		b.Union(s.V.Bound())
	}
	return b
}

// Degenerate reports whether every snapshot has degenerated.
func (p *Primitive) Degenerate() bool {
	for _, s := range p.Snapshots {
		if !s.V.Degenerate() {
			return false
		}
	}
	return true
}

// Dice dices every snapshot at the same (u,v) resolution and
// assembles a shared grid.Grid, populating primitive variables
// by class.
func (p *Primitive) Dice(u, v int) *grid.Grid {
	times := p.Times()
	g := grid.NewGrid(u, v, times)
	for ti, s := range p.Snapshots {
		pos, norm := s.V.Dice(u, v, p.Vars)
		copy(g.P[ti], pos)
		if ti == 0 {
			copy(g.N, norm)
		}
	}
	dicePrimVars(g, p.Vars)
	return g
}

// Split splits every snapshot along axis, producing two child
// Primitives. Children inherit EyeSplitCount unmodified; the
// caller (the diceable arbiter / scheduler) is responsible for
// incrementing it when a near-plane crossing is detected.
func (p *Primitive) Split(axis int) (a, b *Primitive, err error) {
	a = &Primitive{Attrs: p.Attrs, EyeSplitCount: p.EyeSplitCount}
	b = &Primitive{Attrs: p.Attrs, EyeSplitCount: p.EyeSplitCount}
	for _, s := range p.Snapshots {
		va, vb, varsA, varsB, e := s.V.Split(axis, p.Vars)
		if e != nil {
			return nil, nil, e
		}
		a.Snapshots = append(a.Snapshots, Snapshot{Time: s.Time, V: va})
		b.Snapshots = append(b.Snapshots, Snapshot{Time: s.Time, V: vb})
		a.Vars, b.Vars = varsA, varsB
	}
	if len(a.Snapshots) == 0 {
		return nil, nil, newErr("Split: primitive has no snapshots")
	}
	return a, b, nil
}

// dicePrimVars interpolates each primvar onto the grid's lattice
// points according to its Class. Constant/Uniform variables are
// broadcast; Varying/Vertex/FaceVarying are bilinearly
// interpolated across the (four-corner) control hull, per the
// Bilinear helper (spec §4.2's C0-continuity requirement reduces,
// for a bilinear hull, to evaluating from the same corner data
// both children share).
func dicePrimVars(g *grid.Grid, vars []PrimVar) {
	w := g.U + 1
	h := g.V + 1
	for _, pv := range vars {
		if pv.Name == "P" {
			continue
		}
		comp := pv.Components
		data, ok := g.Channel(pv.Name, comp)
		if !ok {
			continue
		}
		switch pv.Class {
		case Constant, Uniform:
			if pv.Count() == 0 {
				continue
			}
			v := pv.At(0)
			for i := 0; i < g.NPoints(); i++ {
				copy(data[i*comp:(i+1)*comp], v)
			}
		default:
			if pv.Count() < 4 {
				continue
			}
			a, b2, c, d := pv.At(0), pv.At(1), pv.At(2), pv.At(3)
			for iv := 0; iv < h; iv++ {
				t := float32(iv) / float32(g.V)
				if g.V == 0 {
					t = 0
				}
				for iu := 0; iu < w; iu++ {
					s := float32(iu) / float32(g.U)
					if g.U == 0 {
						s = 0
					}
					idx := g.Index(iu, iv)
					grid.Bilinear(a, b2, c, d, s, t, data[idx*comp:(idx+1)*comp])
				}
			}
		}
	}
}
