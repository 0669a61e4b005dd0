// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package grid

import "github.com/aqsis/aqsis-sub002/linear"

// MP is a shaded micropolygon: four camera-space corner
// positions (per motion time) plus per-corner shaded data (spec
// §3 "Micropolygon"). It is self-contained so it can outlive the
// Grid it was cut from once posted to a bucket's MP queue.
type MP struct {
	Times []float32
	// Pos[t][corner] is the corner position at Times[t].
	Pos [][4]linear.V3

	Cs [4]linear.V3 // shaded color
	Os [4]linear.V3 // shaded opacity
	N  [4]linear.V3

	// CSGNode identifies the CSG leaf this MP's primitive
	// belongs to, or -1 if the primitive is not part of a CSG
	// tree (spec §4.4 "CSG").
	CSGNode int

	Matte bool

	// Opaque is true when every corner's opacity is (1,1,1) and
	// the MP is neither Matte nor part of a CSG tree -- the fast
	// path of spec §4.4 "apply".
	Opaque bool
}

// PAtTime returns the interpolated corner positions at shutter
// time alpha, same resolution rule as Grid.PAtTime.
func (m *MP) PAtTime(alpha float32) [4]linear.V3 {
	if len(m.Times) == 1 {
		return m.Pos[0]
	}
	n := len(m.Times)
	lo := 0
	for lo < n-2 && alpha > m.Times[lo+1] {
		lo++
	}
	t0, t1 := m.Times[lo], m.Times[lo+1]
	var frac float32
	if t1 > t0 {
		frac = (alpha - t0) / (t1 - t0)
	}
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	var out [4]linear.V3
	for i := range out {
		a, b := m.Pos[lo][i], m.Pos[lo+1][i]
		var d linear.V3
		d.Sub(&b, &a)
		d.Scale(frac, &d)
		out[i].Add(&d, &a)
	}
	return out
}

// RasterBound returns the 2-D bound of m's corners across every
// motion time, after each corner has been projected to raster
// space by project (camera -> raster). Depth (Pos[i][2] in the
// returned slice ordering) is left to the caller; this only
// bounds (x,y).
func (m *MP) RasterBound(project func(p linear.V3) linear.V2) (min, max linear.V2) {
	const inf = 1e30
	min, max = linear.V2{inf, inf}, linear.V2{-inf, -inf}
	for _, pos := range m.Pos {
		for _, p := range pos {
			r := project(p)
			for i := range min {
				if r[i] < min[i] {
					min[i] = r[i]
				}
				if r[i] > max[i] {
					max[i] = r[i]
				}
			}
		}
	}
	return
}

// Area returns the (signed) 2-D area of the quad, a cheap proxy
// for degeneracy checks (spec §3 "an MP's
// raster-space bounding rectangle is computable and finite; MPs
// with |area| <= eps are discarded").
func Area(corners [4]linear.V2) float32 {
	// Shoelace formula over the quad in the order produced by
	// Grid.CornerIdx: (00,10,11,01).
	pts := [4]linear.V2{corners[0], corners[1], corners[3], corners[2]}
	var area float32
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return area / 2
}

// NewMPFromGrid extracts the micropolygon at (mu,mv) from a
// shaded grid, copying its corner positions (every motion time),
// normals and the named color/opacity channels.
func NewMPFromGrid(g *Grid, mu, mv int, colorChan, opacityChan string) MP {
	idx := g.CornerIdx(mu, mv)
	mp := MP{
		Times:   g.Times,
		Pos:     make([][4]linear.V3, len(g.Times)),
		CSGNode: -1,
	}
	for t := range g.Times {
		for c, i := range idx {
			mp.Pos[t][c] = g.P[t][i]
		}
	}
	for c, i := range idx {
		mp.N[c] = g.N[i]
	}
	if cs, ok := g.channels[colorChan]; ok && cs.Components == 3 {
		for c, i := range idx {
			v := cs.At(i)
			mp.Cs[c] = linear.V3{v[0], v[1], v[2]}
		}
	}
	if os, ok := g.channels[opacityChan]; ok && os.Components == 3 {
		for c, i := range idx {
			v := os.At(i)
			mp.Os[c] = linear.V3{v[0], v[1], v[2]}
		}
		mp.Opaque = true
		for _, o := range mp.Os {
			if o[0] != 1 || o[1] != 1 || o[2] != 1 {
				mp.Opaque = false
				break
			}
		}
	}
	return mp
}
