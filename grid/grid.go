// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package grid

import "github.com/aqsis/aqsis-sub002/linear"

// Channel is a named, per-point shading value stored contiguously
// over every lattice point of a Grid.
type Channel struct {
	Components int
	Data       []float32
}

// At returns the Components-wide tuple for lattice point i.
func (c *Channel) At(i int) []float32 {
	return c.Data[i*c.Components : (i+1)*c.Components]
}

// Grid is a regular (u+1)x(v+1) lattice of shading points
// produced by dicing a primitive (spec §3 "Micropolygon Grid").
// Motion grids carry one position slice per time; every other
// channel is evaluated once, since shading (color/opacity) is
// assumed constant across motion times (spec §4.3).
type Grid struct {
	U, V int

	// Times holds the (ascending) motion sample times this grid
	// was diced at. A non-motion grid has exactly one time.
	Times []float32

	// P holds per-time camera-space positions, one slice of
	// (U+1)*(V+1) points per time, index-aligned with Times.
	P [][]linear.V3

	// N holds shading normals at t0 only (recomputed after
	// displacement, spec §4.3 step 1).
	N []linear.V3

	channels map[string]*Channel

	// Culled marks a grid discarded by backface-culling (spec
	// §4.3 step 4) or by the diceable arbiter's degeneracy test.
	Culled bool
}

// NewGrid allocates a grid with the given micropolygon counts and
// motion times. Times must be non-empty and ascending.
func NewGrid(u, v int, times []float32) *Grid {
	np := (u + 1) * (v + 1)
	g := &Grid{
		U: u, V: v,
		Times:    append([]float32(nil), times...),
		P:        make([][]linear.V3, len(times)),
		N:        make([]linear.V3, np),
		channels: make(map[string]*Channel),
	}
	for i := range g.P {
		g.P[i] = make([]linear.V3, np)
	}
	return g
}

// NPoints returns the number of lattice points, (U+1)*(V+1).
func (g *Grid) NPoints() int { return (g.U + 1) * (g.V + 1) }

// Index returns the lattice index of point (iu,iv).
func (g *Grid) Index(iu, iv int) int { return iv*(g.U+1) + iu }

// Dims implements driver.ShadingGrid.
func (g *Grid) Dims() (u, v int) { return g.U, g.V }

// Channel implements driver.ShadingGrid: it returns the named
// channel's data, lazily allocating a new Components-wide channel
// sized to NPoints tuples if it does not already exist.
// ok is false if the channel exists with a different width.
func (g *Grid) Channel(name string, components int) (data []float32, ok bool) {
	if c, exists := g.channels[name]; exists {
		if c.Components != components {
			return nil, false
		}
		return c.Data, true
	}
	c := &Channel{Components: components, Data: make([]float32, g.NPoints()*components)}
	g.channels[name] = c
	return c.Data, true
}

// HasChannel reports whether name has been populated.
func (g *Grid) HasChannel(name string) bool {
	_, ok := g.channels[name]
	return ok
}

// TimeAt returns the P slice for Times[ti].
func (g *Grid) TimeAt(ti int) []linear.V3 { return g.P[ti] }

// PAtTime returns the interpolated position of lattice point i at
// shutter time alpha (on the same scale as Times) between
// bracketing motion samples, clamped to the first and last sample (spec §3 "Motion Primitive" resolves sample-time by
// linear interpolation between adjacent snapshots).
func (g *Grid) PAtTime(i int, alpha float32) linear.V3 {
	if len(g.Times) == 1 {
		return g.P[0][i]
	}
	n := len(g.Times)
	lo := 0
	for lo < n-2 && alpha > g.Times[lo+1] {
		lo++
	}
	t0, t1 := g.Times[lo], g.Times[lo+1]
	var frac float32
	if t1 > t0 {
		frac = (alpha - t0) / (t1 - t0)
	}
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	a, b := g.P[lo][i], g.P[lo+1][i]
	var out linear.V3
	out.Sub(&b, &a)
	out.Scale(frac, &out)
	out.Add(&out, &a)
	return out
}

// MPs returns the number of micropolygons the grid yields: U*V,
// or 0 if either dimension is 0 (a degenerate, all-collapsed
// dice).
func (g *Grid) MPs() int { return g.U * g.V }

// CornerIdx returns the four lattice indices bounding
// micropolygon (mu,mv), ordered (min-u,min-v),(max-u,min-v),
// (min-u,max-v),(max-u,max-v). For a triangle-derived primitive
// one row collapses (both v-indices of a column coincide, as
// arranged by the caller when building P), which naturally
// degenerates the quad to a triangle.
func (g *Grid) CornerIdx(mu, mv int) [4]int {
	w := g.U + 1
	i00 := mv*w + mu
	i10 := mv*w + mu + 1
	i01 := (mv+1)*w + mu
	i11 := (mv+1)*w + mu + 1
	return [4]int{i00, i10, i01, i11}
}
