// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package shade implements the shading grid engine: it drives a
// primitive's attached displacement/surface/atmosphere shaders
// over a diced grid.Grid and resolves backface culling (spec.md
// §4.3).
package shade

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/grid"
	"github.com/aqsis/aqsis-sub002/linear"
)

// Shade runs g through the sequence displacement → surface →
// atmosphere described by attrs, then applies backface culling.
// A nil ErrorHandler is treated as driver.Discard.
func Shade(g *grid.Grid, attrs geom.Attrs, eh driver.ErrorHandler) {
	if eh == nil {
		eh = driver.Discard
	}
	if attrs.Displacement != nil {
		ensureChannels(g, attrs.Displacement)
		if err := attrs.Displacement.Evaluate(g, eh); err != nil {
			eh(driver.Error, driver.ShaderEvalFault, err.Error())
		}
		recomputeNormals(g)
	}
	// Ci/Oi default to the attribute state's color and opacity;
	// a surface shader overwrites whichever it produces.
	ci, oi := colorChannels(g)
	broadcast(ci, attrs.ColorDefault)
	broadcast(oi, attrs.OpacityDefault)
	if attrs.Surface != nil {
		ensureChannels(g, attrs.Surface)
		if err := attrs.Surface.Evaluate(g, eh); err != nil {
			eh(driver.Error, driver.ShaderEvalFault, err.Error())
		}
	}
	if attrs.Atmosphere != nil {
		ensureChannels(g, attrs.Atmosphere)
		if err := attrs.Atmosphere.Evaluate(g, eh); err != nil {
			eh(driver.Error, driver.ShaderEvalFault, err.Error())
		}
	}
	if attrs.Sides == 1 && backfacing(g) {
		g.Culled = true
	}
}

// ensureChannels pre-allocates every channel a shader module
// declares, so the module's Evaluate never observes a missing
// input and its outputs land in storage the rest of the pipeline
// can read back by name.
func ensureChannels(g *grid.Grid, sh driver.ShaderModule) {
	for _, use := range sh.Uses() {
		g.Channel(use.Name, use.Components)
	}
}

// colorChannels ensures the Ci/Oi channels exist and returns them.
func colorChannels(g *grid.Grid) (ci, oi []float32) {
	ci, _ = g.Channel("Ci", 3)
	oi, _ = g.Channel("Oi", 3)
	return
}

func broadcast(data []float32, v [3]float32) {
	for i := 0; i+3 <= len(data); i += 3 {
		data[i], data[i+1], data[i+2] = v[0], v[1], v[2]
	}
}

// recomputeNormals rebuilds g.N from g.P[0] via central
// differences of the u and v tangents, as required after a
// displacement shader has moved the surface (spec.md §4.3 step 1).
func recomputeNormals(g *grid.Grid) {
	w, h := g.U+1, g.V+1
	p := g.P[0]
	for iv := 0; iv < h; iv++ {
		for iu := 0; iu < w; iu++ {
			idx := g.Index(iu, iv)
			var du, dv linear.V3
			switch {
			case iu == 0:
				du.Sub(&p[g.Index(iu+1, iv)], &p[idx])
			case iu == w-1:
				du.Sub(&p[idx], &p[g.Index(iu-1, iv)])
			default:
				du.Sub(&p[g.Index(iu+1, iv)], &p[g.Index(iu-1, iv)])
			}
			switch {
			case iv == 0:
				dv.Sub(&p[g.Index(iu, iv+1)], &p[idx])
			case iv == h-1:
				dv.Sub(&p[idx], &p[g.Index(iu, iv-1)])
			default:
				dv.Sub(&p[g.Index(iu, iv+1)], &p[g.Index(iu, iv-1)])
			}
			var n linear.V3
			n.Cross(&du, &dv)
			if l := n.Len(); l > 1e-12 {
				n.Scale(1/l, &n)
			}
			g.N[idx] = n
		}
	}
}

// backfacing reports whether the grid's average normal faces away
// from the eye at the origin: the surface is front-facing when the
// incident ray (eye to point) opposes the normal.
func backfacing(g *grid.Grid) bool {
	if len(g.N) == 0 {
		return false
	}
	var nAvg, pAvg linear.V3
	p := g.P[0]
	for i := range g.N {
		nAvg.Add(&nAvg, &g.N[i])
		pAvg.Add(&pAvg, &p[i])
	}
	n := float32(len(g.N))
	nAvg.Scale(1/n, &nAvg)
	pAvg.Scale(1/n, &pAvg)
	return nAvg.Dot(&pAvg) > 0
}
