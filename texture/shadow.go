// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/linear"
)

// ShadowSampler performs percentage-closer filtering against a
// depth map, reusing the EWA kernel as the filter weight (spec.md
// §4.7 "Shadow / occlusion sampling reuses the EWA kernel...";
// SPEC_FULL.md §3 "Shadow sampling", grounded on the original
// renderer's shadowsampler.cpp/.h dedicated accumulator separate
// from plain EWA texture lookups).
type ShadowSampler struct {
	mip  *Mipmap
	bias float32
}

// NewShadowSampler builds a ShadowSampler over a single-channel
// depth-map src, comparing against surface depth with the given
// bias.
func NewShadowSampler(src driver.TextureSource, cacheTiles int, bias float32) (*ShadowSampler, error) {
	mip, err := NewMipmap(src, cacheTiles)
	if err != nil {
		return nil, err
	}
	return &ShadowSampler{mip: mip, bias: bias}, nil
}

// PCF implements spec.md §4.7's percentage-closer accumulator:
// PCF = Σ w·[depth_map(x) < surfaceDepth(x) - bias] / Σw. quad's
// Jacobian and Center describe the sample parallelogram in the
// shadow map's (u,v) space, exactly as for a plain EWA lookup;
// surfaceDepth approximates the surface as a plane over that
// parallelogram, evaluated per (u,v) sample point.
func (s *ShadowSampler) PCF(quad WarpQuad, surfaceDepth func(uv [2]float32) float32, opts Options) float32 {
	maxAspect := orDefault(opts.MaxAspect, defaultMaxAspect)
	logW := orDefault(opts.LogEdgeWeight, defaultLogEdgeWeight)

	cov := s.mip.buildQ(quad.Jacobian, opts)
	cov, _, _ = clampAspect(cov, maxAspect)
	var q linear.M2
	q.Invert(&cov)

	level := 0 // shadow PCF always filters at the base resolution.
	w, h := s.mip.LevelSize(level)
	cx := quad.Center[0] * float32(w)
	cy := quad.Center[1] * float32(h)

	var shadowed, total float32
	eachTexel(q, cx, cy, logW, func(x, y int, weight float32) {
		tex := s.mip.Texel(level, x, y, opts.WrapU, opts.WrapV)
		if tex == nil {
			return
		}
		u := (float32(x) + 0.5) / float32(w)
		v := (float32(y) + 0.5) / float32(h)
		sd := surfaceDepth([2]float32{u, v})
		if tex[0] < sd-s.bias {
			shadowed += weight
		}
		total += weight
	})
	if total == 0 {
		return 0
	}
	return shadowed / total
}
