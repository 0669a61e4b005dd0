// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/internal/ctxt"
	"github.com/aqsis/aqsis-sub002/linear"
)

// DummyColor is the bright-magenta marker the original renderer's
// dummy samplers return so a missing texture is visually obvious
// rather than silently black (spec.md §7 BadTexture policy:
// "substitute dummy sampler (visible marker)"; SPEC_FULL.md §3
// "Dummy samplers").
var DummyColor = [3]float32{1, 0, 1}

// DummySampler substitutes for a plain texture sampler when its
// backing TextureSource could not be loaded.
type DummySampler struct {
	path    string
	warned  bool
	channel int
}

// NewDummySampler reports driver.BadTexture once via ctxt.Handle
// and returns a sampler that always answers the marker color.
func NewDummySampler(path string, channels int) *DummySampler {
	if channels <= 0 {
		channels = 3
	}
	d := &DummySampler{path: path, channel: channels}
	d.warn()
	return d
}

func (d *DummySampler) warn() {
	if d.warned {
		return
	}
	d.warned = true
	ctxt.Handle(driver.Warning, driver.BadTexture, "substituting dummy sampler for "+d.path)
}

// SampleEWA implements the same call shape as Mipmap.SampleEWA.
func (d *DummySampler) SampleEWA(WarpQuad, Options) []float32 {
	out := make([]float32, d.channel)
	for i := range out {
		if i < 3 {
			out[i] = DummyColor[i]
		}
	}
	return out
}

// DummyEnvironmentSampler substitutes for an EnvironmentSampler.
type DummyEnvironmentSampler struct{ warned bool }

// NewDummyEnvironmentSampler reports driver.BadTexture once.
func NewDummyEnvironmentSampler(path string) *DummyEnvironmentSampler {
	d := &DummyEnvironmentSampler{}
	ctxt.Handle(driver.Warning, driver.BadTexture, "substituting dummy environment sampler for "+path)
	d.warned = true
	return d
}

// SampleDirection always answers the marker color.
func (d *DummyEnvironmentSampler) SampleDirection(linear.V3, linear.M2, Options) []float32 {
	return DummyColor[:]
}

// DummyShadowSampler substitutes for a ShadowSampler: per the
// original's dummyocclusionsampler.h, an unresolvable shadow map
// casts no shadow at all (PCF reports zero occlusion).
type DummyShadowSampler struct{ warned bool }

// NewDummyShadowSampler reports driver.BadTexture once.
func NewDummyShadowSampler(path string) *DummyShadowSampler {
	d := &DummyShadowSampler{}
	ctxt.Handle(driver.Warning, driver.BadTexture, "substituting dummy shadow sampler for "+path)
	d.warned = true
	return d
}

// PCF always reports zero occlusion (no shadow).
func (d *DummyShadowSampler) PCF(WarpQuad, func([2]float32) float32, Options) float32 { return 0 }
