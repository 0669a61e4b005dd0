// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/internal/ctxt"
	"github.com/aqsis/aqsis-sub002/linear"
)

// Sampler is a filtered plain-texture lookup. Mipmap and
// DummySampler both implement it.
type Sampler interface {
	SampleEWA(quad WarpQuad, opts Options) []float32
}

// DirectionSampler is a filtered environment lookup by direction.
// EnvironmentSampler and DummyEnvironmentSampler both implement
// it.
type DirectionSampler interface {
	SampleDirection(dir linear.V3, jacobian linear.M2, opts Options) []float32
}

// OcclusionSampler is a percentage-closer shadow-map lookup.
// ShadowSampler and DummyShadowSampler both implement it.
type OcclusionSampler interface {
	PCF(quad WarpQuad, surfaceDepth func(uv [2]float32) float32, opts Options) float32
}

// Open resolves path through the registered texture loader and
// wraps the source in a tile-cached Mipmap. Any failure reports
// BadTexture through the error sink and substitutes the magenta
// dummy sampler, so a lookup against a broken path renders a
// visible marker instead of aborting the frame (spec.md §7).
func Open(path string, cacheTiles int) Sampler {
	src := ctxt.LoadTexture(path)
	if src == nil {
		return NewDummySampler(path, 3)
	}
	mip, err := NewMipmap(src, cacheTiles)
	if err != nil {
		ctxt.Handle(driver.Warning, driver.BadTexture, err.Error())
		n, _ := src.Channels()
		return NewDummySampler(path, n)
	}
	return mip
}

// OpenEnvironment is Open's counterpart for lat-long and cube
// environment maps, dispatching on the source's header format.
func OpenEnvironment(path string, cacheTiles int) DirectionSampler {
	src := ctxt.LoadTexture(path)
	if src == nil {
		return NewDummyEnvironmentSampler(path)
	}
	env, err := NewEnvironmentSampler(src, cacheTiles)
	if err != nil {
		ctxt.Handle(driver.Warning, driver.BadTexture, err.Error())
		return NewDummyEnvironmentSampler(path)
	}
	return env
}

// OpenShadow is Open's counterpart for depth maps. The dummy
// substitute reports zero occlusion, so a missing shadow map
// lights the scene rather than blacking it out.
func OpenShadow(path string, cacheTiles int, bias float32) OcclusionSampler {
	src := ctxt.LoadTexture(path)
	if src == nil {
		return NewDummyShadowSampler(path)
	}
	sh, err := NewShadowSampler(src, cacheTiles, bias)
	if err != nil {
		ctxt.Handle(driver.Warning, driver.BadTexture, err.Error())
		return NewDummyShadowSampler(path)
	}
	return sh
}
