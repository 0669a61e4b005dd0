// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import "github.com/aqsis/aqsis-sub002/driver"

// Attrs is a primitive's baked attribute set: the flattened
// result of whatever persistent AttributeBegin/End stack the
// façade maintains at the point Surface() is called (spec §3
// "an attribute set"; see the render package's AttrFrame for the
// persistent-tree side of this, per spec §9 "Reference
// counting").
type Attrs struct {
	ShadingRate float32

	ColorDefault, OpacityDefault [3]float32

	// Sides is 1 (single-sided, subject to backface culling) or
	// 2 (two-sided).
	Sides int

	Displacement driver.ShaderModule
	Surface      driver.ShaderModule
	Atmosphere   driver.ShaderModule

	Matte bool

	// CSGNode identifies the CSG leaf this primitive belongs to,
	// or -1 if none (spec §4.4 "CSG").
	CSGNode int
}

// DefaultAttrs returns the attribute set a primitive has if no
// AttributeBegin block has overridden anything.
func DefaultAttrs() Attrs {
	return Attrs{
		ShadingRate:    1,
		OpacityDefault: [3]float32{1, 1, 1},
		Sides:          2,
		CSGNode:        -1,
	}
}
