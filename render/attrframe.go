// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package render

import (
	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/geom"
)

// AttrFrame is one node of a persistent attribute stack (spec §9
// "Reference counting"): rather than the original renderer's
// manual AddRef/Release on a mutable attribute stack, each
// AttributeBegin pushes a new immutable frame pointing at its
// parent, and AttributeEnd simply drops back to the parent
// pointer. Both operations are O(1) and never mutate a frame
// another primitive may still be holding a reference to.
type AttrFrame struct {
	parent *AttrFrame
	attrs  geom.Attrs
}

// rootFrame is shared by every Frame that has not yet called
// AttributeBegin, avoiding an allocation for the common case of a
// primitive emitted at the top of the attribute stack.
var rootFrame = &AttrFrame{attrs: geom.DefaultAttrs()}

// newRootFrame returns the frame a fresh WorldBegin starts from.
func newRootFrame() *AttrFrame { return rootFrame }

// Attrs returns the flattened attribute set at this point of the
// stack -- the value every Primitive posted under this frame
// bakes into its own geom.Attrs, per spec §3.
func (f *AttrFrame) Attrs() geom.Attrs { return f.attrs }

// Begin pushes a copy of f as a new frame, ready for mutation via
// With*, without disturbing any primitive already holding a
// reference to f.
func (f *AttrFrame) Begin() *AttrFrame {
	return &AttrFrame{parent: f, attrs: f.attrs}
}

// End returns the frame that was active before the matching
// Begin. Calling End on the root frame returns the root frame
// itself, mirroring the original renderer's behavior of ignoring
// an unbalanced AttributeEnd rather than panicking.
func (f *AttrFrame) End() *AttrFrame {
	if f.parent == nil {
		return f
	}
	return f.parent
}

// WithShadingRate returns a new frame identical to f except for
// ShadingRate.
func (f *AttrFrame) WithShadingRate(rate float32) *AttrFrame {
	n := f.Begin()
	n.attrs.ShadingRate = rate
	return n
}

// WithColor returns a new frame identical to f except for the
// default (constant-class) color.
func (f *AttrFrame) WithColor(c [3]float32) *AttrFrame {
	n := f.Begin()
	n.attrs.ColorDefault = c
	return n
}

// WithOpacity returns a new frame identical to f except for the
// default (constant-class) opacity.
func (f *AttrFrame) WithOpacity(o [3]float32) *AttrFrame {
	n := f.Begin()
	n.attrs.OpacityDefault = o
	return n
}

// WithSides returns a new frame identical to f except for Sides.
func (f *AttrFrame) WithSides(sides int) *AttrFrame {
	n := f.Begin()
	n.attrs.Sides = sides
	return n
}

// WithMatte returns a new frame identical to f except for Matte.
func (f *AttrFrame) WithMatte(matte bool) *AttrFrame {
	n := f.Begin()
	n.attrs.Matte = matte
	return n
}

// WithCSGNode returns a new frame identical to f except for
// CSGNode.
func (f *AttrFrame) WithCSGNode(id int) *AttrFrame {
	n := f.Begin()
	n.attrs.CSGNode = id
	return n
}

// WithSurface returns a new frame identical to f except for the
// bound surface shader.
func (f *AttrFrame) WithSurface(sh driver.ShaderModule) *AttrFrame {
	n := f.Begin()
	n.attrs.Surface = sh
	return n
}
