// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver declares the external collaborators that the
// rendering core consumes: texture sources, shader modules and
// image sinks. None of these are implemented here — a host
// application supplies concrete types (a TIFF reader, a shading
// VM, a display driver) and the core only ever sees them through
// these interfaces, the same way the teacher's driver package
// only ever sees a concrete GPU backend through the GPU interface.
package driver

import (
	"github.com/aqsis/aqsis-sub002/linear"
)

// ChannelType is the storage type of a single texture channel.
type ChannelType int

// Channel types.
const (
	U8 ChannelType = iota
	I8
	U16
	I16
	U32
	I32
	F16
	F32
)

// TextureFormat identifies the semantic layout of a texture.
type TextureFormat int

// Texture formats.
const (
	Plain TextureFormat = iota
	Cube
	LatLong
	Shadow
)

// TileSize is the default tile granularity of a TextureSource,
// matching the RI-mandated tiled-TIFF layout.
const TileSize = 64

// TextureHeader exposes the per-texture metadata the core needs
// beyond raw pixel data.
type TextureHeader struct {
	Format        TextureFormat
	WorldToCamera linear.M4
	WorldToScreen linear.M4
}

// TextureSource is a read-only, tile-addressable image pyramid.
// Implementations own file I/O and caching of the backing store;
// the core only ever asks for already-decoded tiles.
type TextureSource interface {
	// Width and Height return the base level's dimensions.
	Width() int
	Height() int
	// Channels returns the channel count and storage type.
	Channels() (n int, typ ChannelType)
	// Levels returns the number of mipmap levels the source
	// provides. A source may supply only level 0, in which case
	// the texture package generates the remaining levels.
	Levels() int
	// Tile returns the raw bytes of tile (tx,ty) at the given
	// level, or an error if the tile is out of range or cannot
	// be read.
	Tile(tx, ty, level int) ([]byte, error)
	// Header returns the texture's metadata.
	Header() TextureHeader
}

// ShaderKind identifies the pipeline stage a shader module binds
// to.
type ShaderKind int

// Shader kinds.
const (
	Displacement ShaderKind = iota
	Surface
	Atmosphere
)

// ShadingGrid is the minimal surface a ShaderModule needs to read
// and write named, per-point channels over a 2-D lattice of
// shading points. grid.Grid implements this interface; the driver
// package itself stays unaware of the grid's concrete layout.
type ShadingGrid interface {
	// Dims returns the lattice's (u, v) micropolygon counts; the
	// lattice holds (u+1)*(v+1) points.
	Dims() (u, v int)
	// Channel returns the named channel's per-point float32 data
	// (stride = components), allocating it if not already
	// present. ok is false if name/components does not match an
	// already-registered channel of a different width.
	Channel(name string, components int) (data []float32, ok bool)
}

// ShaderModule is an opaque, already-compiled shader callable.
// The core drives it without any notion of a shading language.
type ShaderModule interface {
	// Kind returns the pipeline stage this module implements.
	Kind() ShaderKind
	// Uses returns the channel names (and component counts) this
	// module reads from or writes to a ShadingGrid.
	Uses() []ChannelUse
	// Bind associates shader parameters (uniform across the
	// grid) prior to Evaluate.
	Bind(params map[string]any) error
	// Evaluate runs the shader over every point of grid,
	// SIMD-over-grid fashion. A per-point failure must not
	// abort the call — it is reported through the supplied
	// ErrorHandler and the point gets its channel's zero value.
	Evaluate(grid ShadingGrid, eh ErrorHandler) error
}

// ChannelUse describes one channel a ShaderModule consumes or
// produces.
type ChannelUse struct {
	Name       string
	Components int
	Output     bool
}

// PixelSample is the fully-resolved, filtered value of one image
// pixel, the unit of data crossing into ImageSink.
type PixelSample struct {
	Color    [3]float32
	Opacity  [3]float32
	Alpha    float32
	Depth    float32
	Coverage float32
}

// Rect is an inclusive-exclusive raster rectangle.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Width returns r.X1 - r.X0.
func (r Rect) Width() int { return r.X1 - r.X0 }

// Height returns r.Y1 - r.Y0.
func (r Rect) Height() int { return r.Y1 - r.Y0 }

// ImageSink receives filtered, quantized buckets of pixels in
// raster scan order of bucket completion (not necessarily image
// order — see spec §5 ordering guarantees).
type ImageSink interface {
	// WriteBucket delivers the pixels of rect, row-major,
	// len(pixels) == rect.Width()*rect.Height().
	WriteBucket(rect Rect, pixels []PixelSample) error
}
