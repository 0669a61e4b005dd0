// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package texture implements the Mipmap Level-Set and the EWA
// Texture Sampler (spec.md §3 "Mipmap Level-Set", §4.7), plus the
// environment, shadow and dummy sampler variants supplemented from
// original_source/ (SPEC_FULL.md §3 "Supplemented features").
package texture

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/draw"

	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/internal/ctxt"
)

const prefix = "texture: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// TileSize is the texel granularity a TextureSource is tiled at
// (spec.md §6).
const TileSize = driver.TileSize

// WrapMode selects how out-of-range texel coordinates resolve,
// independently per axis (spec.md §4.7).
type WrapMode int

// Wrap modes.
const (
	Black WrapMode = iota
	Clamp
	Periodic
)

type tileKey struct {
	Level, TX, TY int
}

// Mipmap wraps a driver.TextureSource with a bounded LRU cache of
// decoded tiles and generates whatever levels the source does not
// itself supply (spec.md §3 "Mipmap Level-Set" invariant: level
// l+1 approximates the box-filtered average of the 2x2 block in
// level l). Tile materialization is guarded by a per-tile lock so
// concurrent bucket workers sharing the cache (spec.md §5 "Shared
// resources: Mipmap cache") never race to decode the same tile.
type Mipmap struct {
	src       driver.TextureSource
	nchan     int
	chType    driver.ChannelType
	srcLevels int

	levelW, levelH []int

	cache *lru.Cache
	locks sync.Map // tileKey -> *sync.Mutex
}

// NewMipmap builds a Mipmap over src, caching up to cacheTiles
// decoded tiles across all levels.
func NewMipmap(src driver.TextureSource, cacheTiles int) (*Mipmap, error) {
	if src == nil {
		return nil, newErr("NewMipmap: nil TextureSource")
	}
	if cacheTiles <= 0 {
		cacheTiles = 256
	}
	n, typ := src.Channels()
	if n <= 0 {
		return nil, newErr("NewMipmap: source reports zero channels")
	}
	cache, err := lru.New(cacheTiles)
	if err != nil {
		return nil, err
	}
	m := &Mipmap{src: src, nchan: n, chType: typ, srcLevels: src.Levels(), cache: cache}
	w, h := src.Width(), src.Height()
	if w <= 0 || h <= 0 {
		return nil, newErr("NewMipmap: non-positive base dimensions")
	}
	for {
		m.levelW = append(m.levelW, w)
		m.levelH = append(m.levelH, h)
		if w <= 1 && h <= 1 {
			break
		}
		if w > 1 {
			w >>= 1
		}
		if h > 1 {
			h >>= 1
		}
	}
	return m, nil
}

// Channels returns the channel count of every texel this Mipmap
// hands back.
func (m *Mipmap) Channels() int { return m.nchan }

// Levels returns the number of levels in the level-set.
func (m *Mipmap) Levels() int { return len(m.levelW) }

// LevelSize returns level ℓ's (width, height), clamped to the
// valid level range.
func (m *Mipmap) LevelSize(level int) (w, h int) {
	if level < 0 {
		level = 0
	}
	if level >= len(m.levelW) {
		level = len(m.levelW) - 1
	}
	return m.levelW[level], m.levelH[level]
}

// Texel returns the nchan-wide texel value at (x,y) of level,
// resolving out-of-range coordinates per wrapU/wrapV. A Black
// wrap outside the image returns nil.
func (m *Mipmap) Texel(level, x, y int, wrapU, wrapV WrapMode) []float32 {
	if level < 0 {
		level = 0
	}
	if level >= len(m.levelW) {
		level = len(m.levelW) - 1
	}
	w, h := m.levelW[level], m.levelH[level]
	x = wrap(x, w, wrapU)
	y = wrap(y, h, wrapV)
	if x < 0 || y < 0 {
		return nil
	}
	tx, ty := x/TileSize, y/TileSize
	tile := m.tile(level, tx, ty)
	lx, ly := x%TileSize, y%TileSize
	i := (ly*TileSize + lx) * m.nchan
	return tile[i : i+m.nchan]
}

func wrap(x, n int, mode WrapMode) int {
	if n <= 0 {
		return -1
	}
	switch mode {
	case Clamp:
		if x < 0 {
			return 0
		}
		if x >= n {
			return n - 1
		}
		return x
	case Periodic:
		x %= n
		if x < 0 {
			x += n
		}
		return x
	default: // Black
		if x < 0 || x >= n {
			return -1
		}
		return x
	}
}

// tile returns the decoded (level,tx,ty) tile, materializing and
// caching it on first access.
func (m *Mipmap) tile(level, tx, ty int) []float32 {
	key := tileKey{level, tx, ty}
	if v, ok := m.cache.Get(key); ok {
		return v.([]float32)
	}
	lockAny, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()
	if v, ok := m.cache.Get(key); ok {
		return v.([]float32)
	}
	var data []float32
	if level < m.srcLevels {
		raw, err := m.src.Tile(tx, ty, level)
		if err != nil {
			ctxt.Handle(driver.Warning, driver.BadTexture, prefix+err.Error())
			data = make([]float32, TileSize*TileSize*m.nchan)
		} else {
			data = decode(raw, m.chType, m.nchan)
		}
	} else {
		data = m.generateTile(level, tx, ty)
	}
	m.cache.Add(key, data)
	return data
}

// generateTile box-filters the corresponding 2x-size region of
// level-1 down into this tile using golang.org/x/image/draw's
// bilinear scaler, one channel plane at a time -- the reduction is
// exactly the 2x downsample the Mipmap invariant calls for, and
// bilinear degenerates to an exact box average at this scale
// factor for an axis-aligned half-size reduction.
func (m *Mipmap) generateTile(level, tx, ty int) []float32 {
	data := make([]float32, TileSize*TileSize*m.nchan)
	srcW, srcH := m.LevelSize(level - 1)
	const span = 2 * TileSize
	for c := 0; c < m.nchan; c++ {
		src := image.NewGray16(image.Rect(0, 0, span, span))
		for ly := 0; ly < span; ly++ {
			sy := ty*span + ly
			if sy >= srcH {
				sy = srcH - 1
			}
			for lx := 0; lx < span; lx++ {
				sx := tx*span + lx
				if sx >= srcW {
					sx = srcW - 1
				}
				v := m.Texel(level-1, sx, sy, Clamp, Clamp)[c]
				src.SetGray16(lx, ly, color.Gray16{Y: toGray16(v)})
			}
		}
		dst := image.NewGray16(image.Rect(0, 0, TileSize, TileSize))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		for ly := 0; ly < TileSize; ly++ {
			for lx := 0; lx < TileSize; lx++ {
				g := dst.Gray16At(lx, ly).Y
				data[(ly*TileSize+lx)*m.nchan+c] = float32(g) / 65535
			}
		}
	}
	return data
}

func toGray16(v float32) uint16 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint16(v * 65535)
}

// decode converts a raw tile (TileSize*TileSize texels of nchan
// channels, typ-typed) into a float32 buffer normalized to [0,1]
// for unsigned integer types, divided by the positive maximum
// (about [-1,1]) for signed ones, and passed through unchanged for
// float types.
func decode(raw []byte, typ driver.ChannelType, nchan int) []float32 {
	n := TileSize * TileSize * nchan
	out := make([]float32, n)
	switch typ {
	case driver.U8:
		for i := 0; i < n && i < len(raw); i++ {
			out[i] = float32(raw[i]) / 255
		}
	case driver.I8:
		for i := 0; i < n && i < len(raw); i++ {
			out[i] = float32(int8(raw[i])) / 127
		}
	case driver.U16:
		for i := 0; i < n && 2*i+1 < len(raw); i++ {
			out[i] = float32(binary.LittleEndian.Uint16(raw[2*i:])) / 65535
		}
	case driver.I16:
		for i := 0; i < n && 2*i+1 < len(raw); i++ {
			out[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32767
		}
	case driver.U32:
		for i := 0; i < n && 4*i+3 < len(raw); i++ {
			out[i] = float32(binary.LittleEndian.Uint32(raw[4*i:])) / 4294967295
		}
	case driver.I32:
		for i := 0; i < n && 4*i+3 < len(raw); i++ {
			out[i] = float32(int32(binary.LittleEndian.Uint32(raw[4*i:]))) / 2147483647
		}
	case driver.F16:
		for i := 0; i < n && 2*i+1 < len(raw); i++ {
			out[i] = half2float(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	case driver.F32:
		for i := 0; i < n && 4*i+3 < len(raw); i++ {
			bits := binary.LittleEndian.Uint32(raw[4*i:])
			out[i] = math.Float32frombits(bits)
		}
	}
	return out
}

// half2float converts an IEEE 754 binary16 value to float32.
func half2float(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7c00) >> 10
	frac := uint32(h & 0x03ff)
	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize.
		for frac&0x0400 == 0 {
			frac <<= 1
			exp--
		}
		exp++
		frac &= 0x03ff
	case 0x1f:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7f800000 | (frac << 13))
	}
	exp = exp - 15 + 127
	bits := sign | (exp << 23) | (frac << 13)
	return math.Float32frombits(bits)
}
