// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"math"

	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/linear"
)

// EnvironmentSampler samples a lat-long or cube environment map by
// direction, sharing the EWA filter kernel with plain texture
// lookups and differing only in the direction->(u,v) transform
// (spec.md §4.7; SPEC_FULL.md §3 "Environment sampler dispatch",
// grounded on the original renderer's
// ienvironmentsampler.cpp/cubeenvironmentsampler.h/
// latlongenvironmentsampler.h factory split).
type EnvironmentSampler struct {
	mip    *Mipmap
	format driver.TextureFormat
}

// NewEnvironmentSampler builds an EnvironmentSampler over src,
// dispatching to the lat-long or cube direction transform
// according to src.Header().Format.
func NewEnvironmentSampler(src driver.TextureSource, cacheTiles int) (*EnvironmentSampler, error) {
	mip, err := NewMipmap(src, cacheTiles)
	if err != nil {
		return nil, err
	}
	return &EnvironmentSampler{mip: mip, format: src.Header().Format}, nil
}

// SampleDirection filters the environment map along dir, with
// jacobian describing how a screen-space pixel footprint maps to
// the chosen (u,v) parameterization's derivatives.
func (e *EnvironmentSampler) SampleDirection(dir linear.V3, jacobian linear.M2, opts Options) []float32 {
	u, v := e.directionToUV(dir)
	return e.mip.SampleEWA(WarpQuad{Center: linear.V2{u, v}, Jacobian: jacobian}, opts)
}

func (e *EnvironmentSampler) directionToUV(d linear.V3) (u, v float32) {
	switch e.format {
	case driver.Cube:
		return cubeUV(d)
	default: // LatLong and anything else defaults to the lat-long transform.
		return latLongUV(d)
	}
}

// latLongUV implements spec.md §4.7's lat-long transform:
// u = (atan2(dy,dx)+π)/(2π), v = acos(dz)/π.
func latLongUV(d linear.V3) (u, v float32) {
	u = (float32(math.Atan2(float64(d[1]), float64(d[0]))) + math.Pi) / (2 * math.Pi)
	z := d[2]
	if z < -1 {
		z = -1
	} else if z > 1 {
		z = 1
	}
	v = float32(math.Acos(float64(z))) / math.Pi
	return
}

// cubeFace indexes a cube map face in the 3x2 grid layout spec.md
// §4.7 calls for ("faces laid out as a 3x2 grid per the RI spec").
type cubeFace int

const (
	facePX cubeFace = iota
	facePY
	facePZ
	faceNX
	faceNY
	faceNZ
)

// cubeUV implements spec.md §4.7's cube-face transform: pick the
// face by argmax(|d|); local u,v = d_other/(d_major·tan(fov/2))
// with an assumed 90° field of view (tan(45°) = 1); faces laid out
// as a 3x2 grid, column = face%3, row = face/3.
func cubeUV(d linear.V3) (u, v float32) {
	ax, ay, az := abs32(d[0]), abs32(d[1]), abs32(d[2])
	var face cubeFace
	var lu, lv, major float32
	switch {
	case ax >= ay && ax >= az:
		major = d[0]
		if d[0] >= 0 {
			face = facePX
			lu, lv = -d[2], -d[1]
		} else {
			face = faceNX
			lu, lv = d[2], -d[1]
		}
	case ay >= ax && ay >= az:
		major = d[1]
		if d[1] >= 0 {
			face = facePY
			lu, lv = d[0], d[2]
		} else {
			face = faceNY
			lu, lv = d[0], -d[2]
		}
	default:
		major = d[2]
		if d[2] >= 0 {
			face = facePZ
			lu, lv = d[0], -d[1]
		} else {
			face = faceNZ
			lu, lv = -d[0], -d[1]
		}
	}
	m := abs32(major)
	if m < 1e-12 {
		m = 1e-12
	}
	su := (lu/m + 1) / 2
	sv := (lv/m + 1) / 2
	col := float32(int(face) % 3)
	row := float32(int(face) / 3)
	return (col + su) / 3, (row + sv) / 2
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
