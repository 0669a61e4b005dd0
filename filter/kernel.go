// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package filter implements the reconstruction filter kernels and
// the bucket-closing resolve pass of spec.md §4.5: Porter-Duff
// compositing of each sample's hit list, weighted accumulation over
// the filter support, exposure and quantization.
package filter

import (
	"math"

	"github.com/aqsis/aqsis-sub002/driver"
)

// FilterKind re-exports driver.FilterKind so callers working
// entirely within this package need not import driver directly.
type FilterKind = driver.FilterKind

// Filter kernel selectors, mirroring driver.FilterKind's values.
const (
	FBox        = driver.FBox
	FTriangle   = driver.FTriangle
	FCatmullRom = driver.FCatmullRom
	FSinc       = driver.FSinc
	FGaussian   = driver.FGaussian
	FMitchell   = driver.FMitchell
)

// Kernel evaluates a 1-D reconstruction filter at a non-negative
// distance x from the filter centre; callers pass |x|.
// The 2-D weight is the separable product Kernel(|dx|)*Kernel(|dy|).
type Kernel func(x float64) float64

// Box is a unit box filter.
func Box(x float64) float64 {
	if x <= 1 {
		return 1
	}
	return 0
}

// Triangle is a linear tent filter.
func Triangle(x float64) float64 {
	if x >= 1 {
		return 0
	}
	return 1 - x
}

// sinc is the normalized sinc function, sin(pi*x)/(pi*x).
func sinc(x float64) float64 {
	if x < 1e-8 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// Sinc is the windowed sinc filter (Lanczos-3 window).
func Sinc(x float64) float64 {
	const a = 3
	if x >= a {
		return 0
	}
	return sinc(x) * sinc(x/a)
}

// CatmullRom is the Catmull-Rom cubic spline filter, the a=-0.5
// member of the Mitchell-Netravali family.
func CatmullRom(x float64) float64 {
	return mitchellNetravali(x, 0, 0.5)
}

// Mitchell is the Mitchell-Netravali cubic filter with the classic
// B=1/3, C=1/3 parameterization.
func Mitchell(x float64) float64 {
	return mitchellNetravali(x, 1.0/3, 1.0/3)
}

func mitchellNetravali(x, b, c float64) float64 {
	if x >= 2 {
		return 0
	}
	x2 := x * x
	x3 := x2 * x
	if x < 1 {
		return ((12-9*b-6*c)*x3 + (-18+12*b+6*c)*x2 + (6 - 2*b)) / 6
	}
	return ((-b-6*c)*x3 + (6*b+30*c)*x2 + (-12*b-48*c)*x + (8*b + 24*c)) / 6
}

// Gaussian is a windowed Gaussian filter, sigma chosen so the
// window tapers smoothly to zero at the support edge (alpha=2 per
// the RI-compatible default).
func Gaussian(x float64) float64 {
	const alpha = 2
	g := func(v float64) float64 { return math.Exp(-alpha * v * v) }
	edge := g(2)
	v := g(x) - edge
	if v < 0 {
		return 0
	}
	return v
}

// Support returns the argument at which k's kernel falls to zero:
// callers scale a [0,1]-normalized distance from the pixel centre
// by this value so every kernel covers its full natural support
// across the configured filter width.
func Support(k FilterKind) float64 {
	switch k {
	case FBox, FTriangle:
		return 1
	case FSinc:
		return 3
	default: // Catmull-Rom, Gaussian, Mitchell
		return 2
	}
}

// Lookup returns the 1-D kernel function for k.
func Lookup(k FilterKind) Kernel {
	switch k {
	case FBox:
		return Box
	case FTriangle:
		return Triangle
	case FCatmullRom:
		return CatmullRom
	case FSinc:
		return Sinc
	case FGaussian:
		return Gaussian
	case FMitchell:
		return Mitchell
	default:
		return Gaussian
	}
}
