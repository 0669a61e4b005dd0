// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package driver

// FilterKind selects a reconstruction filter kernel.
type FilterKind int

// Supported filter kernels.
const (
	FBox FilterKind = iota
	FTriangle
	FCatmullRom
	FSinc
	FGaussian
	FMitchell
)

// QuantizeMode selects which channel family a Quantize config
// applies to.
type QuantizeMode int

// Quantization modes.
const (
	QRGBA QuantizeMode = iota
	QDepth
	nQuantizeMode
)

// Quantize describes the quantization of one channel family.
// A One of 0 means "leave the channel as a float".
type Quantize struct {
	One, Min, Max, Dither float32
}

// DepthOfField describes depth-of-field lens parameters.
type DepthOfField struct {
	Enabled   bool
	FStop     float32
	FocalLen  float32
	FocalDist float32
}

// OptionSet holds every frame-global option named in spec §6. It
// is immutable once WorldBegin has been called; the render
// package is the only writer.
type OptionSet struct {
	Xres, Yres int

	// PixelSamples is (Sx, Sy) jittered samples per pixel.
	PixelSamples [2]int

	FilterFunc  FilterKind
	FilterWidth [2]float32

	ShutterOpen, ShutterClose float32

	DoF DepthOfField

	Near, Far float32

	// Exposure gain and gamma: C <- (C*Gain)^(1/Gamma).
	ExposureGain, ExposureGamma float32

	Quantize [nQuantizeMode]Quantize

	BucketSize [2]int

	ShadingRate float32

	EyeSplitLimit int

	// TextureFormatDefault is used when a TextureHeader does not
	// specify its format explicitly.
	TextureFormatDefault TextureFormat

	// ScreenWindow, when HasScreenWindow is set, is an explicit
	// screen window (xmin,xmax,ymin,ymax) that always wins over a
	// value derived from FrameAspectRatio (spec §9 open question).
	ScreenWindow     [4]float32
	HasScreenWindow  bool
	FrameAspectRatio float32

	// Parallel enables the optional multi-bucket worker-pool
	// fan-out permitted (not required) by spec §5.
	Parallel bool
}

// DefaultOptions returns the option set used when the façade is
// not given an explicit one, mirroring the teacher's
// engine.DefaultConfig shape.
func DefaultOptions() OptionSet {
	return OptionSet{
		Xres:          640,
		Yres:          480,
		PixelSamples:  [2]int{4, 4},
		FilterFunc:    FGaussian,
		FilterWidth:   [2]float32{2, 2},
		ShutterOpen:   0,
		ShutterClose:  0,
		Near:          0.01,
		Far:           1e6,
		ExposureGain:  1,
		ExposureGamma: 1,
		Quantize: [nQuantizeMode]Quantize{
			QRGBA:  {One: 255, Min: 0, Max: 255, Dither: 0.5},
			QDepth: {One: 0},
		},
		BucketSize:           [2]int{16, 16},
		ShadingRate:          1,
		EyeSplitLimit:        10,
		TextureFormatDefault: Plain,
		FrameAspectRatio:     4.0 / 3.0,
	}
}

// EffectiveScreenWindow resolves the screen window per the
// decided open question: an explicit ScreenWindow always wins;
// otherwise it is derived from FrameAspectRatio.
func (o *OptionSet) EffectiveScreenWindow() (xmin, xmax, ymin, ymax float32) {
	if o.HasScreenWindow {
		return o.ScreenWindow[0], o.ScreenWindow[1], o.ScreenWindow[2], o.ScreenWindow[3]
	}
	ar := o.FrameAspectRatio
	if ar == 0 {
		ar = float32(o.Xres) / float32(o.Yres)
	}
	if ar >= 1 {
		return -ar, ar, -1, 1
	}
	return -1, 1, -1 / ar, 1 / ar
}
