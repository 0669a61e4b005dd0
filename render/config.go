// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package render is the top-level façade: beginFrame/WorldBegin/
// Surface/WorldEnd/endFrame, wiring Config into the collaborators
// of internal/ctxt and driving schedule.Scheduler over a frame's
// buckets (spec.md §8 scenarios).
package render

import (
	"errors"

	"github.com/BurntSushi/toml"

	"github.com/aqsis/aqsis-sub002/driver"
)

const prefix = "render: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// Config is the flat, user-facing tunable set, mirroring the
// teacher's engine.Config/engine.DefaultConfig shape (a plain
// struct of scalars, TOML-loadable for test fixtures) rather than
// exposing driver.OptionSet's array fields directly.
type Config struct {
	Xres int `toml:"xres"`
	Yres int `toml:"yres"`

	PixelSamplesX int `toml:"pixel_samples_x"`
	PixelSamplesY int `toml:"pixel_samples_y"`

	// Filter selects one of "box", "triangle", "catmull-rom",
	// "sinc", "gaussian", "mitchell".
	Filter       string  `toml:"filter"`
	FilterWidthX float32 `toml:"filter_width_x"`
	FilterWidthY float32 `toml:"filter_width_y"`

	ShutterOpen  float32 `toml:"shutter_open"`
	ShutterClose float32 `toml:"shutter_close"`

	DoFEnabled bool    `toml:"dof_enabled"`
	FStop      float32 `toml:"fstop"`
	FocalLen   float32 `toml:"focal_len"`
	FocalDist  float32 `toml:"focal_dist"`

	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`

	ExposureGain  float32 `toml:"exposure_gain"`
	ExposureGamma float32 `toml:"exposure_gamma"`

	BucketSizeX int `toml:"bucket_size_x"`
	BucketSizeY int `toml:"bucket_size_y"`

	ShadingRate   float32 `toml:"shading_rate"`
	EyeSplitLimit int     `toml:"eye_split_limit"`

	Parallel bool `toml:"parallel"`
}

// DefaultConfig returns the same tunables as driver.DefaultOptions,
// expressed in Config's flattened shape.
func DefaultConfig() Config {
	d := driver.DefaultOptions()
	return Config{
		Xres: d.Xres, Yres: d.Yres,
		PixelSamplesX: d.PixelSamples[0], PixelSamplesY: d.PixelSamples[1],
		Filter:        filterName(d.FilterFunc),
		FilterWidthX:  d.FilterWidth[0],
		FilterWidthY:  d.FilterWidth[1],
		ShutterOpen:   d.ShutterOpen,
		ShutterClose:  d.ShutterClose,
		Near:          d.Near,
		Far:           d.Far,
		ExposureGain:  d.ExposureGain,
		ExposureGamma: d.ExposureGamma,
		BucketSizeX:   d.BucketSize[0],
		BucketSizeY:   d.BucketSize[1],
		ShadingRate:   d.ShadingRate,
		EyeSplitLimit: d.EyeSplitLimit,
	}
}

func filterName(k driver.FilterKind) string {
	switch k {
	case driver.FBox:
		return "box"
	case driver.FTriangle:
		return "triangle"
	case driver.FCatmullRom:
		return "catmull-rom"
	case driver.FSinc:
		return "sinc"
	case driver.FMitchell:
		return "mitchell"
	default:
		return "gaussian"
	}
}

func filterKind(name string) driver.FilterKind {
	switch name {
	case "box":
		return driver.FBox
	case "triangle":
		return driver.FTriangle
	case "catmull-rom":
		return driver.FCatmullRom
	case "sinc":
		return driver.FSinc
	case "mitchell":
		return driver.FMitchell
	default:
		return driver.FGaussian
	}
}

// LoadConfigTOML decodes a Config from a TOML file, starting from
// DefaultConfig so any field the file omits keeps its default.
func LoadConfigTOML(path string) (Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, newErr("LoadConfigTOML: " + err.Error())
	}
	return c, nil
}

// Configure validates c and expands it into the driver.OptionSet
// the rest of the pipeline consumes.
func Configure(c Config) (driver.OptionSet, error) {
	if c.Xres <= 0 || c.Yres <= 0 {
		return driver.OptionSet{}, newErr("Configure: Xres/Yres must be positive")
	}
	if c.PixelSamplesX <= 0 || c.PixelSamplesY <= 0 {
		return driver.OptionSet{}, newErr("Configure: PixelSamples must be positive")
	}
	if c.BucketSizeX <= 0 || c.BucketSizeY <= 0 {
		return driver.OptionSet{}, newErr("Configure: BucketSize must be positive")
	}

	opts := driver.DefaultOptions()
	opts.Xres, opts.Yres = c.Xres, c.Yres
	opts.PixelSamples = [2]int{c.PixelSamplesX, c.PixelSamplesY}
	opts.FilterFunc = filterKind(c.Filter)
	if c.FilterWidthX > 0 {
		opts.FilterWidth = [2]float32{c.FilterWidthX, c.FilterWidthY}
	}
	opts.ShutterOpen, opts.ShutterClose = c.ShutterOpen, c.ShutterClose
	opts.DoF = driver.DepthOfField{
		Enabled: c.DoFEnabled, FStop: c.FStop, FocalLen: c.FocalLen, FocalDist: c.FocalDist,
	}
	if c.Near > 0 {
		opts.Near = c.Near
	}
	if c.Far > 0 {
		opts.Far = c.Far
	}
	if c.ExposureGain > 0 {
		opts.ExposureGain = c.ExposureGain
	}
	if c.ExposureGamma > 0 {
		opts.ExposureGamma = c.ExposureGamma
	}
	opts.BucketSize = [2]int{c.BucketSizeX, c.BucketSizeY}
	if c.ShadingRate > 0 {
		opts.ShadingRate = c.ShadingRate
	}
	if c.EyeSplitLimit > 0 {
		opts.EyeSplitLimit = c.EyeSplitLimit
	}
	opts.Parallel = c.Parallel
	return opts, nil
}
