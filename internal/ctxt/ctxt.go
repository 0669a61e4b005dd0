// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package ctxt provides the external collaborators the rendering
// core consumes, registered once by the host application.
// It plays the same role for the render pipeline that the
// teacher's engine/internal/ctxt package plays for the GPU
// backend: a single place that holds process-wide references to
// out-of-process collaborators, set once and read through small
// accessors.
package ctxt

import (
	"sync"

	"github.com/aqsis/aqsis-sub002/driver"
)

var (
	mu      sync.RWMutex
	handler driver.ErrorHandler = driver.Discard
	loader  func(path string) (driver.TextureSource, error)
	sink    driver.ImageSink
)

// SetErrorHandler registers the sink that every render-time fault
// is routed through. Passing nil restores the discarding handler.
func SetErrorHandler(eh driver.ErrorHandler) {
	mu.Lock()
	defer mu.Unlock()
	if eh == nil {
		eh = driver.Discard
	}
	handler = eh
}

// Handle reports a render-time fault to the registered
// ErrorHandler.
func Handle(sev driver.Severity, kind driver.Kind, reason string) {
	mu.RLock()
	h := handler
	mu.RUnlock()
	h(sev, kind, reason)
}

// SetTextureLoader registers the function used to resolve a
// texture path to a driver.TextureSource.
func SetTextureLoader(f func(path string) (driver.TextureSource, error)) {
	mu.Lock()
	defer mu.Unlock()
	loader = f
}

// LoadTexture resolves path to a driver.TextureSource using the
// registered loader. It reports driver.BadTexture and returns a
// nil source (never an error) if no loader is registered or the
// loader itself fails, so callers can substitute a dummy sampler
// unconditionally rather than special-casing the two failure
// paths (spec §7's BadTexture policy).
func LoadTexture(path string) driver.TextureSource {
	mu.RLock()
	f := loader
	mu.RUnlock()
	if f == nil {
		Handle(driver.Warning, driver.BadTexture, "no texture loader registered for "+path)
		return nil
	}
	src, err := f(path)
	if err != nil {
		Handle(driver.Warning, driver.BadTexture, path+": "+err.Error())
		return nil
	}
	return src
}

// SetImageSink registers the destination for filtered buckets.
func SetImageSink(s driver.ImageSink) {
	mu.Lock()
	defer mu.Unlock()
	sink = s
}

// ImageSink returns the registered driver.ImageSink, or nil if
// none has been set.
func ImageSink() driver.ImageSink {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}

// Reset clears every registered collaborator. It exists for test
// isolation between frames.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	handler = driver.Discard
	loader = nil
	sink = nil
}
