// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package render

import (
	"context"
	"iter"

	"github.com/aqsis/aqsis-sub002/driver"
	"github.com/aqsis/aqsis-sub002/geom"
	"github.com/aqsis/aqsis-sub002/hider"
	"github.com/aqsis/aqsis-sub002/internal/ctxt"
	"github.com/aqsis/aqsis-sub002/linear"
	"github.com/aqsis/aqsis-sub002/schedule"
)

// Frame drives a single image through the full pipeline:
// BeginFrame configures it, WorldBegin/AttributeBegin/
// AttributeEnd/Surface build up the scene against a persistent
// attribute stack, and Buckets drives every bucket's
// dice/shade/hide/resolve loop, delivering filtered pixels to the
// registered driver.ImageSink (spec.md §8 "Frame lifecycle").
type Frame struct {
	opts driver.OptionSet
	eh   driver.ErrorHandler
	sch  *schedule.Scheduler
	attr *AttrFrame
}

// BeginFrame validates c, registers eh and project with the
// pipeline's collaborators, and returns a Frame ready for
// WorldBegin.
func BeginFrame(c Config, project func(linear.V3) linear.V2, eh driver.ErrorHandler) (*Frame, error) {
	opts, err := Configure(c)
	if err != nil {
		return nil, err
	}
	if eh == nil {
		eh = driver.Discard
	}
	ctxt.SetErrorHandler(eh)
	f := &Frame{opts: opts, eh: eh, attr: newRootFrame()}
	f.sch = schedule.New(&f.opts, schedule.Project(project), eh)
	return f, nil
}

// WorldBegin resets the attribute stack to its default frame,
// ready for a new set of AttributeBegin/Surface/AttributeEnd
// calls.
func (f *Frame) WorldBegin() { f.attr = newRootFrame() }

// AttributeBegin pushes a new attribute frame, inheriting every
// value currently in scope.
func (f *Frame) AttributeBegin() { f.attr = f.attr.Begin() }

// AttributeEnd pops back to the frame active before the matching
// AttributeBegin.
func (f *Frame) AttributeEnd() { f.attr = f.attr.End() }

// AttrStack returns the attribute frame currently in scope, so a
// caller can derive a modified frame via its With* methods and
// push it with SetFrame.
func (f *Frame) AttrStack() *AttrFrame { return f.attr }

// SetFrame replaces the attribute frame currently in scope,
// typically with one derived from AttrStack via a With* call.
func (f *Frame) SetFrame(a *AttrFrame) { f.attr = a }

// SetCSGTree registers the CSG boolean tree evaluated against any
// primitive posted with a non-negative Attrs.CSGNode.
func (f *Frame) SetCSGTree(tree *hider.Tree) { f.sch.CSG = tree }

// Surface bakes the attribute frame currently in scope into prim
// and posts it to the scheduler (spec §3 "Scene Primitive" meets
// §4.1 Post).
func (f *Frame) Surface(prim *geom.Primitive) {
	prim.Attrs = f.attr.Attrs()
	f.sch.Post(prim)
}

// WorldEnd is a no-op placeholder matching the façade's RenderMan-
// style call sequence; every primitive is already bound to its
// buckets by the time it returns.
func (f *Frame) WorldEnd() {}

// NBuckets returns how many buckets the frame was tiled into.
func (f *Frame) NBuckets() int { return f.sch.NBuckets() }

// Buckets drives every bucket to completion in raster scan order,
// delivering each one's filtered pixels to the registered
// driver.ImageSink (if any) before yielding it, mirroring the
// teacher's Lights-style index/value iterator.
func (f *Frame) Buckets() iter.Seq2[int, []driver.PixelSample] {
	return func(yield func(int, []driver.PixelSample) bool) {
		for i := 0; i < f.sch.NBuckets(); i++ {
			pixels := f.sch.Drive(i)
			if sink := ctxt.ImageSink(); sink != nil {
				rect := f.sch.BucketAt(i).Rect
				if err := sink.WriteBucket(rect, pixels); err != nil {
					f.eh(driver.Error, driver.OptionsConflict, "WriteBucket: "+err.Error())
				}
			}
			if !yield(i, pixels) {
				return
			}
		}
	}
}

// Render drives every bucket, fanning out across goroutines when
// the frame's Config.Parallel was set, and delivers each bucket's
// pixels to the registered driver.ImageSink in raster scan order.
// Prefer Buckets when the caller wants to observe results as each
// bucket finishes; prefer Render when only the final delivered
// image matters and Parallel throughput is wanted.
func (f *Frame) Render(ctx context.Context) error {
	pixels, err := f.sch.DriveAll(ctx)
	if err != nil {
		return err
	}
	sink := ctxt.ImageSink()
	if sink == nil {
		return nil
	}
	for i, p := range pixels {
		rect := f.sch.BucketAt(i).Rect
		if err := sink.WriteBucket(rect, p); err != nil {
			f.eh(driver.Error, driver.OptionsConflict, "WriteBucket: "+err.Error())
		}
	}
	return nil
}

// EndFrame releases the collaborators BeginFrame registered.
func (f *Frame) EndFrame() { ctxt.Reset() }
