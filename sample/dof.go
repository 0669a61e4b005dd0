// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package sample

import "github.com/aqsis/aqsis-sub002/linear"

// LensBinCount is the per-axis resolution of the lens-offset bin
// grid a pixel's samples are partitioned into.
const LensBinCount = 4

// BinIndex caches, for a pixel's Sx*Sy samples, which samples fall
// into each bin of a LensBinCount x LensBinCount grid over the
// [-1,1]^2 lens-offset square, so a depth-of-field hider can
// enumerate exactly the samples whose lens offsets fall inside a
// given lens-space box instead of scanning every sample (spec.md
// §4.4 "an inverse map dofBin->sampleIndex is cached").
type BinIndex struct {
	bins   int
	lookup map[[2]int][]int
}

// DofBins returns the pixel's lens-offset bin index, building it
// on first use and retaining it for the pixel's lifetime -- the
// lens offsets are fixed at NewPixel, so the partition never
// changes.
func (p *Pixel) DofBins() *BinIndex {
	if p.lensBins == nil {
		p.lensBins = buildBinIndex(p, LensBinCount)
	}
	return p.lensBins
}

func buildBinIndex(pixel *Pixel, bins int) *BinIndex {
	idx := &BinIndex{bins: bins, lookup: make(map[[2]int][]int)}
	for i := range pixel.Samples {
		s := &pixel.Samples[i]
		bx, by := idx.binOf(s.LensOffs[0], s.LensOffs[1])
		key := [2]int{bx, by}
		idx.lookup[key] = append(idx.lookup[key], i)
	}
	return idx
}

func (b *BinIndex) binOf(u, v float32) (int, int) {
	bx := int((u + 1) * 0.5 * float32(b.bins))
	by := int((v + 1) * 0.5 * float32(b.bins))
	if bx < 0 {
		bx = 0
	}
	if bx >= b.bins {
		bx = b.bins - 1
	}
	if by < 0 {
		by = 0
	}
	if by >= b.bins {
		by = b.bins - 1
	}
	return bx, by
}

// Lookup returns the sample indices whose lens offset falls in bin
// (bx,by).
func (b *BinIndex) Lookup(bx, by int) []int {
	return b.lookup[[2]int{bx, by}]
}

// BinsFor returns the inclusive bin-index box covering the
// lens-offset rectangle [lo,hi], clamped to the grid.
func (b *BinIndex) BinsFor(lo, hi linear.V2) (bx0, by0, bx1, by1 int) {
	bx0, by0 = b.binOf(lo[0], lo[1])
	bx1, by1 = b.binOf(hi[0], hi[1])
	return
}
