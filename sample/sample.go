// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package sample implements the image-pixel sample record and the
// bucket's sub-pixel jittered sampling layout (spec.md §3 "Image
// Pixel", "Sample Record", "Bucket"; §4.4 sub-pixel sampling
// layout).
package sample

import "github.com/aqsis/aqsis-sub002/linear"

// Flags mark properties of a Record.
type Flags uint8

const (
	Occludes Flags = 1 << iota
	Matte
	Valid
)

// Record is one depth-ordered hit in a sample's list (spec.md §3
// "Sample Record"). Color/Opacity hold the shaded grid data the hit
// carried; CSGNode is -1 when the primitive has no CSG membership.
type Record struct {
	Color, Opacity [3]float32
	Alpha          float32
	Depth          float32
	Flags          Flags
	CSGNode        int
}

// Sample is one sub-pixel sample point: its jittered raster
// position, an optional depth-of-field lens offset, its assigned
// motion time, and the two parallel hit stores (spec.md §3 "Image
// Pixel").
type Sample struct {
	Pos       linear.V2
	LensOffs  linear.V2
	Time      float32
	SubcellU  int
	SubcellV  int

	OpaqueValid bool
	OpaqueColor [3]float32
	OpaqueDepth float32

	List []Record

	MinZ, MaxZ float32
}

// InsertRecord inserts r into s.List keeping strict ascending
// depth order (spec.md §4.4 "apply" rule: insert... keeping strict
// ascending depth order").
func (s *Sample) InsertRecord(r Record) {
	i := 0
	for i < len(s.List) && s.List[i].Depth < r.Depth {
		i++
	}
	s.List = append(s.List, Record{})
	copy(s.List[i+1:], s.List[i:])
	s.List[i] = r
}

// ApplyOpaque implements the opaque fast path of spec.md §4.4: if
// z is strictly closer than the sample's current opaque depth,
// replace it and report true. MaxZ is the sample's current
// occluding depth (+inf until the first opaque hit), feeding the
// bucket's occlusion hierarchy; it only ever decreases, which is
// what keeps the KD-tree's node bounds monotone (spec.md §4.6).
func (s *Sample) ApplyOpaque(color [3]float32, z float32) bool {
	if s.OpaqueValid && z >= s.OpaqueDepth {
		return false
	}
	s.OpaqueValid = true
	s.OpaqueColor = color
	s.OpaqueDepth = z
	s.MaxZ = z
	if z < s.MinZ {
		s.MinZ = z
	}
	return true
}

// Pixel owns Sx*Sy samples (spec.md §3 "Image Pixel").
type Pixel struct {
	Sx, Sy  int
	Samples []Sample

	Color, Opacity [3]float32
	Alpha          float32
	Depth          float32
	Coverage       float32

	lensBins *BinIndex
}

// rng is a tiny xorshift32 generator, seeded deterministically per
// pixel so a bucket's jitter pattern is reproducible across runs
// without depending on a global PRNG (the renderer never needs
// cryptographic randomness, only stratified jitter).
type rng struct{ state uint32 }

func newRNG(seed uint32) *rng {
	if seed == 0 {
		seed = 1
	}
	return &rng{state: seed}
}

func (r *rng) next() float32 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 17
	r.state ^= r.state << 5
	return float32(r.state) / float32(^uint32(0))
}

// NewPixel allocates a pixel at raster position (px,py) with an
// Sx*Sy jittered stratified sub-pixel grid. Each sample is also
// assigned a stratified-jittered shutter time in [open,close] and
// a DoF lens offset via the square-to-disc warp (spec.md §4.4).
func NewPixel(px, py, sx, sy int, dof bool, open, close float32, seed uint32) *Pixel {
	p := &Pixel{Sx: sx, Sy: sy, Samples: make([]Sample, sx*sy)}
	r := newRNG(seed)
	// One time stratum per sample, shuffled so shutter time does
	// not correlate with sub-pixel position.
	n := sx * sy
	times := make([]float32, n)
	for i := range times {
		times[i] = open + (float32(i)+r.next())/float32(n)*(close-open)
	}
	for i := n - 1; i > 0; i-- {
		j := int(r.next() * float32(i+1))
		if j > i {
			j = i
		}
		times[i], times[j] = times[j], times[i]
	}
	for iv := 0; iv < sy; iv++ {
		for iu := 0; iu < sx; iu++ {
			idx := iv*sx + iu
			jx := (float32(iu) + r.next()) / float32(sx)
			jy := (float32(iv) + r.next()) / float32(sy)
			s := &p.Samples[idx]
			s.Pos = linear.V2{float32(px) + jx, float32(py) + jy}
			s.SubcellU, s.SubcellV = iu, iv
			s.CSGInit()
			s.Time = times[idx]
			if dof {
				u := r.next()*2 - 1
				v := r.next()*2 - 1
				sq := linear.V2{u, v}
				s.LensOffs.ToDisc(&sq)
			}
		}
	}
	return p
}

// CSGInit establishes a fresh sample's depth-range invariants: no
// opaque hit yet, so the sample occludes nothing (MaxZ = +inf). It
// is exported so callers assembling a Sample outside NewPixel
// (e.g. tests) can establish the same invariants.
func (s *Sample) CSGInit() {
	s.MinZ = float32(posInf)
	s.MaxZ = float32(posInf)
}

const posInf = 1e30
