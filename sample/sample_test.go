// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package sample

import (
	"testing"

	"github.com/aqsis/aqsis-sub002/linear"
)

func TestInsertRecordOrder(t *testing.T) {
	var s Sample
	s.InsertRecord(Record{Depth: 5})
	s.InsertRecord(Record{Depth: 1})
	s.InsertRecord(Record{Depth: 3})
	want := []float32{1, 3, 5}
	for i, w := range want {
		if s.List[i].Depth != w {
			t.Fatalf("InsertRecord: List[%d].Depth = %v, want %v", i, s.List[i].Depth, w)
		}
	}
}

func TestApplyOpaqueNearest(t *testing.T) {
	var s Sample
	s.CSGInit()
	s.ApplyOpaque([3]float32{1, 0, 0}, 5)
	s.ApplyOpaque([3]float32{0, 1, 0}, 2)
	s.ApplyOpaque([3]float32{0, 0, 1}, 8)
	if s.OpaqueDepth != 2 {
		t.Fatalf("ApplyOpaque: OpaqueDepth have %v, want 2", s.OpaqueDepth)
	}
	if s.OpaqueColor != ([3]float32{0, 1, 0}) {
		t.Fatalf("ApplyOpaque: OpaqueColor have %v, want the z=2 hit", s.OpaqueColor)
	}
	if s.MaxZ != 2 || s.MinZ != 2 {
		t.Fatalf("ApplyOpaque: MinZ/MaxZ have %v/%v, want 2/2 (current occluding depth)", s.MinZ, s.MaxZ)
	}
}

func TestDofBinsRoundTrip(t *testing.T) {
	p := NewPixel(0, 0, 4, 4, true, 0, 0, 7)
	idx := p.DofBins()
	if idx != p.DofBins() {
		t.Fatal("DofBins: second call must return the cached index")
	}
	total := 0
	for bx := 0; bx < LensBinCount; bx++ {
		for by := 0; by < LensBinCount; by++ {
			total += len(idx.Lookup(bx, by))
		}
	}
	if total != len(p.Samples) {
		t.Fatalf("DofBins: indexed %d samples, want %d", total, len(p.Samples))
	}
	bx0, by0, bx1, by1 := idx.BinsFor(linear.V2{-1, -1}, linear.V2{1, 1})
	if bx0 != 0 || by0 != 0 || bx1 != LensBinCount-1 || by1 != LensBinCount-1 {
		t.Fatalf("BinsFor: full lens square have (%d,%d)-(%d,%d), want the whole grid", bx0, by0, bx1, by1)
	}
}

func TestNewPixelLayout(t *testing.T) {
	p := NewPixel(4, 7, 2, 2, true, 0.25, 0.75, 42)
	if len(p.Samples) != 4 {
		t.Fatalf("NewPixel: have %d samples, want 4", len(p.Samples))
	}
	for _, s := range p.Samples {
		if s.Pos[0] < 4 || s.Pos[0] > 5 || s.Pos[1] < 7 || s.Pos[1] > 8 {
			t.Fatalf("NewPixel: sample position %v outside the pixel cell", s.Pos)
		}
		if l := s.LensOffs.Len(); l > 1.0001 {
			t.Fatalf("NewPixel: lens offset %v outside the unit disc", s.LensOffs)
		}
		if s.Time < 0.25 || s.Time > 0.75 {
			t.Fatalf("NewPixel: sample time %v outside the shutter interval", s.Time)
		}
	}
}
