// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package grid

import (
	"testing"

	"github.com/aqsis/aqsis-sub002/linear"
)

func TestNewGrid(t *testing.T) {
	g := NewGrid(2, 3, []float32{0})
	if n := g.NPoints(); n != 3*4 {
		t.Fatalf("NPoints: have %d, want 12", n)
	}
	if n := g.MPs(); n != 6 {
		t.Fatalf("MPs: have %d, want 6", n)
	}
}

func TestChannelAllocLazy(t *testing.T) {
	g := NewGrid(1, 1, []float32{0})
	data, ok := g.Channel("Cs", 3)
	if !ok || len(data) != g.NPoints()*3 {
		t.Fatalf("Channel: alloc failed")
	}
	data2, ok := g.Channel("Cs", 3)
	if !ok || &data[0] != &data2[0] {
		t.Fatal("Channel: second call did not return the same storage")
	}
	if _, ok := g.Channel("Cs", 1); ok {
		t.Fatal("Channel: width mismatch should fail")
	}
}

func TestPAtTimeInterp(t *testing.T) {
	g := NewGrid(1, 1, []float32{0, 1})
	g.P[0][0] = linear.V3{0, 0, 0}
	g.P[1][0] = linear.V3{2, 0, 0}
	p := g.PAtTime(0, 0.5)
	if p != (linear.V3{1, 0, 0}) {
		t.Fatalf("PAtTime(0.5): have %v, want [1 0 0]", p)
	}
}

func TestCornerIdx(t *testing.T) {
	g := NewGrid(2, 2, []float32{0})
	idx := g.CornerIdx(0, 0)
	want := [4]int{0, 1, 3, 4}
	if idx != want {
		t.Fatalf("CornerIdx(0,0): have %v, want %v", idx, want)
	}
}
