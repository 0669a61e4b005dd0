// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import (
	"testing"

	"github.com/aqsis/aqsis-sub002/linear"
)

func TestNewTriangleCollapse(t *testing.T) {
	tri := NewTriangle(
		linear.V3{0, 0, 1},
		linear.V3{1, 0, 1},
		linear.V3{0, 1, 1},
	)
	pos, _ := tri.Dice(1, 1, nil)
	// Last row (iv=1) must collapse to the shared apex.
	if pos[2] != pos[3] {
		t.Fatalf("Dice: triangle last row did not collapse: %v != %v", pos[2], pos[3])
	}
}

func TestNewQuadDegenerate(t *testing.T) {
	q := NewQuad(
		linear.V3{0, 0, 1},
		linear.V3{1, 0, 1},
		linear.V3{1, 1, 1},
		linear.V3{0, 1, 1},
	)
	if q.Degenerate() {
		t.Fatal("Degenerate: unit quad reported degenerate")
	}
	flat := NewQuad(
		linear.V3{0, 0, 1},
		linear.V3{0, 0, 1},
		linear.V3{0, 0, 1},
		linear.V3{0, 0, 1},
	)
	if !flat.Degenerate() {
		t.Fatal("Degenerate: collapsed quad not reported degenerate")
	}
}

func TestPolygonSplit(t *testing.T) {
	q := NewQuad(
		linear.V3{0, 0, 1},
		linear.V3{2, 0, 1},
		linear.V3{2, 2, 1},
		linear.V3{0, 2, 1},
	)
	a, b, _, _, err := q.Split(0, nil)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if a.Kind() != KPolygon || b.Kind() != KPolygon {
		t.Fatal("Split: children must remain KPolygon")
	}
	ca, cb := a.Corners(), b.Corners()
	if ca[1] != cb[0] || ca[3] != cb[2] {
		t.Fatal("Split: children do not share the split edge")
	}
}
