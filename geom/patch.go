// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import "github.com/aqsis/aqsis-sub002/linear"

// Patch is a bilinear patch: four camera-space corners ordered
// (min-u,min-v), (max-u,min-v), (min-u,max-v), (max-u,max-v).
// It stands in for the higher-order patch/NURBS/quadric GPrim
// kinds that spec §1 places out of scope beyond this contract.
type Patch struct {
	P [4]linear.V3
}

// Kind implements Variant.
func (p *Patch) Kind() Kind { return KPatch }

// Bound implements Variant.
func (p *Patch) Bound() Bound {
	b := EmptyBound()
	for _, c := range p.P {
		b.AddPoint(c)
	}
	return b
}

// Corners implements Variant.
func (p *Patch) Corners() [4]linear.V3 { return p.P }

// Degenerate implements Variant: true if the quad's area is
// effectively zero.
func (p *Patch) Degenerate() bool {
	var e1, e2, n linear.V3
	e1.Sub(&p.P[1], &p.P[0])
	e2.Sub(&p.P[2], &p.P[0])
	n.Cross(&e1, &e2)
	const eps = 1e-12
	return n.Dot(&n) < eps
}

// Dice implements Variant via bilinear evaluation of the four
// corners.
func (p *Patch) Dice(u, v int, vars []PrimVar) (pos, norm []linear.V3) {
	w, h := u+1, v+1
	pos = make([]linear.V3, w*h)
	norm = make([]linear.V3, w*h)
	var e1, e2, n linear.V3
	e1.Sub(&p.P[1], &p.P[0])
	e2.Sub(&p.P[2], &p.P[0])
	n.Cross(&e1, &e2)
	n.Norm(&n)
	for iv := 0; iv < h; iv++ {
		t := ratio(iv, v)
		for iu := 0; iu < w; iu++ {
			s := ratio(iu, u)
			idx := iv*w + iu
			pos[idx] = bilinearV3(p.P[0], p.P[1], p.P[2], p.P[3], s, t)
			norm[idx] = n
		}
	}
	return
}

// Split implements Variant: halve the patch along axis, also
// splitting Varying/Vertex/FaceVarying primvars that key off the
// four corners. Both children evaluate the shared-edge corners
// with the same bilinearV3 formula, so they agree exactly.
func (p *Patch) Split(axis int, vars []PrimVar) (a, b Variant, varsA, varsB []PrimVar, err error) {
	var pa, pb Patch
	if axis == 0 {
		mid0 := bilinearV3(p.P[0], p.P[1], p.P[2], p.P[3], 0.5, 0)
		mid1 := bilinearV3(p.P[0], p.P[1], p.P[2], p.P[3], 0.5, 1)
		pa.P = [4]linear.V3{p.P[0], mid0, p.P[2], mid1}
		pb.P = [4]linear.V3{mid0, p.P[1], mid1, p.P[3]}
	} else {
		mid0 := bilinearV3(p.P[0], p.P[1], p.P[2], p.P[3], 0, 0.5)
		mid1 := bilinearV3(p.P[0], p.P[1], p.P[2], p.P[3], 1, 0.5)
		pa.P = [4]linear.V3{p.P[0], p.P[1], mid0, mid1}
		pb.P = [4]linear.V3{mid0, mid1, p.P[2], p.P[3]}
	}
	varsA = make([]PrimVar, len(vars))
	varsB = make([]PrimVar, len(vars))
	for i, pv := range vars {
		varsA[i], varsB[i] = splitCornerVar(pv, axis)
	}
	return &pa, &pb, varsA, varsB, nil
}

func ratio(i, n int) float32 {
	if n == 0 {
		return 0
	}
	return float32(i) / float32(n)
}

func bilinearV3(a, b, c, d linear.V3, s, t float32) linear.V3 {
	out := make([]float32, 3)
	bilinearInto(a[:], b[:], c[:], d[:], s, t, out)
	return linear.V3{out[0], out[1], out[2]}
}

// bilinearInto is the float-slice bilinear evaluator shared by
// Patch corner math and primvar splitting; it is the same formula
// as grid.Bilinear, which dicePrimVars uses when dicing.
func bilinearInto(a, b, c, d []float32, s, t float32, out []float32) {
	if s <= 0 {
		s = 0
	} else if s >= 1 {
		s = 1
	}
	if t <= 0 {
		t = 0
	} else if t >= 1 {
		t = 1
	}
	for i := range out {
		ab := (b[i]-a[i])*s + a[i]
		cd := (d[i]-c[i])*s + c[i]
		out[i] = (cd-ab)*t + ab
	}
}

// splitCornerVar splits a four-corner-keyed primvar (Varying,
// Vertex or FaceVarying) along axis into its two child corner
// sets; Constant/Uniform variables are copied unchanged.
func splitCornerVar(pv PrimVar, axis int) (a, b PrimVar) {
	if pv.Class == Constant || pv.Class == Uniform || pv.Count() < 4 {
		return pv.Clone(), pv.Clone()
	}
	comp := pv.Components
	A, B, C, D := pv.At(0), pv.At(1), pv.At(2), pv.At(3)
	mid0, mid1 := make([]float32, comp), make([]float32, comp)
	a = PrimVar{Name: pv.Name, Class: pv.Class, Components: comp, Data: make([]float32, 4*comp)}
	b = PrimVar{Name: pv.Name, Class: pv.Class, Components: comp, Data: make([]float32, 4*comp)}
	if axis == 0 {
		bilinearInto(A, B, C, D, 0.5, 0, mid0)
		bilinearInto(A, B, C, D, 0.5, 1, mid1)
		copy(a.Data[0*comp:], A)
		copy(a.Data[1*comp:], mid0)
		copy(a.Data[2*comp:], C)
		copy(a.Data[3*comp:], mid1)
		copy(b.Data[0*comp:], mid0)
		copy(b.Data[1*comp:], B)
		copy(b.Data[2*comp:], mid1)
		copy(b.Data[3*comp:], D)
	} else {
		bilinearInto(A, B, C, D, 0, 0.5, mid0)
		bilinearInto(A, B, C, D, 1, 0.5, mid1)
		copy(a.Data[0*comp:], A)
		copy(a.Data[1*comp:], B)
		copy(a.Data[2*comp:], mid0)
		copy(a.Data[3*comp:], mid1)
		copy(b.Data[0*comp:], mid0)
		copy(b.Data[1*comp:], mid1)
		copy(b.Data[2*comp:], C)
		copy(b.Data[3*comp:], D)
	}
	return
}
