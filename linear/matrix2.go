// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "math"

// M2 is a column-major 2x2 matrix of float32.
//
// It is used to represent the quadratic form of an EWA texture
// filter and the Jacobian of an image warp.
type M2 [2]V2

// I makes m an identity matrix.
func (m *M2) I() { *m = M2{{1}, {0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M2) Mul(l, r *M2) {
	*m = M2{}
	for i := range m {
		for j := range m {
			for k := range m {
				m[i][j] += l[k][j] * r[i][k]
			}
		}
	}
}

// Transpose sets m to contain the transpose of n.
func (m *M2) Transpose(n *M2) {
	m[0][0] = n[0][0]
	m[1][1] = n[1][1]
	m[0][1], m[1][0] = n[1][0], n[0][1]
}

// Add sets m to contain l + r.
func (m *M2) Add(l, r *M2) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = l[i][j] + r[i][j]
		}
	}
}

// Det returns the determinant of m.
func (m *M2) Det() float32 { return m[0][0]*m[1][1] - m[0][1]*m[1][0] }

// Invert sets m to contain the inverse of n. n must be
// non-singular; EWA covariance matrices always are, since they
// carry an additive reconstruction variance on the diagonal.
func (m *M2) Invert(n *M2) {
	id := 1 / n.Det()
	a, b := n[0][0], n[0][1]
	c, d := n[1][0], n[1][1]
	m[0][0] = d * id
	m[0][1] = -b * id
	m[1][0] = -c * id
	m[1][1] = a * id
}

// Eigen computes the eigenvalues and eigenvectors of the
// symmetric matrix m, ordered so that lambda1 >= lambda2.
// m is assumed symmetric (as every EWA quadratic form is);
// off-diagonal entries are averaged if they differ.
//
// The eigenvectors are returned as the columns of r (i.e.,
// m == r · diag(lambda1,lambda2) · rᵀ).
func (m *M2) Eigen() (lambda1, lambda2 float32, r M2) {
	a := m[0][0]
	b := (m[1][0] + m[0][1]) / 2
	d := m[1][1]
	tr := a + d
	diff := a - d
	disc := float32(math.Sqrt(float64(diff*diff + 4*b*b)))
	lambda1 = (tr + disc) / 2
	lambda2 = (tr - disc) / 2
	if b == 0 {
		if a >= d {
			r = M2{{1, 0}, {0, 1}}
		} else {
			r = M2{{0, 1}, {1, 0}}
		}
		return
	}
	// Eigenvector for lambda1: (b, lambda1-a), normalized.
	var v1, v2 V2
	v1 = V2{b, lambda1 - a}
	v1.Norm(&v1)
	v2 = V2{-v1[1], v1[0]}
	r = M2{v1, v2}
	return
}

// Rebuild sets m to r · diag(lambda1,lambda2) · rᵀ, the inverse
// operation of Eigen. It is used to clamp an EWA filter's
// eccentricity by rebuilding the quadratic form from clamped
// eigenvalues.
func (m *M2) Rebuild(lambda1, lambda2 float32, r *M2) {
	var d, rt M2
	d = M2{{lambda1, 0}, {0, lambda2}}
	rt.Transpose(r)
	var tmp M2
	tmp.Mul(r, &d)
	m.Mul(&tmp, &rt)
}
