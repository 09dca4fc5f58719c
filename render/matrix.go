// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"github.com/gogpu/gg"
)

// Mat4 is a 4x4 matrix stored in column-major order, the layout expected
// by WGSL uniform buffers:
//
//	| m[0]  m[4]  m[8]   m[12] |
//	| m[1]  m[5]  m[9]   m[13] |
//	| m[2]  m[6]  m[10]  m[14] |
//	| m[3]  m[7]  m[11]  m[15] |
type Mat4 [16]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns an orthographic projection mapping the box
// [left,right]x[bottom,top]x[-1,1] onto clip space.
//
// Passing bottom > top yields the form where y=top maps to +1, which is
// the unflipped projection for a y-up clip space.
func Ortho(left, right, bottom, top float64) Mat4 {
	const near, far = -1.0, 1.0
	m := Identity4()
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[10] = -2 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	m[14] = -(far + near) / (far - near)
	return m
}

// FromAffine embeds a 2D affine transform into a 4x4 matrix.
func FromAffine(a gg.Matrix) Mat4 {
	return Mat4{
		a.A, a.D, 0, 0,
		a.B, a.E, 0, 0,
		0, 0, 1, 0,
		a.C, a.F, 0, 1,
	}
}

// Mul returns m * o. The result applies o first, then m.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// TransformPoint maps a 2D point (z=0, w=1) through the matrix and
// performs the perspective divide.
func (m Mat4) TransformPoint(x, y float64) (float64, float64) {
	tx := m[0]*x + m[4]*y + m[12]
	ty := m[1]*x + m[5]*y + m[13]
	tw := m[3]*x + m[7]*y + m[15]
	if tw != 0 && tw != 1 {
		tx /= tw
		ty /= tw
	}
	return tx, ty
}

// Affine extracts the 2D affine part of the matrix.
// The result is exact for matrices built from Ortho, FromAffine and Mul.
func (m Mat4) Affine() gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[4], C: m[12],
		D: m[1], E: m[5], F: m[13],
	}
}

// Float32 converts the matrix for upload into a uniform buffer.
func (m Mat4) Float32() [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

// NDCToDevice returns the affine transform from clip space to device
// pixels for a target of the given size. Device row 0 is the top row.
// yDown selects the backend clip-space convention.
func NDCToDevice(width, height float64, yDown bool) gg.Matrix {
	if yDown {
		return gg.Matrix{
			A: width / 2, B: 0, C: width / 2,
			D: 0, E: height / 2, F: height / 2,
		}
	}
	return gg.Matrix{
		A: width / 2, B: 0, C: width / 2,
		D: 0, E: -height / 2, F: height / 2,
	}
}
