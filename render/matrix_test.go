// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"
	"testing"

	"github.com/gogpu/gg"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func TestOrtho(t *testing.T) {
	tests := []struct {
		name         string
		proj         Mat4
		x, y         float64
		wantX, wantY float64
	}{
		{"unflipped origin", Ortho(0, 1920, 1080, 0), 0, 0, -1, 1},
		{"unflipped far corner", Ortho(0, 1920, 1080, 0), 1920, 1080, 1, -1},
		{"unflipped center", Ortho(0, 1920, 1080, 0), 960, 540, 0, 0},
		{"flipped origin", Ortho(0, 1920, 0, 1080), 0, 0, -1, -1},
		{"flipped far corner", Ortho(0, 1920, 0, 1080), 1920, 1080, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.proj.TransformPoint(tt.x, tt.y)
			if !near(x, tt.wantX) || !near(y, tt.wantY) {
				t.Errorf("TransformPoint(%v, %v) = (%v, %v), want (%v, %v)",
					tt.x, tt.y, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMat4Mul(t *testing.T) {
	// Translate first, then project.
	m := Ortho(0, 100, 100, 0).Mul(FromAffine(gg.Translate(50, 50)))
	x, y := m.TransformPoint(0, 0)
	if !near(x, 0) || !near(y, 0) {
		t.Errorf("origin = (%v, %v), want (0, 0)", x, y)
	}

	if !Identity4().Mul(m).ApproxEqual(m, eps) {
		t.Error("I * m != m")
	}
	if !m.Mul(Identity4()).ApproxEqual(m, eps) {
		t.Error("m * I != m")
	}
}

func TestFromAffineRoundTrip(t *testing.T) {
	a := gg.Translate(10, 20).Multiply(gg.Scale(2, 3)).Multiply(gg.Rotate(0.3))
	got := FromAffine(a).Affine()
	for i, pair := range [][2]float64{
		{got.A, a.A}, {got.B, a.B}, {got.C, a.C},
		{got.D, a.D}, {got.E, a.E}, {got.F, a.F},
	} {
		if !near(pair[0], pair[1]) {
			t.Errorf("element %d = %v, want %v", i, pair[0], pair[1])
		}
	}
}

func TestNDCToDevice(t *testing.T) {
	tests := []struct {
		name         string
		yDown        bool
		ndcX, ndcY   float64
		wantX, wantY float64
	}{
		{"y-down top-left", true, -1, -1, 0, 0},
		{"y-down bottom-right", true, 1, 1, 640, 480},
		{"y-up top-left", false, -1, 1, 0, 0},
		{"y-up bottom-left", false, -1, -1, 0, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NDCToDevice(640, 480, tt.yDown).TransformPoint(gg.Pt(tt.ndcX, tt.ndcY))
			if !near(p.X, tt.wantX) || !near(p.Y, tt.wantY) {
				t.Errorf("got (%v, %v), want (%v, %v)", p.X, p.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMat4Float32(t *testing.T) {
	m := Ortho(0, 2, 2, 0)
	f := m.Float32()
	for i := range m {
		if float64(f[i]) != m[i] {
			t.Errorf("f[%d] = %v, want %v", i, f[i], m[i])
		}
	}
}
