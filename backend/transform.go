// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"math"

	"github.com/gogpu/gg"
)

// Transform is the orientation of an output's content relative to its
// scanout buffer, in the order of the Wayland wl_output.transform enum.
type Transform uint8

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

var transformNames = [...]string{
	"normal", "90", "180", "270",
	"flipped", "flipped-90", "flipped-180", "flipped-270",
}

// String returns the transform name.
func (t Transform) String() string {
	if int(t) < len(transformNames) {
		return transformNames[t]
	}
	return "unknown"
}

// ParseTransform parses a name returned by String.
func ParseTransform(s string) (Transform, bool) {
	for i, name := range transformNames {
		if name == s {
			return Transform(i), true
		}
	}
	return TransformNormal, false
}

// Rotated reports whether the transform swaps width and height.
func (t Transform) Rotated() bool {
	return t&1 == 1
}

// Flipped reports whether the transform mirrors horizontally.
func (t Transform) Flipped() bool {
	return t >= TransformFlipped
}

// Matrix maps buffer pixels of a width x height buffer to the transformed
// orientation.
func (t Transform) Matrix(width, height float64) gg.Matrix {
	var rot gg.Matrix
	switch t &^ TransformFlipped {
	case Transform90:
		rot = gg.Matrix{A: 0, B: -1, C: height, D: 1, E: 0, F: 0}
	case Transform180:
		rot = gg.Matrix{A: -1, B: 0, C: width, D: 0, E: -1, F: height}
	case Transform270:
		rot = gg.Matrix{A: 0, B: 1, C: 0, D: -1, E: 0, F: width}
	default:
		rot = gg.Identity()
	}
	if t.Flipped() {
		flip := gg.Matrix{A: -1, B: 0, C: width, D: 0, E: 1, F: 0}
		return rot.Multiply(flip)
	}
	return rot
}

// TransformedSize returns the size of a buffer after applying t.
func TransformedSize(width, height int, t Transform) (int, int) {
	if t.Rotated() {
		return height, width
	}
	return width, height
}

// EffectiveSize returns the logical size of an output: its transformed
// size divided by scale, rounded to the nearest integer.
func EffectiveSize(width, height int, t Transform, scale float64) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	w, h := TransformedSize(width, height, t)
	return int(math.Round(float64(w) / scale)), int(math.Round(float64(h) / scale))
}
