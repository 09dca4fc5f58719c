// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"

	"github.com/gogpu/gg"
)

// FrameParams carries one output's frame parameters into the shared
// scene-graph renderer.
//
// A FrameParams value is built immediately before an output's render step
// and handed to the render control for that step only. Nothing may keep
// it past EndFrame: the next output gets a freshly built value.
type FrameParams struct {
	// Output is the name of the output being drawn.
	Output string

	// Sequence is the render cycle number the frame belongs to.
	Sequence uint64

	// DevicePixelRatio is the shared scale applied to the whole scene.
	DevicePixelRatio float64

	// OutputScale is the scale of this output alone. It is never larger
	// than DevicePixelRatio.
	OutputScale float64

	// DeviceRect is the target area in device pixels.
	DeviceRect image.Rectangle

	// ViewportRect is the viewport area in device pixels.
	ViewportRect image.Rectangle

	// Projection maps scene coordinates to clip space with the display
	// mirror policy applied.
	Projection Mat4

	// NativeProjection maps scene coordinates to clip space in the
	// unflipped form (scene y=0 at clip y=+1), whatever the target
	// mirroring or backend convention.
	NativeProjection Mat4

	// ClipSpaceYDown records the backend clip-space convention the
	// projections were built for.
	ClipSpaceYDown bool
}

// DeviceTransform returns the affine transform from scene coordinates to
// device pixels implied by Projection.
func (p *FrameParams) DeviceTransform() gg.Matrix {
	ndc := NDCToDevice(float64(p.DeviceRect.Dx()), float64(p.DeviceRect.Dy()), p.ClipSpaceYDown)
	return ndc.Multiply(p.Projection.Affine())
}

// NativeDeviceTransform is DeviceTransform for NativeProjection.
func (p *FrameParams) NativeDeviceTransform() gg.Matrix {
	ndc := NDCToDevice(float64(p.DeviceRect.Dx()), float64(p.DeviceRect.Dy()), p.ClipSpaceYDown)
	return ndc.Multiply(p.NativeProjection.Affine())
}
