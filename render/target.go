// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RenderTarget is the concrete buffer the scene graph draws into for one
// frame of one output.
//
// Targets come from a swapchain and are handed back to it on commit or
// rollback. Implementations:
//   - PixmapTarget: CPU-backed *image.RGBA for the software path
//   - SurfaceTarget: a texture acquired from a hal surface
//
// Targets may support CPU access (Pixels), GPU access (Texture), or both.
type RenderTarget interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() gputypes.TextureFormat

	// Texture returns the GPU texture backing this target.
	// Returns nil for CPU-only targets.
	Texture() hal.Texture

	// Pixels returns direct access to pixel data.
	// Returns nil for GPU-only targets.
	Pixels() []byte

	// Stride returns the number of bytes per row.
	Stride() int

	// Mirrored reports whether the target wants its content flipped
	// vertically relative to the backend clip-space convention.
	Mirrored() bool
}

// PixmapTarget is a CPU-backed render target using *image.RGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(800, 600)
//	control.BeginFrame(target, params)
//	img := target.Image()
type PixmapTarget struct {
	img      *image.RGBA
	mirrored bool
	serial   uint64
}

// NewPixmapTarget creates a new CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewPixmapTargetFromImage wraps an existing *image.RGBA as a render target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.img.Bounds().Dy()
}

// Format returns the pixel format (RGBA8).
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Texture returns nil as this is a CPU-only target.
func (t *PixmapTarget) Texture() hal.Texture {
	return nil
}

// Pixels returns direct access to the pixel data.
func (t *PixmapTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int {
	return t.img.Stride
}

// Mirrored reports whether the target is presented upside down.
func (t *PixmapTarget) Mirrored() bool {
	return t.mirrored
}

// SetMirrored sets the mirroring request for the target.
func (t *PixmapTarget) SetMirrored(mirrored bool) {
	t.mirrored = mirrored
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.RGBA {
	return t.img
}

// Serial returns the number of times the target has been presented.
func (t *PixmapTarget) Serial() uint64 {
	return t.serial
}

// MarkPresented bumps the presentation serial. Swapchains call this when
// the target becomes the front buffer.
func (t *PixmapTarget) MarkPresented() {
	t.serial++
}

// Clear fills the entire target with the given color.
func (t *PixmapTarget) Clear(c color.Color) {
	r, g, b, a := c.RGBA()
	//nolint:gosec // G115: shift leaves 8 significant bits
	rgba := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}

	pix := t.img.Pix
	if len(pix) == 0 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = rgba.R, rgba.G, rgba.B, rgba.A
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

// GetPixel returns the color at the given coordinates.
func (t *PixmapTarget) GetPixel(x, y int) color.RGBA {
	return t.img.RGBAAt(x, y)
}

// Resize replaces the backing image. The contents are not preserved.
func (t *PixmapTarget) Resize(width, height int) {
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ RenderTarget = (*PixmapTarget)(nil)

// SurfaceTarget wraps a texture acquired from a hal surface.
//
// The texture is owned by the surface; the target only borrows it for the
// duration of one frame and must be presented or discarded through the
// swapchain it came from.
type SurfaceTarget struct {
	width    int
	height   int
	format   gputypes.TextureFormat
	texture  hal.SurfaceTexture
	mirrored bool
}

// NewSurfaceTarget creates a render target for an acquired surface texture.
func NewSurfaceTarget(width, height int, format gputypes.TextureFormat, texture hal.SurfaceTexture) *SurfaceTarget {
	return &SurfaceTarget{
		width:   width,
		height:  height,
		format:  format,
		texture: texture,
	}
}

// Width returns the surface width in pixels.
func (t *SurfaceTarget) Width() int {
	return t.width
}

// Height returns the surface height in pixels.
func (t *SurfaceTarget) Height() int {
	return t.height
}

// Format returns the surface pixel format.
func (t *SurfaceTarget) Format() gputypes.TextureFormat {
	return t.format
}

// Texture returns the acquired surface texture.
func (t *SurfaceTarget) Texture() hal.Texture {
	if t.texture == nil {
		return nil
	}
	return t.texture
}

// SurfaceTexture returns the acquired texture with its surface type.
func (t *SurfaceTarget) SurfaceTexture() hal.SurfaceTexture {
	return t.texture
}

// Pixels returns nil as surfaces do not support CPU access.
func (t *SurfaceTarget) Pixels() []byte {
	return nil
}

// Stride returns 0 as surfaces do not support CPU access.
func (t *SurfaceTarget) Stride() int {
	return 0
}

// Mirrored reports whether the surface is presented upside down.
func (t *SurfaceTarget) Mirrored() bool {
	return t.mirrored
}

// SetMirrored sets the mirroring request for the surface.
func (t *SurfaceTarget) SetMirrored(mirrored bool) {
	t.mirrored = mirrored
}

var _ RenderTarget = (*SurfaceTarget)(nil)
