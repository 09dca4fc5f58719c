// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texture

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Kind identifies where a buffer's pixels live.
type Kind uint8

const (
	// KindNone is the kind of an unbound Bridge.
	KindNone Kind = iota

	// KindGPU is a buffer backed by a GPU texture.
	KindGPU

	// KindImage is a buffer backed by CPU memory.
	KindImage
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGPU:
		return "GPU"
	case KindImage:
		return "Image"
	default:
		return "None"
	}
}

// Buffer is a client buffer the compositor samples from. The compositor
// never owns a Buffer: the client that attached it destroys it.
type Buffer interface {
	Kind() Kind
}

// GPUBuffer is a client buffer backed by a hal texture.
type GPUBuffer struct {
	Texture hal.Texture
	Width   int
	Height  int
	Format  gputypes.TextureFormat

	// External marks textures that must be sampled through an external
	// image binding instead of a regular 2D texture.
	External bool
}

// Kind returns KindGPU.
func (*GPUBuffer) Kind() Kind { return KindGPU }

// ImageBuffer is a client buffer backed by CPU memory.
type ImageBuffer struct {
	Image *image.RGBA

	// Opaque marks buffers whose alpha channel must be ignored.
	Opaque bool

	id uintptr
}

var nextImageID atomic.Uintptr

// NewImageBuffer wraps img as a client buffer.
func NewImageBuffer(img *image.RGBA, opaque bool) *ImageBuffer {
	return &ImageBuffer{Image: img, Opaque: opaque, id: nextImageID.Add(1)}
}

// Kind returns KindImage.
func (*ImageBuffer) Kind() Kind { return KindImage }

// ID returns a process-unique identifier for the buffer.
func (b *ImageBuffer) ID() uintptr { return b.id }

// formatHasAlpha reports whether a texture format carries an alpha channel.
func formatHasAlpha(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGB10A2Unorm,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatRGBA32Float:
		return true
	default:
		return false
	}
}
