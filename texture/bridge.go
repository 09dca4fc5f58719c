// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Common errors returned by Bridge operations.
var (
	// ErrNilBuffer is returned when binding a nil or empty buffer.
	ErrNilBuffer = errors.New("texture: nil buffer")

	// ErrKindMismatch is returned when a bridge is rebound to a buffer of a
	// different kind than its first buffer.
	ErrKindMismatch = errors.New("texture: buffer kind mismatch")

	// ErrUnsupportedBuffer is returned when binding a Buffer implementation
	// the bridge cannot sample.
	ErrUnsupportedBuffer = errors.New("texture: unsupported buffer type")

	// ErrNotBound is returned by operations that need a bound buffer.
	ErrNotBound = errors.New("texture: no buffer bound")

	// ErrNotCPU is returned by DrawInto for GPU buffers.
	ErrNotCPU = errors.New("texture: buffer has no CPU pixels")
)

// Bridge presents a client buffer to the scene graph as a texture.
//
// The first Bind decides the bridge kind and caches the matching refresh
// routine; later binds must use the same kind and only re-run it. The bridge
// never destroys the buffer it wraps.
//
// Bridge is NOT safe for concurrent use.
type Bridge struct {
	buf     Buffer
	kind    Kind
	refresh func()

	id       uintptr
	size     image.Point
	hasAlpha bool
	external bool
	version  uint64
}

// New creates an unbound bridge.
func New() *Bridge {
	return &Bridge{}
}

// Bind wraps buf. The first call fixes the bridge kind. Only *GPUBuffer and
// *ImageBuffer are accepted; other Buffer implementations get
// ErrUnsupportedBuffer.
func (b *Bridge) Bind(buf Buffer) error {
	kind, refresh, err := b.classify(buf)
	if err != nil {
		return err
	}
	if b.refresh == nil {
		b.kind = kind
		b.refresh = refresh
	} else if kind != b.kind {
		return fmt.Errorf("%w: bridge is %v, buffer is %v", ErrKindMismatch, b.kind, kind)
	}
	b.buf = buf
	b.refresh()
	return nil
}

// Swap re-derives the texture properties after the client changed the
// contents or geometry of the bound buffer.
func (b *Bridge) Swap() error {
	if b.buf == nil {
		return ErrNotBound
	}
	b.refresh()
	return nil
}

// Release forgets the bound buffer without destroying it. The bridge kind
// stays fixed.
func (b *Bridge) Release() {
	b.buf = nil
	b.id = 0
	b.size = image.Point{}
	b.hasAlpha = false
	b.external = false
}

// classify derives the kind and refresh routine from the concrete buffer
// type. The Kind method of buf is not trusted.
func (b *Bridge) classify(buf Buffer) (Kind, func(), error) {
	switch v := buf.(type) {
	case nil:
		return KindNone, nil, ErrNilBuffer
	case *GPUBuffer:
		if v == nil || v.Texture == nil {
			return KindNone, nil, ErrNilBuffer
		}
		return KindGPU, b.refreshGPU, nil
	case *ImageBuffer:
		if v == nil || v.Image == nil {
			return KindNone, nil, ErrNilBuffer
		}
		return KindImage, b.refreshImage, nil
	default:
		return KindNone, nil, fmt.Errorf("%w: %T", ErrUnsupportedBuffer, buf)
	}
}

func (b *Bridge) refreshGPU() {
	buf := b.buf.(*GPUBuffer)
	b.id = buf.Texture.NativeHandle()
	b.size = image.Pt(buf.Width, buf.Height)
	b.hasAlpha = formatHasAlpha(buf.Format)
	b.external = buf.External
	b.version++
}

func (b *Bridge) refreshImage() {
	buf := b.buf.(*ImageBuffer)
	b.id = buf.ID()
	b.size = buf.Image.Bounds().Size()
	b.hasAlpha = !buf.Opaque
	b.external = false
	b.version++
}

// Kind returns the bridge kind, KindNone before the first Bind.
func (b *Bridge) Kind() Kind { return b.kind }

// Bound reports whether a buffer is bound.
func (b *Bridge) Bound() bool { return b.buf != nil }

// Handle returns the bridge as a texture, or nil when unbound.
func (b *Bridge) Handle() gpucontext.Texture {
	if b.buf == nil {
		return nil
	}
	return b
}

// Width returns the texture width in pixels.
func (b *Bridge) Width() int { return b.size.X }

// Height returns the texture height in pixels.
func (b *Bridge) Height() int { return b.size.Y }

// NativeID returns the native handle of a GPU buffer or the identifier of
// an image buffer.
func (b *Bridge) NativeID() uintptr { return b.id }

// HasAlpha reports whether sampling must blend.
func (b *Bridge) HasAlpha() bool { return b.hasAlpha }

// External reports whether the texture needs an external image binding.
func (b *Bridge) External() bool { return b.external }

// Version counts refreshes. Renderers compare it to skip re-uploads.
func (b *Bridge) Version() uint64 { return b.version }

// Texture returns the hal texture of a GPU buffer, nil otherwise.
func (b *Bridge) Texture() hal.Texture {
	if buf, ok := b.buf.(*GPUBuffer); ok {
		return buf.Texture
	}
	return nil
}

// Image returns the pixels of an image buffer, nil otherwise.
func (b *Bridge) Image() *image.RGBA {
	if buf, ok := b.buf.(*ImageBuffer); ok {
		return buf.Image
	}
	return nil
}

// DrawInto samples the bound image buffer into dst. m maps buffer pixels
// to dst pixels. Integer translations copy directly; everything else is
// filtered bilinearly.
func (b *Bridge) DrawInto(dst *image.RGBA, m gg.Matrix) error {
	if b.buf == nil {
		return ErrNotBound
	}
	src := b.Image()
	if src == nil {
		return ErrNotCPU
	}

	op := xdraw.Over
	if !b.hasAlpha {
		op = xdraw.Src
	}

	if isIntegerTranslation(m) {
		r := src.Bounds().Sub(src.Bounds().Min).Add(image.Pt(int(m.C), int(m.F)))
		xdraw.Draw(dst, r, src, src.Bounds().Min, op)
		return nil
	}

	aff := f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
	xdraw.ApproxBiLinear.Transform(dst, aff, src, src.Bounds(), op, nil)
	return nil
}

func isIntegerTranslation(m gg.Matrix) bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1 &&
		m.C == float64(int(m.C)) && m.F == float64(int(m.F))
}

var _ gpucontext.Texture = (*Bridge)(nil)
