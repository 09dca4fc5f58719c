// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"errors"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/multiout/render"
)

// Errors returned by swapchains.
var (
	// ErrZeroArea is returned when a configuration has no pixels.
	ErrZeroArea = errors.New("swapchain: width and height must be non-zero")

	// ErrNoBackbuffer is returned by Acquire when every buffer is in use.
	ErrNoBackbuffer = errors.New("swapchain: no free back buffer")

	// ErrNotConfigured is returned by Acquire before the first Configure.
	ErrNotConfigured = errors.New("swapchain: not configured")

	// ErrUnsupported is returned when the configuration cannot be applied.
	ErrUnsupported = errors.New("swapchain: unsupported configuration")

	// ErrForeignTarget is returned when a target is handed back to a
	// swapchain that did not acquire it, or after a reconfiguration
	// orphaned it.
	ErrForeignTarget = errors.New("swapchain: target not owned by swapchain")

	// ErrOutdated is returned when the presentation surface changed
	// underneath the swapchain. The next Acquire reconfigures it.
	ErrOutdated = errors.New("swapchain: surface outdated")
)

// Config describes the buffers of a swapchain.
type Config struct {
	// Width and Height are the buffer size in device pixels.
	Width  int
	Height int

	// Format is the pixel format of every buffer.
	Format gputypes.TextureFormat

	// PresentMode controls presentation timing. Zero selects FIFO.
	PresentMode gputypes.PresentMode

	// AlphaMode controls how the display composites buffer alpha.
	AlphaMode gputypes.CompositeAlphaMode

	// Mirrored marks buffers that are scanned out bottom row first.
	Mirrored bool
}

// Size returns the buffer size.
func (c Config) Size() image.Point {
	return image.Pt(c.Width, c.Height)
}

// Matches reports whether buffers of this configuration can hold a frame
// of the given size and format.
func (c Config) Matches(width, height int, format gputypes.TextureFormat) bool {
	return c.Width == width && c.Height == height && c.Format == format
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return ErrZeroArea
	}
	return nil
}

func (c Config) presentMode() gputypes.PresentMode {
	if c.PresentMode == gputypes.PresentModeUndefined {
		return gputypes.PresentModeFifo
	}
	return c.PresentMode
}

// Swapchain is the set of presentable buffers of one output.
//
// A frame follows Acquire, then exactly one of Present or Discard.
// Swapchains are not safe for concurrent use.
type Swapchain interface {
	// Configure (re)creates the buffers. Targets acquired under the previous
	// configuration become foreign.
	Configure(cfg Config) error

	// Test reports whether cfg could be applied, without applying it.
	Test(cfg Config) error

	// Config returns the active configuration, or the zero Config before
	// the first Configure.
	Config() Config

	// Acquire returns a buffer to draw the next frame into.
	Acquire() (render.RenderTarget, error)

	// Present queues target for display. damage lists the regions that
	// changed since the previous presentation; nil means everything.
	Present(target render.RenderTarget, damage []image.Rectangle) error

	// Discard returns target unpresented.
	Discard(target render.RenderTarget)

	// Destroy releases every buffer.
	Destroy()
}
