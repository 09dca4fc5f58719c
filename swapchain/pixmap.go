// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/multiout/render"
)

// DefaultBufferCount is the number of buffers in a PixmapSwapchain created
// with a non-positive count: one front, one being drawn, one spare.
const DefaultBufferCount = 3

type slotState uint8

const (
	slotFree slotState = iota
	slotAcquired
	slotFront
)

type pixmapSlot struct {
	target *render.PixmapTarget
	state  slotState
}

// PixmapSwapchain is a ring of CPU buffers.
//
// It serves the software path and headless outputs: Present makes the
// buffer the front buffer, readable through Front, and frees the previous
// front buffer.
type PixmapSwapchain struct {
	count      int
	cfg        Config
	configured bool
	slots      []pixmapSlot
	lastDamage []image.Rectangle
	presented  uint64
}

// NewPixmapSwapchain creates an unconfigured ring of count buffers.
func NewPixmapSwapchain(count int) *PixmapSwapchain {
	if count <= 0 {
		count = DefaultBufferCount
	}
	return &PixmapSwapchain{count: count}
}

// Test reports whether cfg describes CPU buffers this swapchain can hold.
func (s *PixmapSwapchain) Test(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.Format != gputypes.TextureFormatRGBA8Unorm {
		return fmt.Errorf("%w: format %v", ErrUnsupported, cfg.Format)
	}
	return nil
}

// Configure allocates count buffers of the configured size.
func (s *PixmapSwapchain) Configure(cfg Config) error {
	if err := s.Test(cfg); err != nil {
		return err
	}
	s.slots = make([]pixmapSlot, s.count)
	for i := range s.slots {
		t := render.NewPixmapTarget(cfg.Width, cfg.Height)
		t.SetMirrored(cfg.Mirrored)
		s.slots[i] = pixmapSlot{target: t}
	}
	s.cfg = cfg
	s.configured = true
	slogger().Debug("swapchain: pixmap configured",
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height),
		slog.Int("buffers", s.count))
	return nil
}

// Config returns the active configuration.
func (s *PixmapSwapchain) Config() Config {
	return s.cfg
}

// Acquire returns a free buffer.
func (s *PixmapSwapchain) Acquire() (render.RenderTarget, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	for i := range s.slots {
		if s.slots[i].state == slotFree {
			s.slots[i].state = slotAcquired
			return s.slots[i].target, nil
		}
	}
	return nil, ErrNoBackbuffer
}

// Present makes target the front buffer.
func (s *PixmapSwapchain) Present(target render.RenderTarget, damage []image.Rectangle) error {
	i := s.find(target)
	if i < 0 || s.slots[i].state != slotAcquired {
		return ErrForeignTarget
	}
	for j := range s.slots {
		if s.slots[j].state == slotFront {
			s.slots[j].state = slotFree
		}
	}
	s.slots[i].state = slotFront
	s.slots[i].target.MarkPresented()
	s.lastDamage = append(s.lastDamage[:0], damage...)
	s.presented++
	return nil
}

// Discard frees target without presenting it. Foreign targets are ignored.
func (s *PixmapSwapchain) Discard(target render.RenderTarget) {
	if i := s.find(target); i >= 0 && s.slots[i].state == slotAcquired {
		s.slots[i].state = slotFree
	}
}

// Destroy drops every buffer. The swapchain must be configured again
// before use.
func (s *PixmapSwapchain) Destroy() {
	s.slots = nil
	s.configured = false
	s.cfg = Config{}
}

// Front returns the buffer on display, or nil before the first Present.
func (s *PixmapSwapchain) Front() *render.PixmapTarget {
	for i := range s.slots {
		if s.slots[i].state == slotFront {
			return s.slots[i].target
		}
	}
	return nil
}

// LastDamage returns the damage passed to the most recent Present.
func (s *PixmapSwapchain) LastDamage() []image.Rectangle {
	return s.lastDamage
}

// Presented returns the number of successful presentations.
func (s *PixmapSwapchain) Presented() uint64 {
	return s.presented
}

// InUse returns the number of buffers acquired and not yet handed back.
func (s *PixmapSwapchain) InUse() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].state == slotAcquired {
			n++
		}
	}
	return n
}

func (s *PixmapSwapchain) find(target render.RenderTarget) int {
	pt, ok := target.(*render.PixmapTarget)
	if !ok {
		return -1
	}
	for i := range s.slots {
		if s.slots[i].target == pt {
			return i
		}
	}
	return -1
}

var _ Swapchain = (*PixmapSwapchain)(nil)
