// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/multiout/render"
)

// surfaceUsage is the usage every surface texture is configured with.
const surfaceUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst

// HALSwapchain presents through a hal surface.
//
// The surface owns the textures; at most one is acquired at a time. When
// the surface reports itself outdated or lost, the swapchain reconfigures
// it with the last configuration on the next Acquire.
type HALSwapchain struct {
	adapter hal.Adapter
	device  hal.Device
	queue   hal.Queue
	surface hal.Surface

	cfg        Config
	configured bool
	outdated   bool
	current    *render.SurfaceTarget
}

// NewHALSwapchain creates an unconfigured swapchain over surface, using
// the device behind handle.
func NewHALSwapchain(handle *render.HALDeviceHandle, surface hal.Surface) *HALSwapchain {
	return &HALSwapchain{
		adapter: handle.HALAdapter(),
		device:  handle.HALDevice(),
		queue:   handle.HALQueue(),
		surface: surface,
	}
}

// Test checks cfg against the adapter's surface capabilities.
func (s *HALSwapchain) Test(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	caps := s.adapter.SurfaceCapabilities(s.surface)
	if caps == nil {
		return fmt.Errorf("%w: surface not supported by adapter", ErrUnsupported)
	}
	if !slices.Contains(caps.Formats, cfg.Format) {
		return fmt.Errorf("%w: format %v", ErrUnsupported, cfg.Format)
	}
	if !slices.Contains(caps.PresentModes, cfg.presentMode()) {
		return fmt.Errorf("%w: present mode %v", ErrUnsupported, cfg.presentMode())
	}
	if cfg.AlphaMode != gputypes.CompositeAlphaModeAuto && !slices.Contains(caps.AlphaModes, cfg.AlphaMode) {
		return fmt.Errorf("%w: alpha mode %v", ErrUnsupported, cfg.AlphaMode)
	}
	return nil
}

// Configure applies cfg to the surface.
func (s *HALSwapchain) Configure(cfg Config) error {
	if err := s.Test(cfg); err != nil {
		return err
	}
	if s.current != nil {
		s.surface.DiscardTexture(s.current.SurfaceTexture())
		s.current = nil
	}
	if err := s.configure(cfg); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

func (s *HALSwapchain) configure(cfg Config) error {
	//nolint:gosec // G115: validate rejects non-positive sizes
	err := s.surface.Configure(s.device, &hal.SurfaceConfiguration{
		Width:               uint32(cfg.Width),
		Height:              uint32(cfg.Height),
		Format:              cfg.Format,
		Usage:               surfaceUsage,
		PresentMode:         cfg.presentMode(),
		AlphaMode:           cfg.AlphaMode,
		EnableDamagePresent: true,
	})
	if err != nil {
		s.configured = false
		if errors.Is(err, hal.ErrZeroArea) {
			return fmt.Errorf("%w: %w", ErrZeroArea, err)
		}
		return fmt.Errorf("swapchain: configure surface: %w", err)
	}
	s.configured = true
	s.outdated = false
	slogger().Debug("swapchain: surface configured",
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height),
		slog.Any("format", cfg.Format))
	return nil
}

// Config returns the active configuration.
func (s *HALSwapchain) Config() Config {
	return s.cfg
}

// Acquire acquires the next surface texture.
func (s *HALSwapchain) Acquire() (render.RenderTarget, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if s.current != nil {
		return nil, ErrNoBackbuffer
	}
	if s.outdated {
		if err := s.configure(s.cfg); err != nil {
			return nil, err
		}
	}

	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil {
		if s.markOutdated(err) {
			return nil, fmt.Errorf("%w: %w", ErrOutdated, err)
		}
		return nil, fmt.Errorf("swapchain: acquire: %w", err)
	}
	if acquired.Suboptimal {
		// Usable for this frame; reconfigure before the next one.
		s.outdated = true
	}

	t := render.NewSurfaceTarget(s.cfg.Width, s.cfg.Height, s.cfg.Format, acquired.Texture)
	t.SetMirrored(s.cfg.Mirrored)
	s.current = t
	return t, nil
}

// Present queues the acquired texture for display.
func (s *HALSwapchain) Present(target render.RenderTarget, damage []image.Rectangle) error {
	t, ok := target.(*render.SurfaceTarget)
	if !ok || s.current == nil || t != s.current {
		return ErrForeignTarget
	}
	s.current = nil

	if err := s.queue.Present(s.surface, t.SurfaceTexture(), damage); err != nil {
		if s.markOutdated(err) {
			return fmt.Errorf("%w: %w", ErrOutdated, err)
		}
		return fmt.Errorf("swapchain: present: %w", err)
	}
	return nil
}

// Discard releases the acquired texture without presenting it.
func (s *HALSwapchain) Discard(target render.RenderTarget) {
	t, ok := target.(*render.SurfaceTarget)
	if !ok || s.current == nil || t != s.current {
		return
	}
	s.surface.DiscardTexture(t.SurfaceTexture())
	s.current = nil
}

// Destroy unconfigures the surface. The surface itself stays owned by the
// caller.
func (s *HALSwapchain) Destroy() {
	if s.current != nil {
		s.surface.DiscardTexture(s.current.SurfaceTexture())
		s.current = nil
	}
	if s.configured {
		s.surface.Unconfigure(s.device)
	}
	s.configured = false
	s.outdated = false
	s.cfg = Config{}
}

// Outdated reports whether the next Acquire reconfigures the surface.
func (s *HALSwapchain) Outdated() bool {
	return s.outdated
}

func (s *HALSwapchain) markOutdated(err error) bool {
	if errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost) {
		s.outdated = true
		slogger().Warn("swapchain: surface needs reconfiguration", slog.Any("err", err))
		return true
	}
	return false
}

var _ Swapchain = (*HALSwapchain)(nil)
