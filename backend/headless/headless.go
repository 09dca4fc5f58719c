// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package headless provides virtual outputs backed by CPU swapchains.
//
// Headless outputs behave like real ones: they have modes, scales and
// transforms, validate states in Test, present on Commit and report changes
// as events. Frames land in a PixmapSwapchain whose front buffer can be
// read back, which makes the backend suitable for tests, screenshots and
// remote sessions. With Config.GPU the outputs present through hal
// surfaces instead, exercising the GPU render path without a display.
//
// Outputs may advertise a mode list, a gamma ramp size and adaptive sync
// support; Test rejects states that need a capability the output lacks.
//
// Failures can be injected per output with FailCommits and FailTests.
package headless

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/render"
)

// Name is the registered backend name.
const Name = "headless"

func init() {
	backend.Register(Name, func() backend.Backend {
		return New(DefaultConfig())
	})
}

// OutputConfig describes one virtual output.
type OutputConfig struct {
	// Name defaults to "HEADLESS-n".
	Name string

	// Width and Height are the mode size in buffer pixels.
	Width  int
	Height int

	// Refresh is the mode refresh rate in mHz. Zero means 60 Hz.
	Refresh int

	// Scale defaults to 1.
	Scale float64

	Position  image.Point
	Transform backend.Transform

	// Disabled creates the output switched off.
	Disabled bool

	// SoftwareCursor forces the cursor to be drawn into frames.
	SoftwareCursor bool

	// Mirrored makes the swapchain scan buffers out bottom row first.
	Mirrored bool

	// DedicatedContext gives the output its own rendering context instead
	// of the compositor's shared one.
	DedicatedContext bool

	// Modes lists the advertised modes. When empty every mode is
	// accepted; otherwise other sizes need State.CustomMode.
	Modes []backend.Mode

	// GammaSize is the gamma ramp length. Zero means no gamma support.
	GammaSize int

	// AdaptiveSync marks the output as capable of variable refresh rate.
	AdaptiveSync bool
}

// GPUConfig makes outputs present through hal surfaces.
type GPUConfig struct {
	// Instance creates one surface per output.
	Instance hal.Instance

	// Device renders and presents the frames.
	Device *render.HALDeviceHandle
}

// Config configures a headless backend.
type Config struct {
	Outputs []OutputConfig

	// BufferCount is the swapchain length of every output.
	BufferCount int

	// GPU, when set, replaces the CPU swapchains with hal surfaces.
	GPU *GPUConfig
}

// DefaultConfig returns a backend with one 1920x1080 output at scale 1.
func DefaultConfig() Config {
	return Config{
		Outputs: []OutputConfig{
			{Name: "HEADLESS-1", Width: 1920, Height: 1080, Scale: 1},
		},
		BufferCount: 2,
	}
}

// Backend is a set of virtual outputs.
type Backend struct {
	backend.Dispatcher

	mu          sync.Mutex
	outputs     []*Output
	serial      int
	bufferCount int
	gpu         *GPUConfig
	closed      bool
}

// New creates a backend with the configured outputs. With cfg.GPU set, a
// surface that cannot be created leaves its output on a CPU swapchain.
func New(cfg Config) *Backend {
	b := &Backend{bufferCount: cfg.BufferCount, gpu: cfg.GPU}
	for _, oc := range cfg.Outputs {
		b.addOutput(oc)
	}
	return b
}

// Name returns "headless".
func (b *Backend) Name() string { return Name }

// Outputs returns the outputs in creation order.
func (b *Backend) Outputs() []backend.Output {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]backend.Output, len(b.outputs))
	for i, o := range b.outputs {
		out[i] = o
	}
	return out
}

// Output returns the output with the given name, or nil.
func (b *Backend) Output(name string) *Output {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.outputs {
		if o.name == name {
			return o
		}
	}
	return nil
}

// AddOutput hotplugs a new output and reports EventAdded.
func (b *Backend) AddOutput(cfg OutputConfig) *Output {
	o := b.addOutput(cfg)
	b.Emit(backend.Event{Kind: backend.EventAdded, Output: o})
	return o
}

func (b *Backend) addOutput(cfg OutputConfig) *Output {
	b.mu.Lock()
	b.serial++
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("HEADLESS-%d", b.serial)
	}
	o := newOutput(b, cfg)
	b.outputs = append(b.outputs, o)
	b.mu.Unlock()
	return o
}

// RemoveOutput unplugs o and reports EventRemoved.
func (b *Backend) RemoveOutput(o *Output) {
	b.mu.Lock()
	i := slices.Index(b.outputs, o)
	if i < 0 {
		b.mu.Unlock()
		return
	}
	b.outputs = slices.Delete(b.outputs, i, i+1)
	b.mu.Unlock()

	b.Emit(backend.Event{Kind: backend.EventRemoved, Output: o})
	o.destroy()
}

// Close destroys every output.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	outputs := b.outputs
	b.outputs = nil
	b.mu.Unlock()

	for _, o := range outputs {
		o.destroy()
	}
	return nil
}

var _ backend.Backend = (*Backend)(nil)
