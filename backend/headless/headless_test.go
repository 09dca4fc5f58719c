// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package headless

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/render"
)

func twoOutputs() *Backend {
	return New(Config{
		Outputs: []OutputConfig{
			{Name: "A", Width: 64, Height: 32, Scale: 1},
			{Name: "B", Width: 128, Height: 64, Scale: 2, Position: image.Pt(64, 0)},
		},
		BufferCount: 2,
	})
}

func TestRegistered(t *testing.T) {
	b, err := backend.Open(Name)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	outs := b.Outputs()
	if len(outs) != 1 || outs[0].Name() != "HEADLESS-1" {
		t.Fatalf("default outputs = %v", outs)
	}
	if w, h := outs[0].Size(); w != 1920 || h != 1080 {
		t.Errorf("default size = %dx%d, want 1920x1080", w, h)
	}
}

func TestOutputDefaults(t *testing.T) {
	b := New(Config{Outputs: []OutputConfig{{Width: 10, Height: 10}}})
	o := b.Outputs()[0]
	if o.Name() != "HEADLESS-1" {
		t.Errorf("Name() = %q, want HEADLESS-1", o.Name())
	}
	if o.ScaleFactor() != 1 {
		t.Errorf("ScaleFactor() = %v, want 1", o.ScaleFactor())
	}
	if !o.Enabled() || !o.Renderable() {
		t.Error("new outputs should be enabled and renderable")
	}
	if o.Context() != nil {
		t.Error("outputs without DedicatedContext have no context")
	}
}

func TestCommitPresentsFrame(t *testing.T) {
	b := twoOutputs()
	o := b.Output("A")

	target, err := o.Swapchain().Acquire()
	if err != nil {
		t.Fatal(err)
	}
	target.(*render.PixmapTarget).Clear(color.RGBA{0, 255, 0, 255})

	damage := []image.Rectangle{image.Rect(0, 0, 64, 32)}
	if err := o.Commit(&backend.State{Target: target, Damage: damage}); err != nil {
		t.Fatal(err)
	}
	if o.Frames() != 1 || o.Commits() != 1 {
		t.Errorf("Frames=%d Commits=%d, want 1 and 1", o.Frames(), o.Commits())
	}
	if got := o.Front().RGBAAt(5, 5); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("front pixel = %v, want green", got)
	}
	if !slices.Equal(o.LastDamage(), damage) {
		t.Errorf("LastDamage() = %v, want %v", o.LastDamage(), damage)
	}
}

func TestCommitRejectsMismatchedBuffer(t *testing.T) {
	b := twoOutputs()
	o := b.Output("A")

	err := o.Commit(&backend.State{Target: render.NewPixmapTarget(10, 10)})
	if !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("Commit(wrong size) = %v, want ErrTestFailed", err)
	}
	if o.Commits() != 0 {
		t.Error("rejected commit must not count")
	}
}

func TestCommitDisabled(t *testing.T) {
	b := twoOutputs()
	o := b.Output("A")
	if err := o.SetEnabled(false); err != nil {
		t.Fatal(err)
	}
	target, err := o.Swapchain().Acquire()
	if err != nil {
		t.Fatal(err)
	}
	state := &backend.State{Target: target}
	if err := o.Commit(state); !errors.Is(err, backend.ErrOutputDisabled) {
		t.Errorf("Commit on disabled output = %v, want ErrOutputDisabled", err)
	}
	o.Rollback(state)
	if _, err := o.Swapchain().Acquire(); err != nil {
		t.Errorf("Rollback should free the buffer: %v", err)
	}
}

func TestInjectedCommitFailure(t *testing.T) {
	b := twoOutputs()
	o := b.Output("A")
	o.FailCommits(1, nil)

	target, _ := o.Swapchain().Acquire()
	state := &backend.State{Target: target}
	if err := o.Commit(state); !errors.Is(err, ErrInjected) {
		t.Fatalf("Commit() = %v, want ErrInjected", err)
	}
	o.Rollback(state)
	if o.Frames() != 0 {
		t.Error("failed commit must not present")
	}

	target, _ = o.Swapchain().Acquire()
	if err := o.Commit(&backend.State{Target: target}); err != nil {
		t.Errorf("second Commit() = %v, want success", err)
	}
}

func TestInjectedTestFailure(t *testing.T) {
	b := twoOutputs()
	o := b.Output("B")
	custom := errors.New("link training failed")
	o.FailTests(1, custom)

	err := o.Test(&backend.State{})
	if !errors.Is(err, backend.ErrTestFailed) || !errors.Is(err, custom) {
		t.Errorf("Test() = %v, want ErrTestFailed wrapping custom error", err)
	}
	if err := o.Test(&backend.State{}); err != nil {
		t.Errorf("second Test() = %v, want nil", err)
	}
}

func TestConfigurationEvents(t *testing.T) {
	b := twoOutputs()
	o := b.Output("B")

	var got []backend.EventKind
	cancel := b.Subscribe(func(ev backend.Event) {
		if ev.Output != backend.Output(o) {
			t.Errorf("event for %s, want B", ev.Output.Name())
		}
		got = append(got, ev.Kind)
	})
	defer cancel()

	if err := o.SetScale(1.5); err != nil {
		t.Fatal(err)
	}
	if err := o.SetScale(1.5); err != nil { // unchanged: no event
		t.Fatal(err)
	}
	if err := o.SetMode(256, 128); err != nil {
		t.Fatal(err)
	}
	if err := o.SetTransform(backend.Transform90); err != nil {
		t.Fatal(err)
	}
	if err := o.SetPosition(image.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if err := o.SetEnabled(false); err != nil {
		t.Fatal(err)
	}
	o.SetRenderable(false)
	o.RequestRedraw()

	want := []backend.EventKind{
		backend.EventScale, backend.EventMode, backend.EventTransform,
		backend.EventPosition, backend.EventEnabled, backend.EventRenderable,
		backend.EventRedraw,
	}
	if !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	if w, h := backend.EffectiveSizeOf(o); w != 85 || h != 171 {
		t.Errorf("EffectiveSizeOf = %dx%d, want 85x171", w, h)
	}
}

func TestSetModeRejectsZeroArea(t *testing.T) {
	b := twoOutputs()
	if err := b.Output("A").SetMode(0, 100); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("SetMode(0, 100) = %v, want ErrTestFailed", err)
	}
}

func TestHotplug(t *testing.T) {
	b := twoOutputs()
	var kinds []backend.EventKind
	b.Subscribe(func(ev backend.Event) { kinds = append(kinds, ev.Kind) })

	c := b.AddOutput(OutputConfig{Width: 32, Height: 32})
	if c.Name() != "HEADLESS-3" {
		t.Errorf("Name() = %q, want HEADLESS-3", c.Name())
	}
	if len(b.Outputs()) != 3 {
		t.Fatalf("len(Outputs()) = %d, want 3", len(b.Outputs()))
	}

	b.RemoveOutput(c)
	b.RemoveOutput(c) // already gone
	if len(b.Outputs()) != 2 {
		t.Errorf("len(Outputs()) = %d, want 2", len(b.Outputs()))
	}
	if c.Renderable() {
		t.Error("removed output should not be renderable")
	}
	if !slices.Equal(kinds, []backend.EventKind{backend.EventAdded, backend.EventRemoved}) {
		t.Errorf("events = %v", kinds)
	}

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if len(b.Outputs()) != 0 {
		t.Error("Close should drop every output")
	}
}

func TestDedicatedContext(t *testing.T) {
	b := New(Config{Outputs: []OutputConfig{{Width: 8, Height: 8, DedicatedContext: true}}})
	if b.Outputs()[0].Context() == nil {
		t.Error("DedicatedContext output should have a context")
	}
}

func TestAdvertisedModes(t *testing.T) {
	modes := []backend.Mode{
		{Width: 64, Height: 32, Refresh: 60000},
		{Width: 128, Height: 64, Refresh: 60000},
	}
	b := New(Config{Outputs: []OutputConfig{{Name: "A", Width: 64, Height: 32, Modes: modes}}, BufferCount: 2})
	o := b.Output("A")
	if o.CustomMode() {
		t.Fatal("initial advertised mode reported as custom")
	}

	if err := o.SetMode(128, 64); err != nil {
		t.Fatalf("SetMode(advertised) = %v", err)
	}
	if err := o.SetMode(100, 50); !errors.Is(err, backend.ErrTestFailed) {
		t.Fatalf("SetMode(unadvertised) = %v, want ErrTestFailed", err)
	}
	if w, h := o.Size(); w != 128 || h != 64 {
		t.Errorf("rejected mode applied: %dx%d", w, h)
	}

	var events []backend.EventKind
	b.Subscribe(func(ev backend.Event) { events = append(events, ev.Kind) })
	if err := o.SetCustomMode(100, 50, 75000); err != nil {
		t.Fatalf("SetCustomMode = %v", err)
	}
	if got := o.Mode(); got != (backend.Mode{Width: 100, Height: 50, Refresh: 75000}) {
		t.Errorf("Mode() = %+v", got)
	}
	if !o.CustomMode() {
		t.Error("custom mode not reported")
	}
	if !slices.Equal(events, []backend.EventKind{backend.EventMode}) {
		t.Errorf("events = %v, want [mode]", events)
	}

	both := &backend.State{Mode: &modes[0], CustomMode: &modes[1]}
	if err := o.Test(both); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("Test(mode and custom mode) = %v, want ErrTestFailed", err)
	}
	if err := o.SetCustomMode(0, 50, 60000); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("SetCustomMode(0x50) = %v, want ErrTestFailed", err)
	}
}

func TestGammaLUT(t *testing.T) {
	b := New(Config{Outputs: []OutputConfig{
		{Name: "A", Width: 8, Height: 8, GammaSize: 4},
		{Name: "B", Width: 8, Height: 8},
	}})
	a, plain := b.Output("A"), b.Output("B")
	ramp := []uint16{0, 0x5555, 0xaaaa, 0xffff}
	lut := &backend.GammaLUT{Red: ramp, Green: ramp, Blue: ramp}

	if err := plain.SetGammaLUT(lut); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("output without gamma: %v, want ErrTestFailed", err)
	}

	short := &backend.GammaLUT{Red: ramp[:2], Green: ramp[:2], Blue: ramp[:2]}
	if err := a.SetGammaLUT(short); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("short LUT: %v, want ErrTestFailed", err)
	}
	uneven := &backend.GammaLUT{Red: ramp, Green: ramp[:3], Blue: ramp}
	if err := a.SetGammaLUT(uneven); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("uneven LUT: %v, want ErrTestFailed", err)
	}
	if a.GammaLUT() != nil {
		t.Fatal("rejected LUT applied")
	}

	if err := a.SetGammaLUT(lut); err != nil {
		t.Fatalf("SetGammaLUT = %v", err)
	}
	ramp[1] = 1
	if got := a.GammaLUT(); got == nil || got.Size() != 4 || got.Red[1] != 0x5555 {
		t.Errorf("GammaLUT() = %+v, want a private copy of the ramp", got)
	}

	if err := a.SetGammaLUT(nil); err != nil {
		t.Fatalf("reset = %v", err)
	}
	if a.GammaLUT() != nil {
		t.Error("reset left a ramp behind")
	}
}

func TestAdaptiveSync(t *testing.T) {
	b := New(Config{Outputs: []OutputConfig{
		{Name: "A", Width: 8, Height: 8, AdaptiveSync: true},
		{Name: "B", Width: 8, Height: 8},
	}})
	a, plain := b.Output("A"), b.Output("B")

	if err := plain.SetAdaptiveSync(true); !errors.Is(err, backend.ErrTestFailed) {
		t.Errorf("incapable output: %v, want ErrTestFailed", err)
	}
	if err := plain.SetAdaptiveSync(false); err != nil {
		t.Errorf("switching off is always allowed: %v", err)
	}

	if err := a.SetAdaptiveSync(true); err != nil {
		t.Fatal(err)
	}
	if !a.AdaptiveSync() {
		t.Error("adaptive sync not on")
	}

	// A failed commit leaves the setting alone.
	a.FailCommits(1, nil)
	if err := a.SetAdaptiveSync(false); !errors.Is(err, ErrInjected) {
		t.Fatalf("SetAdaptiveSync = %v, want ErrInjected", err)
	}
	if !a.AdaptiveSync() {
		t.Error("failed commit switched adaptive sync off")
	}
}

func TestStateHasChanges(t *testing.T) {
	on := true
	tests := []struct {
		name  string
		state backend.State
		want  bool
	}{
		{"frame only", backend.State{Target: render.NewPixmapTarget(1, 1)}, false},
		{"custom mode", backend.State{CustomMode: &backend.Mode{Width: 1, Height: 1}}, true},
		{"gamma", backend.State{GammaLUT: &backend.GammaLUT{}}, true},
		{"adaptive sync", backend.State{AdaptiveSync: &on}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.HasChanges(); got != tt.want {
				t.Errorf("HasChanges() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGPUOutput(t *testing.T) {
	instance, handle := openNoop(t)
	b := New(Config{
		Outputs: []OutputConfig{{Name: "A", Width: 16, Height: 8, DedicatedContext: true}},
		GPU:     &GPUConfig{Instance: instance, Device: handle},
	})
	defer b.Close()
	o := b.Output("A")

	if !o.GPU() {
		t.Fatal("output not on a hal surface")
	}
	if o.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format() = %v, want the device surface format", o.Format())
	}
	if _, ok := o.Context().(*backend.GPUContext); !ok {
		t.Errorf("Context() = %T, want *backend.GPUContext", o.Context())
	}

	target, err := o.Swapchain().Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if target.Texture() == nil || target.Pixels() != nil {
		t.Fatal("GPU output handed out a CPU target")
	}
	damage := []image.Rectangle{image.Rect(0, 0, 4, 4)}
	if err := o.Commit(&backend.State{Target: target, Damage: damage}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if o.Frames() != 1 || !slices.Equal(o.LastDamage(), damage) {
		t.Errorf("frames = %d, damage = %v", o.Frames(), o.LastDamage())
	}
	if o.Front() != nil {
		t.Error("GPU output has no CPU front buffer")
	}

	if err := o.SetMode(32, 16); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
}

func openNoop(t *testing.T) (hal.Instance, *render.HALDeviceHandle) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("no noop adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return instance, render.NewHALDeviceHandle(adapters[0], open, gputypes.TextureFormatBGRA8Unorm)
}
