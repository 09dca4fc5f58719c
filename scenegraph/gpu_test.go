package scenegraph

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/multiout/internal/shader"
	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/texture"
)

func newGPUControl(t *testing.T, s *Scene) *GPUControl {
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
	handle := render.NewHALDeviceHandle(adapters[0], open, gputypes.TextureFormatBGRA8Unorm)
	blit, err := shader.NewBlit(handle.HALDevice())
	if err != nil {
		t.Fatalf("NewBlit: %v", err)
	}
	c := NewGPUControl(s, handle, blit)
	t.Cleanup(func() {
		c.Destroy()
		blit.Destroy()
	})
	return c
}

func surfaceTarget(w, h int) *render.SurfaceTarget {
	return render.NewSurfaceTarget(w, h, gputypes.TextureFormatBGRA8Unorm, &noop.SurfaceTexture{})
}

func TestGPUControlDrawsItems(t *testing.T) {
	s := NewScene()
	s.Add(NewRectItem(8, 8, red))
	s.Add(NewRectItem(0, 8, blue)) // empty: skipped
	b := texture.New()
	if err := b.Bind(texture.NewImageBuffer(image.NewRGBA(image.Rect(0, 0, 2, 2)), false)); err != nil {
		t.Fatal(err)
	}
	s.Add(NewTextureItem(b))
	s.Add(NewTextureItem(texture.New())) // unbound: skipped

	c := newGPUControl(t, s)
	renderFrame(t, c, surfaceTarget(8, 8), uprightParams(8, 8))

	if c.Draws() != 2 {
		t.Errorf("Draws() = %d, want 2", c.Draws())
	}
	if c.Frames() != 1 || c.InFlight() != 1 {
		t.Errorf("Frames() = %d, InFlight() = %d, want 1 and 1", c.Frames(), c.InFlight())
	}

	renderFrame(t, c, surfaceTarget(8, 8), uprightParams(8, 8))
	if c.InFlight() != 1 {
		t.Errorf("InFlight() = %d after the queue caught up, want 1", c.InFlight())
	}
}

func TestGPUControlRejectsCPUTargets(t *testing.T) {
	c := newGPUControl(t, NewScene())
	if err := c.BeginFrame(render.NewPixmapTarget(4, 4), uprightParams(4, 4)); !errors.Is(err, ErrNoTexture) {
		t.Errorf("BeginFrame(pixmap) = %v, want ErrNoTexture", err)
	}
	if err := c.BeginFrame(nil, uprightParams(4, 4)); !errors.Is(err, ErrNoTexture) {
		t.Errorf("BeginFrame(nil) = %v, want ErrNoTexture", err)
	}
}

func TestGPUControlFrameLifecycle(t *testing.T) {
	c := newGPUControl(t, NewScene())
	for name, step := range map[string]func() error{
		"Sync": c.Sync, "Render": c.Render, "EndFrame": c.EndFrame,
	} {
		if err := step(); !errors.Is(err, ErrNotInFrame) {
			t.Errorf("%s outside a frame = %v, want ErrNotInFrame", name, err)
		}
	}

	if err := c.BeginFrame(surfaceTarget(4, 4), uprightParams(4, 4)); err != nil {
		t.Fatal(err)
	}
	if err := c.BeginFrame(surfaceTarget(4, 4), uprightParams(4, 4)); !errors.Is(err, ErrInFrame) {
		t.Errorf("nested BeginFrame = %v, want ErrInFrame", err)
	}
	if _, ok := c.FrameParams(); !ok {
		t.Error("no frame params inside the frame")
	}

	// EndFrame without Render submits nothing.
	if err := c.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if c.Frames() != 0 || c.InFlight() != 0 {
		t.Errorf("Frames() = %d, InFlight() = %d, want nothing submitted", c.Frames(), c.InFlight())
	}
	if _, ok := c.FrameParams(); ok {
		t.Error("frame params outlived EndFrame")
	}
}

func TestGPUControlDropsRemovedTextures(t *testing.T) {
	s := NewScene()
	b := texture.New()
	if err := b.Bind(texture.NewImageBuffer(image.NewRGBA(image.Rect(0, 0, 2, 2)), false)); err != nil {
		t.Fatal(err)
	}
	item := NewTextureItem(b)
	s.Add(item)

	c := newGPUControl(t, s)
	renderFrame(t, c, surfaceTarget(4, 4), uprightParams(4, 4))
	if len(c.images) != 1 {
		t.Fatalf("%d uploaded images, want 1", len(c.images))
	}

	s.Root().RemoveChild(item)
	renderFrame(t, c, surfaceTarget(4, 4), uprightParams(4, 4))
	if len(c.images) != 0 {
		t.Errorf("%d uploaded images after removal, want 0", len(c.images))
	}
}
