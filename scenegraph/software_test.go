package scenegraph

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/texture"
)

var (
	red         = color.RGBA{255, 0, 0, 255}
	blue        = color.RGBA{0, 0, 255, 255}
	transparent = color.RGBA{}
)

// uprightParams maps scene coordinates 1:1 onto a w x h target.
func uprightParams(w, h int) render.FrameParams {
	return render.FrameParams{
		Output:           "test",
		DevicePixelRatio: 1,
		OutputScale:      1,
		DeviceRect:       image.Rect(0, 0, w, h),
		ViewportRect:     image.Rect(0, 0, w, h),
		Projection:       render.Ortho(0, float64(w), 0, float64(h)),
		NativeProjection: render.Ortho(0, float64(w), 0, float64(h)),
		ClipSpaceYDown:   true,
	}
}

func renderFrame(t *testing.T, c RenderControl, target render.RenderTarget, params render.FrameParams) {
	t.Helper()
	if err := c.BeginFrame(target, params); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := c.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := c.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := c.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
}

func TestSoftwareControlRendersRects(t *testing.T) {
	s := NewScene()
	r := NewRectItem(4, 4, red)
	r.SetPosition(2, 2)
	s.Add(r)

	c := NewSoftwareControl(s)
	target := render.NewPixmapTarget(16, 16)
	renderFrame(t, c, target, uprightParams(16, 16))

	if got := target.GetPixel(3, 3); got != red {
		t.Errorf("inside pixel = %v, want red", got)
	}
	if got := target.GetPixel(10, 10); got != transparent {
		t.Errorf("outside pixel = %v, want transparent", got)
	}
	if c.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", c.Frames())
	}
}

func TestSoftwareControlMirroredProjection(t *testing.T) {
	s := NewScene()
	s.Add(NewRectItem(8, 2, red))

	params := uprightParams(8, 8)
	params.Projection = render.Ortho(0, 8, 8, 0)

	c := NewSoftwareControl(s)
	target := render.NewPixmapTarget(8, 8)
	renderFrame(t, c, target, params)

	if got := target.GetPixel(4, 7); got != red {
		t.Errorf("bottom row = %v, want red", got)
	}
	if got := target.GetPixel(4, 0); got != transparent {
		t.Errorf("top row = %v, want transparent", got)
	}
}

func TestSoftwareControlBackground(t *testing.T) {
	c := NewSoftwareControl(NewScene())
	c.SetBackground(blue)
	target := render.NewPixmapTarget(4, 4)
	renderFrame(t, c, target, uprightParams(4, 4))
	if got := target.GetPixel(0, 0); got != blue {
		t.Errorf("pixel = %v, want background", got)
	}
}

func TestSoftwareControlSyncTracksChanges(t *testing.T) {
	s := NewScene()
	r := NewRectItem(4, 4, red)
	s.Add(r)

	c := NewSoftwareControl(s)
	target := render.NewPixmapTarget(4, 4)
	renderFrame(t, c, target, uprightParams(4, 4))

	r.SetColor(blue)
	renderFrame(t, c, target, uprightParams(4, 4))
	if got := target.GetPixel(1, 1); got != blue {
		t.Errorf("pixel = %v after color change, want blue", got)
	}

	r.SetVisible(false)
	renderFrame(t, c, target, uprightParams(4, 4))
	if got := target.GetPixel(1, 1); got != transparent {
		t.Errorf("pixel = %v after hide, want transparent", got)
	}
}

func TestSoftwareControlTextureItem(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []uint8{0, 0, 255, 255})
	}
	b := texture.New()
	if err := b.Bind(texture.NewImageBuffer(img, true)); err != nil {
		t.Fatal(err)
	}

	s := NewScene()
	item := NewTextureItem(b)
	item.SetPosition(8, 8)
	s.Add(item)
	if w, h := item.Size(); w != 4 || h != 4 {
		t.Fatalf("Size() = %vx%v, want buffer size", w, h)
	}

	c := NewSoftwareControl(s)
	target := render.NewPixmapTarget(16, 16)
	renderFrame(t, c, target, uprightParams(16, 16))

	if got := target.GetPixel(9, 9); got != blue {
		t.Errorf("texture pixel = %v, want blue", got)
	}
	if got := target.GetPixel(4, 4); got != transparent {
		t.Errorf("outside pixel = %v, want transparent", got)
	}
}

func TestSoftwareControlFrameLifecycle(t *testing.T) {
	c := NewSoftwareControl(NewScene())
	target := render.NewPixmapTarget(4, 4)

	if err := c.Sync(); !errors.Is(err, ErrNotInFrame) {
		t.Errorf("Sync outside frame = %v, want ErrNotInFrame", err)
	}
	if err := c.Render(); !errors.Is(err, ErrNotInFrame) {
		t.Errorf("Render outside frame = %v, want ErrNotInFrame", err)
	}
	if err := c.EndFrame(); !errors.Is(err, ErrNotInFrame) {
		t.Errorf("EndFrame outside frame = %v, want ErrNotInFrame", err)
	}

	params := uprightParams(4, 4)
	params.Output = "A"
	if err := c.BeginFrame(target, params); err != nil {
		t.Fatal(err)
	}
	if err := c.BeginFrame(target, params); !errors.Is(err, ErrInFrame) {
		t.Errorf("nested BeginFrame = %v, want ErrInFrame", err)
	}
	if got, ok := c.FrameParams(); !ok || got.Output != "A" {
		t.Errorf("FrameParams() = %v, %v during frame", got.Output, ok)
	}
	if err := c.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.FrameParams(); ok {
		t.Error("frame params must not outlive EndFrame")
	}
}

func TestSoftwareControlRejectsTargets(t *testing.T) {
	c := NewSoftwareControl(NewScene())

	surface := render.NewSurfaceTarget(4, 4, gputypes.TextureFormatBGRA8Unorm, nil)
	if err := c.BeginFrame(surface, uprightParams(4, 4)); !errors.Is(err, ErrNoPixels) {
		t.Errorf("BeginFrame(surface) = %v, want ErrNoPixels", err)
	}
	float := formatTarget{render.NewPixmapTarget(4, 4), gputypes.TextureFormatRGBA16Float}
	if err := c.BeginFrame(float, uprightParams(4, 4)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("BeginFrame(rgba16f) = %v, want ErrUnsupportedFormat", err)
	}
}

type formatTarget struct {
	*render.PixmapTarget
	format gputypes.TextureFormat
}

func (t formatTarget) Format() gputypes.TextureFormat { return t.format }

func TestSoftwareControlSwizzlesBGRA(t *testing.T) {
	s := NewScene()
	s.Add(NewRectItem(4, 4, red))
	c := NewSoftwareControl(s)

	pm := render.NewPixmapTarget(4, 4)
	renderFrame(t, c, formatTarget{pm, gputypes.TextureFormatBGRA8Unorm}, uprightParams(4, 4))

	// Red in BGRA memory order reads back as blue through the RGBA view.
	if got := pm.GetPixel(1, 1); got != blue {
		t.Errorf("pixel = %v, want swizzled red", got)
	}
}

func TestSoftwareControlResizes(t *testing.T) {
	s := NewScene()
	s.Add(NewRectItem(100, 100, red))
	c := NewSoftwareControl(s)

	small := render.NewPixmapTarget(4, 4)
	renderFrame(t, c, small, uprightParams(4, 4))
	large := render.NewPixmapTarget(12, 6)
	renderFrame(t, c, large, uprightParams(12, 6))

	if got := large.GetPixel(11, 5); got != red {
		t.Errorf("corner pixel = %v, want red", got)
	}
}

func TestSetDevicePixelRatio(t *testing.T) {
	c := NewSoftwareControl(NewScene())
	c.SetDevicePixelRatio(2)
	if c.DevicePixelRatio() != 2 {
		t.Errorf("DevicePixelRatio() = %v, want 2", c.DevicePixelRatio())
	}
	c.SetDevicePixelRatio(0)
	if c.DevicePixelRatio() != 1 {
		t.Errorf("DevicePixelRatio() = %v, want 1", c.DevicePixelRatio())
	}
}
