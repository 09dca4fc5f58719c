package scenegraph

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/multiout/render"
)

type drawOp struct {
	node         Node
	itemToWindow gg.Matrix
}

// collectDrawOps appends the drawable nodes of s in paint order.
func collectDrawOps(s *Scene, ops []drawOp) []drawOp {
	s.Walk(func(n Node, m gg.Matrix) {
		switch n.(type) {
		case *RectItem, *TextureItem:
			ops = append(ops, drawOp{node: n, itemToWindow: m})
		}
	})
	return ops
}

// SoftwareControl renders a scene into CPU targets with gg.
//
// Frames are rasterized into an internal gg context sized to the target,
// then copied into the target's pixels. Scene state is captured in Sync and
// reused by later frames until the scene changes.
//
// SoftwareControl is NOT safe for concurrent use.
type SoftwareControl struct {
	scene      *Scene
	dc         *gg.Context
	background gg.RGBA
	dpr        float64

	target render.RenderTarget
	params *render.FrameParams

	ops           []drawOp
	synced        bool
	syncedVersion uint64

	frames uint64
}

// NewSoftwareControl creates a control rendering scene on a transparent
// background.
func NewSoftwareControl(scene *Scene) *SoftwareControl {
	return &SoftwareControl{
		scene:      scene,
		background: gg.Transparent,
		dpr:        1,
	}
}

// Scene returns the rendered scene.
func (c *SoftwareControl) Scene() *Scene { return c.scene }

// SetBackground sets the color every frame is cleared to.
func (c *SoftwareControl) SetBackground(col color.Color) {
	c.background = gg.FromColor(col)
}

// PolishItems polishes the scene.
func (c *SoftwareControl) PolishItems() {
	if n := c.scene.PolishItems(); n > 0 {
		slogger().Debug("scenegraph: polished items", "count", n)
	}
}

// SetDevicePixelRatio records the shared device pixel ratio.
func (c *SoftwareControl) SetDevicePixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	if ratio != c.dpr {
		slogger().Debug("scenegraph: device pixel ratio changed", "from", c.dpr, "to", ratio)
	}
	c.dpr = ratio
}

// DevicePixelRatio returns the ratio set by SetDevicePixelRatio.
func (c *SoftwareControl) DevicePixelRatio() float64 { return c.dpr }

// BeginFrame binds target and params for one frame.
func (c *SoftwareControl) BeginFrame(target render.RenderTarget, params render.FrameParams) error {
	if c.params != nil {
		return ErrInFrame
	}
	if target == nil || target.Pixels() == nil {
		return ErrNoPixels
	}
	switch target.Format() {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, target.Format())
	}

	w, h := target.Width(), target.Height()
	if c.dc == nil || c.dc.Width() != w || c.dc.Height() != h {
		if c.dc != nil {
			_ = c.dc.Close()
		}
		c.dc = gg.NewContext(w, h)
	}

	c.target = target
	c.params = &params
	return nil
}

// FrameParams returns the parameters of the frame in progress. ok is false
// outside of BeginFrame/EndFrame.
func (c *SoftwareControl) FrameParams() (params render.FrameParams, ok bool) {
	if c.params == nil {
		return render.FrameParams{}, false
	}
	return *c.params, true
}

// Sync rebuilds the draw list when the scene changed since the last sync.
func (c *SoftwareControl) Sync() error {
	if c.params == nil {
		return ErrNotInFrame
	}
	if c.synced && c.syncedVersion == c.scene.Version() {
		return nil
	}
	c.ops = collectDrawOps(c.scene, c.ops[:0])
	c.synced = true
	c.syncedVersion = c.scene.Version()
	return nil
}

// Render draws the draw list with the frame's device transform.
func (c *SoftwareControl) Render() error {
	if c.params == nil {
		return ErrNotInFrame
	}
	c.dc.ClearWithColor(c.background)
	dt := c.params.DeviceTransform()

	for _, op := range c.ops {
		switch n := op.node.(type) {
		case *RectItem:
			if n.width <= 0 || n.height <= 0 {
				continue
			}
			c.dc.SetTransform(dt.Multiply(op.itemToWindow))
			c.dc.SetRGBA(n.color.R, n.color.G, n.color.B, n.color.A)
			c.dc.DrawRectangle(0, 0, n.width, n.height)
			if err := c.dc.Fill(); err != nil {
				return fmt.Errorf("scenegraph: fill rect: %w", err)
			}
		case *TextureItem:
			tm, ok := n.textureMatrix()
			if !ok {
				continue
			}
			if err := c.dc.FlushGPU(); err != nil {
				return err
			}
			if err := n.bridge.DrawInto(c.canvas(), dt.Multiply(op.itemToWindow).Multiply(tm)); err != nil {
				return fmt.Errorf("scenegraph: draw texture: %w", err)
			}
		}
	}
	c.dc.Identity()
	return c.dc.FlushGPU()
}

// canvas aliases the gg pixmap as an image.
func (c *SoftwareControl) canvas() *image.RGBA {
	pm := c.dc.ResizeTarget()
	return &image.RGBA{
		Pix:    pm.Data(),
		Stride: pm.Width() * 4,
		Rect:   image.Rect(0, 0, pm.Width(), pm.Height()),
	}
}

// EndFrame copies the frame into the target and drops the frame state.
func (c *SoftwareControl) EndFrame() error {
	if c.params == nil {
		return ErrNotInFrame
	}
	defer func() {
		c.params = nil
		c.target = nil
	}()

	src := c.dc.ResizeTarget().Data()
	dst := c.target.Pixels()
	stride := c.target.Stride()
	row := c.target.Width() * 4
	bgra := c.target.Format() == gputypes.TextureFormatBGRA8Unorm ||
		c.target.Format() == gputypes.TextureFormatBGRA8UnormSrgb

	for y := 0; y < c.target.Height(); y++ {
		d := dst[y*stride : y*stride+row]
		copy(d, src[y*row:(y+1)*row])
		if bgra {
			for i := 0; i < row; i += 4 {
				d[i], d[i+2] = d[i+2], d[i]
			}
		}
	}
	c.frames++
	return nil
}

// Frames returns the number of finished frames.
func (c *SoftwareControl) Frames() uint64 { return c.frames }

var _ RenderControl = (*SoftwareControl)(nil)
