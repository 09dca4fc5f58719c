package scenegraph

import (
	"github.com/gogpu/gg"

	"github.com/gogpu/multiout/backend"
)

// Viewport places one output in scene coordinates.
//
// The viewport's coordinate space is the output's raw buffer pixels. Its
// local transform maps them into the parent: the output transform first,
// then the output scale, then the layout position. Geometry changes are
// applied in the next polish pass.
type Viewport struct {
	Item

	x, y      float64
	rawW      int
	rawH      int
	scale     float64
	transform backend.Transform
}

// NewViewport creates a viewport with no geometry.
func NewViewport() *Viewport {
	v := &Viewport{scale: 1}
	v.init(v)
	return v
}

// SetGeometry updates the placement. Scales <= 0 are treated as 1.
func (v *Viewport) SetGeometry(x, y float64, rawW, rawH int, scale float64, t backend.Transform) {
	if scale <= 0 {
		scale = 1
	}
	if v.x == x && v.y == y && v.rawW == rawW && v.rawH == rawH && v.scale == scale && v.transform == t {
		return
	}
	v.x, v.y = x, y
	v.rawW, v.rawH = rawW, rawH
	v.scale = scale
	v.transform = t
	v.Polish()
}

// SyncOutput copies the geometry of o.
func (v *Viewport) SyncOutput(o backend.Output) {
	w, h := o.Size()
	p := o.Position()
	v.SetGeometry(float64(p.X), float64(p.Y), w, h, o.ScaleFactor(), o.Transform())
}

// PixelSize returns the raw output size.
func (v *Viewport) PixelSize() (int, int) { return v.rawW, v.rawH }

// OutputScale returns the output scale.
func (v *Viewport) OutputScale() float64 { return v.scale }

// OutputTransform returns the output transform.
func (v *Viewport) OutputTransform() backend.Transform { return v.transform }

// Local returns the polished local transform.
func (v *Viewport) Local() gg.Matrix { return v.matrix }

// UpdatePolish recomputes the local transform and size from the geometry.
func (v *Viewport) UpdatePolish() {
	v.matrix = gg.Translate(v.x, v.y).
		Multiply(gg.Scale(1/v.scale, 1/v.scale)).
		Multiply(v.transform.Matrix(float64(v.rawW), float64(v.rawH)))
	v.width, v.height = float64(v.rawW), float64(v.rawH)
}
