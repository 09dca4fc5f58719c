package scenegraph

import (
	"image/color"

	"github.com/gogpu/gg"

	"github.com/gogpu/multiout/texture"
)

// RectItem fills its bounds with a solid color.
type RectItem struct {
	Item
	color gg.RGBA
}

// NewRectItem creates a w x h rectangle.
func NewRectItem(w, h float64, c color.Color) *RectItem {
	r := &RectItem{color: gg.FromColor(c)}
	r.init(r)
	r.width, r.height = w, h
	return r
}

// Color returns the fill color.
func (r *RectItem) Color() gg.RGBA { return r.color }

// SetColor changes the fill color.
func (r *RectItem) SetColor(c color.Color) {
	rgba := gg.FromColor(c)
	if rgba == r.color {
		return
	}
	r.color = rgba
	r.changed()
}

// TextureItem draws a client buffer through a texture bridge, stretched to
// the item size.
type TextureItem struct {
	Item
	bridge *texture.Bridge
}

// NewTextureItem creates an item showing b. The item takes the size of the
// bridged buffer; the bridge stays owned by the caller.
func NewTextureItem(b *texture.Bridge) *TextureItem {
	t := &TextureItem{bridge: b}
	t.init(t)
	if b != nil {
		t.width, t.height = float64(b.Width()), float64(b.Height())
	}
	return t
}

// Bridge returns the texture bridge.
func (t *TextureItem) Bridge() *texture.Bridge { return t.bridge }

// TextureChanged reports new buffer content, e.g. after Bridge.Swap.
func (t *TextureItem) TextureChanged() {
	t.changed()
}

// textureMatrix maps buffer pixels to item coordinates.
func (t *TextureItem) textureMatrix() (gg.Matrix, bool) {
	if t.bridge == nil || !t.bridge.Bound() {
		return gg.Matrix{}, false
	}
	tw, th := t.bridge.Width(), t.bridge.Height()
	if tw <= 0 || th <= 0 || t.width <= 0 || t.height <= 0 {
		return gg.Matrix{}, false
	}
	return gg.Scale(t.width/float64(tw), t.height/float64(th)), true
}
