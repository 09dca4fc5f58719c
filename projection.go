package multiout

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/gogpu/multiout/render"
)

// orthoFor returns the orthographic projection over a w x h device rect.
// The unflipped form maps y=0 to +1, the flipped form maps y=0 to -1.
func orthoFor(w, h int, flipped bool) render.Mat4 {
	if flipped {
		return render.Ortho(0, float64(w), 0, float64(h))
	}
	return render.Ortho(0, float64(w), float64(h), 0)
}

// sceneToViewport returns the transform from scene coordinates to the
// viewport's buffer pixels.
func sceneToViewport(h *OutputHelper) gg.Matrix {
	v := h.viewport
	local := v.Local().Invert()
	parent := gg.Identity()
	if p := v.Parent(); p != nil {
		parent = p.ItemToWindow().Invert()
	}
	return local.Multiply(parent)
}

// frameParams builds the parameters of one output's frame. The display
// projection is flipped iff clip-space y points down XOR the target is
// mirrored; the native projection is always the unflipped form.
func (w *RenderWindow) frameParams(h *OutputHelper, target render.RenderTarget, seq uint64) render.FrameParams {
	width, height := h.output.Size()
	rect := image.Rect(0, 0, width, height)
	toViewport := render.FromAffine(sceneToViewport(h))

	display := orthoFor(width, height, w.clipSpaceYDown != target.Mirrored())
	native := orthoFor(width, height, false)

	return render.FrameParams{
		Output:           h.output.Name(),
		Sequence:         seq,
		DevicePixelRatio: w.dpr,
		OutputScale:      h.output.ScaleFactor(),
		DeviceRect:       rect,
		ViewportRect:     rect,
		Projection:       display.Mul(toViewport),
		NativeProjection: native.Mul(toViewport),
		ClipSpaceYDown:   w.clipSpaceYDown,
	}
}

// sceneRectToOutput maps r from scene coordinates to the bounding box in
// h's buffer pixels.
func sceneRectToOutput(h *OutputHelper, r image.Rectangle) image.Rectangle {
	m := sceneToViewport(h)
	corners := [4]gg.Point{
		m.TransformPoint(gg.Pt(float64(r.Min.X), float64(r.Min.Y))),
		m.TransformPoint(gg.Pt(float64(r.Max.X), float64(r.Min.Y))),
		m.TransformPoint(gg.Pt(float64(r.Min.X), float64(r.Max.Y))),
		m.TransformPoint(gg.Pt(float64(r.Max.X), float64(r.Max.Y))),
	}
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := minX, minY
	for _, c := range corners[1:] {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}
