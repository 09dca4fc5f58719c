// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "image"

// maxDamageRects is the threshold after which we switch to full damage.
// When more than this many rects accumulate, it's cheaper to redraw everything.
const maxDamageRects = 16

// Damage accumulates the regions of an output that changed since its last
// commit. The zero value is undamaged.
type Damage struct {
	rects []image.Rectangle
	full  bool
}

// Add marks a rectangular region as damaged. Empty rectangles are ignored.
// If the accumulated rects exceed maxDamageRects, the damage collapses to
// full damage.
func (d *Damage) Add(r image.Rectangle) {
	if d.full || r.Empty() {
		return
	}
	for i, existing := range d.rects {
		if r.In(existing) {
			return
		}
		if existing.In(r) {
			d.rects[i] = r
			return
		}
	}
	d.rects = append(d.rects, r)
	if len(d.rects) > maxDamageRects {
		d.AddAll()
	}
}

// AddAll marks the whole output as damaged.
func (d *Damage) AddAll() {
	d.full = true
	d.rects = d.rects[:0]
}

// Full reports whether the whole output is damaged.
func (d *Damage) Full() bool {
	return d.full
}

// Empty reports whether nothing is damaged.
func (d *Damage) Empty() bool {
	return !d.full && len(d.rects) == 0
}

// Rects returns the damaged rectangles clipped to bounds.
// Full damage is reported as bounds itself.
func (d *Damage) Rects(bounds image.Rectangle) []image.Rectangle {
	if d.full {
		return []image.Rectangle{bounds}
	}
	out := make([]image.Rectangle, 0, len(d.rects))
	for _, r := range d.rects {
		if c := r.Intersect(bounds); !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// Clear resets the damage after a successful commit.
func (d *Damage) Clear() {
	d.rects = d.rects[:0]
	d.full = false
}
