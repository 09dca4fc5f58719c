// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"testing"
)

func TestDamageZeroValue(t *testing.T) {
	var d Damage
	if !d.Empty() {
		t.Error("zero Damage should be empty")
	}
	if d.Full() {
		t.Error("zero Damage should not be full")
	}
	if got := d.Rects(image.Rect(0, 0, 10, 10)); len(got) != 0 {
		t.Errorf("Rects() = %v, want none", got)
	}
}

func TestDamageAdd(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name string
		add  []image.Rectangle
		want []image.Rectangle
	}{
		{
			name: "empty rect ignored",
			add:  []image.Rectangle{{}},
			want: []image.Rectangle{},
		},
		{
			name: "single",
			add:  []image.Rectangle{image.Rect(10, 10, 20, 20)},
			want: []image.Rectangle{image.Rect(10, 10, 20, 20)},
		},
		{
			name: "contained rect dropped",
			add:  []image.Rectangle{image.Rect(0, 0, 50, 50), image.Rect(10, 10, 20, 20)},
			want: []image.Rectangle{image.Rect(0, 0, 50, 50)},
		},
		{
			name: "containing rect replaces",
			add:  []image.Rectangle{image.Rect(10, 10, 20, 20), image.Rect(0, 0, 50, 50)},
			want: []image.Rectangle{image.Rect(0, 0, 50, 50)},
		},
		{
			name: "clipped to bounds",
			add:  []image.Rectangle{image.Rect(90, 90, 150, 150)},
			want: []image.Rectangle{image.Rect(90, 90, 100, 100)},
		},
		{
			name: "outside bounds dropped",
			add:  []image.Rectangle{image.Rect(200, 200, 210, 210)},
			want: []image.Rectangle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Damage
			for _, r := range tt.add {
				d.Add(r)
			}
			got := d.Rects(bounds)
			if len(got) != len(tt.want) {
				t.Fatalf("Rects() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Rects()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDamageCollapsesToFull(t *testing.T) {
	var d Damage
	for i := 0; i <= maxDamageRects; i++ {
		d.Add(image.Rect(i*10, 0, i*10+5, 5))
	}
	if !d.Full() {
		t.Fatalf("Damage with %d disjoint rects should be full", maxDamageRects+1)
	}

	bounds := image.Rect(0, 0, 320, 240)
	got := d.Rects(bounds)
	if len(got) != 1 || got[0] != bounds {
		t.Errorf("Rects() = %v, want [%v]", got, bounds)
	}
}

func TestDamageClear(t *testing.T) {
	var d Damage
	d.AddAll()
	d.Clear()
	if !d.Empty() {
		t.Error("Damage should be empty after Clear")
	}

	d.Add(image.Rect(0, 0, 1, 1))
	if d.Empty() {
		t.Error("Add after Clear should damage again")
	}
}
