package main

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/multiout"
	"github.com/gogpu/multiout/backend/headless"
	"github.com/gogpu/multiout/scenegraph"
)

func TestSavePNGCaptionsOutput(t *testing.T) {
	hb := headless.New(headless.Config{
		Outputs: []headless.OutputConfig{{Name: "CAPTION-1", Width: 160, Height: 90, Scale: 1}},
	})
	t.Cleanup(func() { hb.Close() })

	scene := scenegraph.NewScene()
	bg := scenegraph.NewRectItem(160, 90, color.White)
	bg.SetPosition(80, 45)
	scene.Add(bg)

	w, err := multiout.NewRenderWindow(scene)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	o := hb.Outputs()[0].(*headless.Output)
	if err := w.Attach(o); err != nil {
		t.Fatal(err)
	}
	w.Loop().RunPending()

	labels, err := newLabeler()
	if err != nil {
		t.Fatalf("newLabeler: %v", err)
	}
	t.Cleanup(func() { labels.Close() })

	path := filepath.Join(t.TempDir(), "out.png")
	if err := labels.savePNG(o, path); err != nil {
		t.Fatalf("savePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 90 {
		t.Fatalf("saved %v, want 160x90", b)
	}

	front := o.Front()
	if got, want := color.RGBAModel.Convert(img.At(80, 5)), front.At(80, 5); got != want {
		t.Errorf("pixel above the caption = %v, want %v", got, want)
	}
	changed := 0
	for y := 80; y < 90; y++ {
		for x := 0; x < 160; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) != front.At(x, y) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Error("caption strip left the frame untouched")
	}
	if r, _, _, _ := front.At(80, 85).RGBA(); r>>8 != 255 {
		t.Error("savePNG drew into the output's front buffer")
	}
}
