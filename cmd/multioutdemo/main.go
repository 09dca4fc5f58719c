// Command multioutdemo composites one scene onto several virtual outputs
// and saves every output's front buffer as a PNG captioned with the
// output's name, mode and scale.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/multiout"
	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/backend/headless"
	"github.com/gogpu/multiout/scenegraph"
	"github.com/gogpu/multiout/texture"
)

func main() {
	var (
		width   = flag.Int("width", 640, "width of the first output in pixels")
		height  = flag.Int("height", 360, "height of the first output in pixels")
		scale   = flag.Float64("scale", 2, "scale of the second output")
		rotate  = flag.Bool("rotate", false, "rotate the second output by 90 degrees")
		outDir  = flag.String("out", ".", "directory for the PNG files")
		verbose = flag.Bool("v", false, "log render cycles")
	)
	flag.Parse()

	if *verbose {
		multiout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	second := headless.OutputConfig{
		Name:     "HEADLESS-2",
		Width:    int(math.Round(float64(*width) * *scale)),
		Height:   int(math.Round(float64(*height) * *scale)),
		Scale:    *scale,
		Position: image.Pt(*width, 0),
	}
	if *rotate {
		second.Width, second.Height = second.Height, second.Width
		second.Transform = backend.Transform90
	}
	hb := headless.New(headless.Config{
		Outputs: []headless.OutputConfig{
			{Name: "HEADLESS-1", Width: *width, Height: *height, Scale: 1},
			second,
		},
		BufferCount: 2,
	})
	defer hb.Close()

	scene, err := buildScene(*width, *height)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}

	w, err := multiout.NewRenderWindow(scene)
	if err != nil {
		log.Fatalf("Failed to create render window: %v", err)
	}
	defer w.Close()
	if sc, ok := w.Control().(*scenegraph.SoftwareControl); ok {
		sc.SetBackground(color.RGBA{R: 24, G: 28, B: 36, A: 255})
	}

	w.Watch(hb)
	for _, o := range hb.Outputs() {
		if err := w.Attach(o); err != nil {
			log.Fatalf("Failed to attach %s: %v", o.Name(), err)
		}
	}
	w.FrameDone.Connect(func(fi multiout.FrameInfo) {
		if fi.Err != nil {
			log.Printf("%s: frame %d: %v", fi.Output.Name(), fi.Sequence, fi.Err)
			return
		}
		log.Printf("%s: frame %d committed", fi.Output.Name(), fi.Sequence)
	})

	w.Loop().RunPending()
	if stats := w.LastStats(); stats.Failed > 0 {
		log.Fatalf("%d outputs failed to render", stats.Failed)
	}

	labels, err := newLabeler()
	if err != nil {
		log.Fatalf("Failed to set up labels: %v", err)
	}
	defer labels.Close()

	for _, o := range hb.Outputs() {
		path := filepath.Join(*outDir, o.Name()+".png")
		if err := labels.savePNG(o.(*headless.Output), path); err != nil {
			log.Fatalf("Failed to save %s: %v", o.Name(), err)
		}
		ow, oh := o.Size()
		log.Printf("%s saved to %s (%dx%d, scale %g)", o.Name(), path, ow, oh, o.ScaleFactor())
	}
	log.Printf("Shared scale %g", w.SharedScale())
}

// buildScene lays out a scene spanning both outputs: a banner across the
// seam and a texture drawn with gg on each side.
func buildScene(w, h int) (*scenegraph.Scene, error) {
	scene := scenegraph.NewScene()

	banner := scenegraph.NewRectItem(float64(w), float64(h)/6, color.RGBA{R: 230, G: 120, B: 40, A: 255})
	banner.SetPosition(float64(w)/2, float64(h)/12)
	scene.Add(banner)

	size := min(w, h) / 2
	for i, hue := range []float64{200, 320} {
		img := drawBadge(size, hue)
		b := texture.New()
		if err := b.Bind(texture.NewImageBuffer(img, false)); err != nil {
			return nil, fmt.Errorf("bind badge: %w", err)
		}
		item := scenegraph.NewTextureItem(b)
		item.SetPosition(float64(i*w)+float64(w-size)/2, float64(h-size)/2+float64(h)/12)
		scene.Add(item)
	}
	return scene, nil
}

func drawBadge(size int, hue float64) *image.RGBA {
	dc := gg.NewContext(size, size)
	c := float64(size) / 2

	dc.SetColor(gg.HSL(hue, 0.7, 0.55).Color())
	dc.DrawCircle(c, c, c*0.95)
	_ = dc.Fill()

	for i := 0; i < 6; i++ {
		dc.Push()
		dc.Translate(c, c)
		dc.Rotate(float64(i) * math.Pi / 3)
		dc.SetRGBA(1, 1, 1, 0.8)
		dc.DrawRoundedRectangle(-c*0.08, -c*0.7, c*0.16, c*0.45, c*0.05)
		_ = dc.Fill()
		dc.Pop()
	}
	_ = dc.FlushGPU()

	src := dc.Image()
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// labeler stamps output names onto saved frames.
type labeler struct {
	source *text.FontSource
}

func newLabeler() (*labeler, error) {
	text.SetShaper(text.NewGoTextShaper())
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	return &labeler{source: source}, nil
}

func (l *labeler) Close() error { return l.source.Close() }

// savePNG writes the output's front buffer with a caption strip naming the
// output, its mode and scale.
func (l *labeler) savePNG(o *headless.Output, path string) error {
	img := o.Front()
	if img == nil {
		return fmt.Errorf("no frame on %s", o.Name())
	}
	dc := gg.NewContextForImage(img)
	defer dc.Close()

	w, h := float64(dc.Width()), float64(dc.Height())
	size := math.Max(10, h/24)
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawRectangle(0, h-size*1.8, w, size*1.8)
	_ = dc.Fill()

	ow, oh := o.Size()
	dc.SetFont(l.source.Face(size))
	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%s  %dx%d  @%gx", o.Name(), ow, oh, o.ScaleFactor()),
		size*0.6, h-size*0.9, 0, 0.5)
	return dc.SavePNG(path)
}
