package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/tinydisplay/internal/coordination"
	"github.com/ivlev/tinydisplay/internal/effects"
	"github.com/ivlev/tinydisplay/internal/system"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Widget is a staged widget: its window on the display, the rendered content
// and how wraps are drawn. A Widget is immutable once staged; restaging
// replaces it.
type Widget struct {
	ID         string
	Rect       image.Rectangle
	Content    image.Image
	Background color.Color
	Effect     effects.Effect
	Seam       timeline.Seam
}

// Renderer composites widgets onto display frames.
type Renderer struct {
	Width, Height int
	Background    color.Color
	// Scale is the integer upscale applied to the output frame.
	Scale int
}

func (r *Renderer) bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// OutputBounds is the size of the frames Render returns.
func (r *Renderer) OutputBounds() image.Rectangle {
	s := max(r.Scale, 1)
	return image.Rect(0, 0, r.Width*s, r.Height*s)
}

// Render draws frame into a pooled buffer, widgets in order. Widgets without
// a placement in frame are skipped. The caller returns the buffer with
// system.PutImage.
func (r *Renderer) Render(frame coordination.Frame, widgets []*Widget) *image.RGBA {
	canvas := system.GetFrame(r.bounds())
	if r.Background != nil {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
	}

	for _, w := range widgets {
		p, ok := frame.Get(w.ID)
		if !ok {
			continue
		}
		if w.Background != nil {
			draw.Draw(canvas, w.Rect, image.NewUniform(w.Background), image.Point{}, draw.Over)
		}
		eff := w.Effect
		if eff == nil {
			eff = effects.PlainEffect{}
		}
		eff.Draw(canvas, effects.Layer{Content: w.Content, Clip: w.Rect, Sample: p.Sample, Seam: w.Seam})
	}

	if max(r.Scale, 1) == 1 {
		return canvas
	}
	out := system.GetImage(r.OutputBounds())
	draw.NearestNeighbor.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	system.PutImage(canvas)
	return out
}

// Fit scales img to size. A zero dimension keeps the aspect ratio.
func Fit(img image.Image, size image.Point) image.Image {
	b := img.Bounds()
	if size.X <= 0 && size.Y <= 0 || b.Empty() {
		return img
	}
	if size.X <= 0 {
		size.X = max(1, b.Dx()*size.Y/b.Dy())
	}
	if size.Y <= 0 {
		size.Y = max(1, b.Dy()*size.X/b.Dx())
	}
	if size == b.Size() {
		return img
	}
	out := image.NewRGBA(image.Rectangle{Max: size})
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
