package effects

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

// Layer is one widget to be composited on a tick.
type Layer struct {
	Content image.Image
	// Clip is the widget window in display coordinates. Positions are
	// relative to Clip.Min.
	Clip   image.Rectangle
	Sample timeline.Sample
	Seam   timeline.Seam
}

// Effect draws a layer according to its timeline's reset mode.
type Effect interface {
	Draw(dst draw.Image, l Layer)
}

// NewEffect returns the effect for a reset mode.
func NewEffect(mode action.ResetMode) (Effect, error) {
	switch mode {
	case action.ResetSeamless:
		return SeamlessEffect{}, nil
	case action.ResetFade:
		return FadeEffect{}, nil
	case action.ResetInstant, action.ResetNone:
		return PlainEffect{}, nil
	default:
		return nil, fmt.Errorf("no effect for reset mode %v", mode)
	}
}

// PlainEffect draws the content at its position. Instant resets need
// nothing more: the timeline already jumps back.
type PlainEffect struct{}

func (PlainEffect) Draw(dst draw.Image, l Layer) {
	drawAt(dst, l.Clip, l.Content, l.Sample.Position, nil)
}

// SeamlessEffect draws the repeat copy one Seam.Span behind the content
// while it overlaps the window.
type SeamlessEffect struct{}

func (SeamlessEffect) Draw(dst draw.Image, l Layer) {
	drawAt(dst, l.Clip, l.Content, l.Sample.Position, nil)
	if l.Sample.Duplicate {
		drawAt(dst, l.Clip, l.Content, l.Sample.Position.Add(l.Seam.Span), nil)
	}
}

// FadeEffect scales the content alpha by Sample.Opacity.
type FadeEffect struct{}

func (FadeEffect) Draw(dst draw.Image, l Layer) {
	op := l.Sample.Opacity
	if op <= 0 {
		return
	}
	var mask image.Image
	if op < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(math.Round(op * 255))})
	}
	drawAt(dst, l.Clip, l.Content, l.Sample.Position, mask)
}

// drawAt composites content with its top-left corner at clip.Min+pos,
// clipped to clip.
func drawAt(dst draw.Image, clip image.Rectangle, content image.Image, pos image.Point, mask image.Image) {
	if content == nil {
		return
	}
	cb := content.Bounds()
	origin := clip.Min.Add(pos)
	r := image.Rectangle{Min: origin, Max: origin.Add(cb.Size())}.Intersect(clip)
	if r.Empty() {
		return
	}
	sp := cb.Min.Add(r.Min.Sub(origin))
	draw.DrawMask(dst, r, content, sp, mask, image.Point{}, draw.Over)
}
