package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/tinydisplay/internal/action"
	"github.com/ivlev/tinydisplay/internal/timeline"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// row returns which pixels of row y are opaque, as a string of '#' and '.'.
func row(img *image.RGBA, y int) string {
	b := make([]byte, img.Bounds().Dx())
	for x := range b {
		if img.RGBAAt(x, y).A > 0 {
			b[x] = '#'
		} else {
			b[x] = '.'
		}
	}
	return string(b)
}

func TestEffects(t *testing.T) {
	clip := image.Rect(0, 0, 10, 1)
	content := solid(4, 1)

	tests := []struct {
		name   string
		effect Effect
		sample timeline.Sample
		seam   timeline.Seam
		want   string
	}{
		{"plain", PlainEffect{}, timeline.Sample{Position: image.Pt(2, 0), Opacity: 1}, timeline.Seam{}, "..####...."},
		{"clipped left", PlainEffect{}, timeline.Sample{Position: image.Pt(-2, 0), Opacity: 1}, timeline.Seam{}, "##........"},
		{"clipped right", PlainEffect{}, timeline.Sample{Position: image.Pt(8, 0), Opacity: 1}, timeline.Seam{}, "........##"},
		{"outside", PlainEffect{}, timeline.Sample{Position: image.Pt(12, 0), Opacity: 1}, timeline.Seam{}, ".........."},
		{"seamless no duplicate", SeamlessEffect{}, timeline.Sample{Position: image.Pt(-2, 0)}, timeline.Seam{Span: image.Pt(6, 0)}, "##........"},
		{"seamless duplicate", SeamlessEffect{}, timeline.Sample{Position: image.Pt(-2, 0), Duplicate: true}, timeline.Seam{Span: image.Pt(6, 0)}, "##..####.."},
		{"fade hidden", FadeEffect{}, timeline.Sample{Position: image.Pt(0, 0), Opacity: 0}, timeline.Seam{}, ".........."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := image.NewRGBA(clip)
			tt.effect.Draw(dst, Layer{Content: content, Clip: clip, Sample: tt.sample, Seam: tt.seam})
			if got := row(dst, 0); got != tt.want {
				t.Errorf("row = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClipOffset(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 3))
	clip := image.Rect(3, 1, 7, 2)
	PlainEffect{}.Draw(dst, Layer{Content: solid(2, 1), Clip: clip, Sample: timeline.Sample{Position: image.Pt(1, 0)}})
	if got := row(dst, 1); got != "....##...." {
		t.Errorf("row = %s", got)
	}
	if got := row(dst, 0); got != ".........." {
		t.Errorf("row outside clip = %s", got)
	}
}

func TestFadeOpacity(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 1))
	FadeEffect{}.Draw(dst, Layer{
		Content: solid(4, 1),
		Clip:    dst.Bounds(),
		Sample:  timeline.Sample{Opacity: 0.5},
	})
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{128, 128, 128, 128}) {
		t.Errorf("half opacity pixel = %v", got)
	}
}

func TestNewEffect(t *testing.T) {
	tests := []struct {
		mode action.ResetMode
		want Effect
	}{
		{action.ResetSeamless, SeamlessEffect{}},
		{action.ResetFade, FadeEffect{}},
		{action.ResetInstant, PlainEffect{}},
		{action.ResetNone, PlainEffect{}},
	}
	for _, tt := range tests {
		got, err := NewEffect(tt.mode)
		if err != nil {
			t.Errorf("NewEffect(%v) failed: %v", tt.mode, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NewEffect(%v) = %T, want %T", tt.mode, got, tt.want)
		}
	}
	if _, err := NewEffect(action.ResetMode(99)); err == nil {
		t.Error("expected error for unknown mode")
	}
}
