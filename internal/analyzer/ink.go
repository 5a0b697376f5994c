package analyzer

import (
	"image"
	"image/color"
)

// InkDetector marks every pixel that differs from the background as ink. The
// background is the color of the top-left pixel; fully transparent pixels are
// always background.
type InkDetector struct {
	Tolerance uint8 // max per-channel difference still counted as background
}

func NewInkDetector() *InkDetector {
	return &InkDetector{Tolerance: 16}
}

func (d *InkDetector) Detect(img image.Image) ([]Block, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	bg := color.NRGBAModel.Convert(img.At(b.Min.X, b.Min.Y)).(color.NRGBA)

	mask := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A != 0 && d.differs(c, bg) {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	var blocks []Block
	for _, r := range findContours(mask) {
		blocks = append(blocks, Block{Rect: r, Type: "ink", Confidence: 1})
	}
	return blocks, nil
}

func (d *InkDetector) differs(c, bg color.NRGBA) bool {
	if bg.A == 0 {
		return true
	}
	return delta(c.R, bg.R) > d.Tolerance || delta(c.G, bg.G) > d.Tolerance ||
		delta(c.B, bg.B) > d.Tolerance || delta(c.A, bg.A) > d.Tolerance
}

func delta(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
