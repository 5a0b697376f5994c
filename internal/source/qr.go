package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/tinydisplay/internal/binding"
)

// ParseLevel maps a recovery level name to go-qrcode's levels.
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "", "medium", "m":
		return qrcode.Medium, nil
	case "low", "l":
		return qrcode.Low, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	}
	return qrcode.Medium, fmt.Errorf("unknown recovery level %q", s)
}

// QR encodes a template as a QR code, Module pixels per module.
type QR struct {
	Template   string
	Data       binding.Source
	Level      qrcode.RecoveryLevel
	Module     int
	Border     bool
	Color      color.Color
	Background color.Color
}

func (q *QR) Content() string {
	if q.Data == nil {
		return q.Template
	}
	return binding.Expand(q.Template, q.Data)
}

func (q *QR) Render() (image.Image, error) {
	code, err := qrcode.New(q.Content(), q.Level)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	code.DisableBorder = !q.Border
	bitmap := code.Bitmap()

	module := max(q.Module, 1)
	size := len(bitmap) * module
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	bg, fg := q.Background, q.Color
	if bg == nil {
		bg = color.Black
	}
	if fg == nil {
		fg = color.White
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	ink := image.NewUniform(fg)
	for y, row := range bitmap {
		for x, set := range row {
			if set {
				r := image.Rect(x*module, y*module, (x+1)*module, (y+1)*module)
				draw.Draw(img, r, ink, image.Point{}, draw.Src)
			}
		}
	}
	return img, nil
}

func (q *QR) Close() error { return nil }
