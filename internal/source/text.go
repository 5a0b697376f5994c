package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/tinydisplay/internal/binding"
)

var faces = map[string]font.Face{
	"7x13":      basicfont.Face7x13,
	"8x16":      inconsolata.Regular8x16,
	"8x16-bold": inconsolata.Bold8x16,
}

// ParseFace returns a built-in bitmap face. An empty name selects 7x13.
func ParseFace(name string) (font.Face, error) {
	if name == "" {
		name = "7x13"
	}
	f, ok := faces[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown font %q", name)
	}
	return f, nil
}

// Text renders a template whose {name} placeholders are filled from Data.
//
// In cell mode every rune occupies runewidth.RuneWidth cells of one glyph
// advance each, the layout character LCDs use. Otherwise glyphs advance by
// their own widths.
type Text struct {
	Template   string
	Data       binding.Source
	Face       font.Face
	Color      color.Color
	Background color.Color
	Cells      bool
}

// String returns the expanded text.
func (t *Text) String() string {
	if t.Data == nil {
		return t.Template
	}
	return binding.Expand(t.Template, t.Data)
}

func (t *Text) face() font.Face {
	if t.Face == nil {
		return basicfont.Face7x13
	}
	return t.Face
}

func (t *Text) cellWidth() fixed.Int26_6 {
	adv, ok := t.face().GlyphAdvance('M')
	if !ok {
		return fixed.I(7)
	}
	return adv
}

func (t *Text) lineWidth(line string) int {
	if t.Cells {
		return (t.cellWidth() * fixed.Int26_6(runewidth.StringWidth(line))).Ceil()
	}
	return font.MeasureString(t.face(), line).Ceil()
}

func (t *Text) Render() (image.Image, error) {
	face := t.face()
	lines := strings.Split(t.String(), "\n")
	m := face.Metrics()
	lineHeight := m.Height.Ceil()

	width := 0
	for _, l := range lines {
		width = max(width, t.lineWidth(l))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, lineHeight*len(lines)))
	if t.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(t.Background), image.Point{}, draw.Src)
	}

	fg := t.Color
	if fg == nil {
		fg = color.White
	}
	d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}
	for i, line := range lines {
		baseline := fixed.I(i*lineHeight) + m.Ascent
		if !t.Cells {
			d.Dot = fixed.Point26_6{X: 0, Y: baseline}
			d.DrawString(line)
			continue
		}
		cell := t.cellWidth()
		col := 0
		for _, r := range line {
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			d.Dot = fixed.Point26_6{X: cell * fixed.Int26_6(col), Y: baseline}
			d.DrawString(string(r))
			col += w
		}
	}
	return img, nil
}

func (t *Text) Close() error { return nil }
