package video

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/tinydisplay/internal/config"
)

// Terminal previews frames in the terminal, two pixels per cell using the
// upper half block. Esc, q or Ctrl-C stop the preview.
type Terminal struct {
	// Screen defaults to the real terminal.
	Screen tcell.Screen
	// Pace sleeps one frame interval between frames.
	Pace bool

	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

const upperHalf = '▀'

func (t *Terminal) Open(ctx context.Context, params config.FrameParams) error {
	if t.Screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		t.Screen = s
	}
	if err := t.Screen.Init(); err != nil {
		return err
	}
	t.Screen.Clear()
	t.stop = make(chan struct{})
	if params.FPS > 0 {
		t.interval = time.Second / time.Duration(params.FPS)
	}

	go t.pollEvents()
	go func() {
		select {
		case <-ctx.Done():
			t.halt()
		case <-t.stop:
		}
	}()
	return nil
}

func (t *Terminal) pollEvents() {
	for {
		ev := t.Screen.PollEvent()
		if ev == nil {
			return
		}
		if key, ok := ev.(*tcell.EventKey); ok {
			if key.Key() == tcell.KeyEsc || key.Key() == tcell.KeyCtrlC || key.Rune() == 'q' {
				t.halt()
				return
			}
		}
	}
}

func (t *Terminal) halt() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Terminal) WriteFrame(tick int, img *image.RGBA) error {
	select {
	case <-t.stop:
		return ErrStopped
	default:
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := cellColor(img, x, y)
			bottom := tcell.ColorBlack
			if y+1 < b.Max.Y {
				bottom = cellColor(img, x, y+1)
			}
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			t.Screen.SetContent(x-b.Min.X, (y-b.Min.Y)/2, upperHalf, nil, style)
		}
	}
	t.Screen.Show()

	if t.Pace && t.interval > 0 {
		select {
		case <-t.stop:
			return ErrStopped
		case <-time.After(t.interval):
		}
	}
	return nil
}

// cellColor composites the pixel over black.
func cellColor(img *image.RGBA, x, y int) tcell.Color {
	c := img.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (t *Terminal) Close() error {
	if t.Screen == nil {
		return nil
	}
	t.halt()
	t.Screen.Fini()
	return nil
}
