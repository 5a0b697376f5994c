package video

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/ivlev/tinydisplay/internal/config"
)

// PNGSequence writes every frame as <Dir>/<Prefix>_<tick>.png.
type PNGSequence struct {
	Dir    string
	Prefix string

	enc png.Encoder
}

func NewPNGSequence(dir string) *PNGSequence {
	return &PNGSequence{Dir: dir, Prefix: "frame", enc: png.Encoder{CompressionLevel: png.BestSpeed}}
}

func (s *PNGSequence) Open(ctx context.Context, params config.FrameParams) error {
	return os.MkdirAll(s.Dir, 0755)
}

// FramePath returns the file a tick is written to.
func (s *PNGSequence) FramePath(tick int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%06d.png", s.Prefix, tick))
}

func (s *PNGSequence) WriteFrame(tick int, img *image.RGBA) error {
	f, err := os.Create(s.FramePath(tick))
	if err != nil {
		return err
	}
	if err := s.enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("png tick %d: %w", tick, err)
	}
	return f.Close()
}

func (s *PNGSequence) Close() error { return nil }
