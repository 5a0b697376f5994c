package source

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Source is widget content rendered to a bitmap at its natural size.
type Source interface {
	// Render draws the current content. The result must not be modified.
	Render() (image.Image, error)
	Close() error
}

// Size renders src and reports the size of the bitmap.
func Size(src Source) (image.Point, error) {
	img, err := src.Render()
	if err != nil {
		return image.Point{}, err
	}
	return img.Bounds().Size(), nil
}

// FitzPDFSource renders one page of a PDF document. The page is rasterized
// once and cached.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
	page int
	dpi  int

	once sync.Once
	img  image.Image
	err  error
}

func NewFitzPDFSource(path string, page, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if page < 0 || page >= doc.NumPage() {
		n := doc.NumPage()
		doc.Close()
		return nil, fmt.Errorf("pdf %s: page %d out of range [0,%d)", path, page, n)
	}
	if dpi <= 0 {
		dpi = 72
	}
	return &FitzPDFSource{doc: doc, path: path, page: page, dpi: dpi}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) Render() (image.Image, error) {
	f.once.Do(func() {
		f.img, f.err = f.doc.ImageDPI(f.page, float64(f.dpi))
		if f.err != nil {
			f.err = fmt.Errorf("pdf %s: render page %d: %w", f.path, f.page, f.err)
		}
	})
	return f.img, f.err
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
