package analyzer

import "image"

// Block is a connected region of visible content in a bitmap.
type Block struct {
	Rect       image.Rectangle
	Type       string  // "ink", "edge"
	Confidence float64 // 0.0-1.0
}

// Detector finds the visible regions of widget content.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// ContentBounds returns the union of everything d detects in img. The result
// is empty when img has no visible content.
func ContentBounds(img image.Image, d Detector) (image.Rectangle, error) {
	blocks, err := d.Detect(img)
	if err != nil {
		return image.Rectangle{}, err
	}
	var r image.Rectangle
	for _, b := range blocks {
		r = r.Union(b.Rect)
	}
	return r.Intersect(img.Bounds()), nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Trim crops img to its content bounds, rebased to the origin. Blank images
// and images that cannot be cropped are returned unchanged.
func Trim(img image.Image, d Detector) (image.Image, error) {
	r, err := ContentBounds(img, d)
	if err != nil {
		return nil, err
	}
	if r.Empty() || r == img.Bounds() {
		return img, nil
	}
	si, ok := img.(subImager)
	if !ok {
		return img, nil
	}
	return rebase(si.SubImage(r)), nil
}

// rebase copies img so its bounds start at (0,0); widget layout assumes it.
func rebase(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
