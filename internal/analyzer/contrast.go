package analyzer

import (
	"image"
	"image/color"
	"math"
)

// ContrastDetector finds content by its edges (Sobel). It suits photos and
// PDF pages where the background is not a flat color.
type ContrastDetector struct {
	MinBlockArea  int     // minimum block area in pixels²
	EdgeThreshold float64 // gradient magnitude threshold
	DilateKernel  int     // odd kernel size joining nearby edges
	DilateSteps   int
}

// NewContrastDetector returns defaults tuned for small display content.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  9,
		EdgeThreshold: 30.0,
		DilateKernel:  3,
		DilateSteps:   1,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	gray := toGrayscale(img)
	edges := sobelEdgeDetection(gray, d.EdgeThreshold)
	joined := dilate(edges, d.DilateKernel, d.DilateSteps)

	var blocks []Block
	for _, rect := range findContours(joined) {
		if rect.Dx()*rect.Dy() >= d.MinBlockArea {
			blocks = append(blocks, Block{Rect: rect, Type: "edge", Confidence: 0.7})
		}
	}
	return blocks, nil
}

// toGrayscale flattens img; transparent pixels become black.
func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

var (
	sobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobelEdgeDetection marks pixels whose gradient magnitude exceeds threshold.
// Pixels outside the image read as their nearest edge pixel, so content that
// touches the border still produces edges along it.
func sobelEdgeDetection(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	edges := image.NewGray(b)
	at := func(x, y int) float64 {
		x = min(max(x, b.Min.X), b.Max.X-1)
		y = min(max(y, b.Min.Y), b.Max.Y-1)
		return float64(gray.GrayAt(x, y).Y)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := at(x+kx, y+ky)
					sumX += p * float64(sobelX[ky+1][kx+1])
					sumY += p * float64(sobelY[ky+1][kx+1])
				}
			}
			if math.Hypot(sumX, sumY) > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return edges
}

// dilate grows marked pixels by kernelSize/2 in every direction, steps times.
func dilate(img *image.Gray, kernelSize, steps int) *image.Gray {
	b := img.Bounds()
	half := kernelSize / 2
	result := img
	for range steps {
		next := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				var v uint8
				for ky := max(y-half, b.Min.Y); ky <= min(y+half, b.Max.Y-1) && v == 0; ky++ {
					for kx := max(x-half, b.Min.X); kx <= min(x+half, b.Max.X-1); kx++ {
						if result.GrayAt(kx, ky).Y > 128 {
							v = 255
							break
						}
					}
				}
				next.SetGray(x, y, color.Gray{Y: v})
			}
		}
		result = next
	}
	return result
}

// findContours returns the bounding rectangles of connected marked regions
// in scan order.
func findContours(img *image.Gray) []image.Rectangle {
	b := img.Bounds()
	visited := make([]bool, b.Dx()*b.Dy())
	seen := func(x, y int) *bool { return &visited[(y-b.Min.Y)*b.Dx()+(x-b.Min.X)] }

	var contours []image.Rectangle
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y > 128 && !*seen(x, y) {
				contours = append(contours, floodFill(img, seen, image.Pt(x, y)))
			}
		}
	}
	return contours
}

func floodFill(img *image.Gray, seen func(x, y int) *bool, start image.Point) image.Rectangle {
	b := img.Bounds()
	r := image.Rectangle{Min: start, Max: start.Add(image.Pt(1, 1))}
	stack := []image.Point{start}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !p.In(b) || *seen(p.X, p.Y) || img.GrayAt(p.X, p.Y).Y <= 128 {
			continue
		}
		*seen(p.X, p.Y) = true
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
		stack = append(stack,
			image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y),
			image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1),
		)
	}
	return r
}
