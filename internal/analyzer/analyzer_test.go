package analyzer

import (
	"image"
	"image/color"
	"testing"
)

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestContrastDetector(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	fill(img, img.Bounds(), color.RGBA{0, 0, 0, 255})
	fill(img, image.Rect(10, 8, 30, 20), color.RGBA{255, 255, 255, 255})

	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("Expected at least one block, got none")
	}

	block := blocks[0]
	if !image.Rect(10, 8, 30, 20).In(block.Rect.Inset(-1)) {
		t.Errorf("block %v does not cover the rectangle", block.Rect)
	}

	t.Logf("Detected %d blocks", len(blocks))
	for i, b := range blocks {
		t.Logf("Block %d: %v (type: %s, confidence: %.2f)", i, b.Rect, b.Type, b.Confidence)
	}
}

func TestInkDetector(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	fill(img, img.Bounds(), color.RGBA{0, 0, 0, 255})
	fill(img, image.Rect(2, 3, 5, 6), color.RGBA{255, 200, 0, 255})
	fill(img, image.Rect(20, 10, 22, 18), color.RGBA{255, 200, 0, 255})
	// почти фон: в пределах допуска
	fill(img, image.Rect(30, 0, 32, 2), color.RGBA{8, 8, 8, 255})

	blocks, err := NewInkDetector().Detect(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if blocks[0].Rect != image.Rect(2, 3, 5, 6) || blocks[1].Rect != image.Rect(20, 10, 22, 18) {
		t.Errorf("unexpected blocks %v %v", blocks[0].Rect, blocks[1].Rect)
	}
}

func TestContentBoundsAndTrim(t *testing.T) {
	tests := []struct {
		name   string
		ink    []image.Rectangle
		bounds image.Rectangle
	}{
		{"single", []image.Rectangle{image.Rect(4, 2, 10, 6)}, image.Rect(4, 2, 10, 6)},
		{"union", []image.Rectangle{image.Rect(1, 1, 3, 3), image.Rect(12, 5, 14, 9)}, image.Rect(1, 1, 14, 9)},
		{"blank", nil, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 16, 10))
			for _, r := range tt.ink {
				fill(img, r, color.RGBA{255, 255, 255, 255})
			}
			d := NewInkDetector()

			got, err := ContentBounds(img, d)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.bounds {
				t.Errorf("ContentBounds = %v, want %v", got, tt.bounds)
			}

			trimmed, err := Trim(img, d)
			if err != nil {
				t.Fatal(err)
			}
			want := tt.bounds.Size()
			if tt.bounds.Empty() {
				want = img.Bounds().Size()
			}
			if trimmed.Bounds().Min != (image.Point{}) || trimmed.Bounds().Size() != want {
				t.Errorf("Trim bounds = %v, want origin size %v", trimmed.Bounds(), want)
			}
		})
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"ink", false},
		{"", false}, // default
		{"contrast", false},
		{"ocr", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if detector == nil {
					t.Error("Expected detector, got nil")
				}
			}
		})
	}
}
