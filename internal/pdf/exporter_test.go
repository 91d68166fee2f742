package pdf

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestPageCount(t *testing.T) {
	e := NewExporter()

	tests := []struct {
		name   string
		width  int
		height int
		want   int
	}{
		{"A4 aspect fits one page", 1000, 1414, 1},
		{"short image one page", 1000, 200, 1},
		{"twice A4 height", 1000, 2829, 2},
		{"three pages", 1000, 4243, 3},
		{"square image", 800, 800, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.PageCount(tt.width, tt.height); got != tt.want {
				t.Errorf("PageCount(%d, %d) = %d, want %d", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

// Pagination depends on aspect ratio, not pixel density.
func TestPageCountScaleInvariant(t *testing.T) {
	e := NewExporter()

	small := e.PageCount(500, 2122)
	large := e.PageCount(2000, 8488)
	if small != large {
		t.Errorf("PageCount not scale-invariant: %d vs %d", small, large)
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestWriteProducesPDF(t *testing.T) {
	e := NewExporter()
	e.Scale = 1

	var buf bytes.Buffer
	if err := e.Write(testImage(100, 400), &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if buf.Len() == 0 {
		t.Fatal("Write() produced no output")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF header")
	}
}

func TestUpscaleDoublesDimensions(t *testing.T) {
	e := NewExporter()

	img := e.upscale(testImage(10, 20))
	bounds := img.Bounds()
	if bounds.Dx() != 20 || bounds.Dy() != 40 {
		t.Errorf("upscale produced %dx%d, want 20x40", bounds.Dx(), bounds.Dy())
	}
}
