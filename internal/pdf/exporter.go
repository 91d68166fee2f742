package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/go-pdf/fpdf"
)

// A4 page geometry in millimetres
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
)

// Exporter paginates a rendered view bitmap into an A4 document: the
// bitmap is placed full-width on successive pages at decreasing vertical
// offsets so each page shows its slice, clipped by page geometry.
type Exporter struct {
	// Scale is the capture upscale factor applied before encoding.
	// Pagination is scale-invariant since width and height scale together.
	Scale int
}

// NewExporter returns an exporter with the default 2x capture scale
func NewExporter() *Exporter {
	return &Exporter{Scale: 2}
}

// PageCount returns how many A4 pages a bitmap of the given pixel size
// spans when placed at full page width.
func (e *Exporter) PageCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}

	renderedHeightMM := float64(height) * pageWidthMM / float64(width)
	pages := int(math.Ceil(renderedHeightMM / pageHeightMM))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Write paginates img into a PDF document written to w. No partial
// output is produced: any failure propagates before bytes are written.
func (e *Exporter) Write(img image.Image, w io.Writer) error {
	scaled := e.upscale(img)
	bounds := scaled.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("empty image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	renderedHeightMM := float64(height) * pageWidthMM / float64(width)
	pages := e.PageCount(width, height)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("view", opts, &buf)

	for page := 0; page < pages; page++ {
		doc.AddPage()
		offset := -float64(page) * pageHeightMM
		doc.ImageOptions("view", 0, offset, pageWidthMM, renderedHeightMM, false, opts, 0, "")
	}
	if doc.Err() {
		return fmt.Errorf("failed to build document: %w", doc.Error())
	}

	return doc.Output(w)
}

// Export writes the paginated document to the named file
func (e *Exporter) Export(img image.Image, filename string) error {
	var buf bytes.Buffer
	if err := e.Write(img, &buf); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}

// upscale enlarges img by the capture scale using nearest-neighbour
// sampling. A scale of 1 or less returns the image unchanged.
func (e *Exporter) upscale(img image.Image) image.Image {
	if e.Scale <= 1 {
		return img
	}

	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*e.Scale, bounds.Dy()*e.Scale))
	for y := 0; y < bounds.Dy()*e.Scale; y++ {
		srcY := bounds.Min.Y + y/e.Scale
		for x := 0; x < bounds.Dx()*e.Scale; x++ {
			out.Set(x, y, img.At(bounds.Min.X+x/e.Scale, srcY))
		}
	}
	return out
}
