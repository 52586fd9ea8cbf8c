// Package annotate draws a document's word boxes onto its source image.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Green is the outline color used for word boxes.
var Green = color.RGBA{R: 0, G: 128, B: 0, A: 255}

// Options controls what gets drawn.
type Options struct {
	Color color.Color
	// LineColor outlines each line envelope when LineBoxes is set
	LineColor color.Color
	LineBoxes bool
}

// DefaultOptions draws green word outlines only.
func DefaultOptions() Options {
	return Options{Color: Green, LineColor: color.RGBA{R: 0, G: 0, B: 255, A: 255}}
}

// Annotate writes a copy of sourceImage with a 1 px outline around every
// word to outputDir/<base name of sourceImage> and returns the written path.
func Annotate(doc *document.Document, sourceImage, outputDir string) (string, error) {
	return AnnotateWithOptions(doc, sourceImage, outputDir, DefaultOptions())
}

// AnnotateWithOptions is Annotate with explicit drawing options.
func AnnotateWithOptions(doc *document.Document, sourceImage, outputDir string, opts Options) (string, error) {
	src, err := decode(sourceImage)
	if err != nil {
		return "", err
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	if opts.Color == nil {
		opts.Color = Green
	}
	for _, page := range doc.Pages {
		for _, line := range page.Lines {
			if opts.LineBoxes && opts.LineColor != nil {
				outline(canvas, line.BBox, opts.LineColor)
			}
			for _, word := range line.Words {
				outline(canvas, word.BBox, opts.Color)
			}
		}
	}

	outputPath, encode := output(sourceImage, outputDir)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", document.ErrAnnotationIO, err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", document.ErrAnnotationIO, err)
	}
	if err := encode(f, canvas); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: encode %s: %w", document.ErrAnnotationIO, outputPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", document.ErrAnnotationIO, err)
	}
	return outputPath, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", document.ErrSourceUnreadable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", document.ErrSourceUnreadable, path, err)
	}
	return img, nil
}

type encoder func(io.Writer, image.Image) error

// output picks the file path and encoder from the source extension. Formats
// without an encoder are written as PNG under a .png extension.
func output(sourceImage, outputDir string) (string, encoder) {
	base := filepath.Base(sourceImage)
	ext := strings.ToLower(filepath.Ext(base))

	var enc encoder
	switch ext {
	case ".png":
		enc = png.Encode
	case ".jpg", ".jpeg":
		enc = func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}
	case ".gif":
		enc = func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}
	case ".tif", ".tiff":
		enc = func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".bmp":
		enc = bmp.Encode
	default:
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
		enc = png.Encode
	}
	return filepath.Join(outputDir, base), enc
}

// outline draws the border of box, corners inclusive, clipped to the image.
// Coordinates are truncated to whole pixels. Boxes with NaN coordinates are
// skipped.
func outline(img *image.RGBA, box document.Box, c color.Color) {
	for _, v := range box {
		if math.IsNaN(v) {
			return
		}
	}
	b := img.Bounds()
	x1, x2 := pixel(box.Left(), b.Min.X, b.Max.X), pixel(box.Right(), b.Min.X, b.Max.X)
	y1, y2 := pixel(box.Top(), b.Min.Y, b.Max.Y), pixel(box.Bottom(), b.Min.Y, b.Max.Y)

	for x := max(x1, b.Min.X); x <= min(x2, b.Max.X-1); x++ {
		setClipped(img, b, x, y1, c)
		setClipped(img, b, x, y2, c)
	}
	for y := max(y1, b.Min.Y); y <= min(y2, b.Max.Y-1); y++ {
		setClipped(img, b, x1, y, c)
		setClipped(img, b, x2, y, c)
	}
}

// pixel truncates v to a pixel index pinned to [lo-1, hi], so an edge past
// the image stays just outside it.
func pixel(v float64, lo, hi int) int {
	return int(min(max(v, float64(lo-1)), float64(hi)))
}

func setClipped(img *image.RGBA, b image.Rectangle, x, y int, c color.Color) {
	if image.Pt(x, y).In(b) {
		img.Set(x, y, c)
	}
}
