// Package pdfocr assembles a searchable PDF from a source image and its
// recognized document. Each document page becomes a PDF page sized to the
// image; the image is drawn on the first page and every word is placed on a
// hidden text layer at its bounding box, so the text can be searched and
// selected.
package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/encoding/charmap"
)

// Write renders the PDF for doc and writes it to outputPath.
func Write(doc *document.Document, sourceImage, outputPath string, config Config) error {
	data, err := os.ReadFile(sourceImage)
	if err != nil {
		return fmt.Errorf("%w: %w", document.ErrSourceUnreadable, err)
	}

	pdfBytes, err := Render(doc, data, config)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// Render builds the PDF in memory from the source image bytes.
func Render(doc *document.Document, imageData []byte, config Config) ([]byte, error) {
	imageData, imageType, width, height, err := prepareImage(imageData)
	if err != nil {
		return nil, err
	}
	if config.DPI <= 0 {
		config.DPI = 72
	}
	if config.Font.Name == "" {
		config.Font = DefaultFont
	}

	scale := 72 / config.DPI
	w, h := float64(width)*scale, float64(height)*scale

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetCompression(config.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("ocrdoc", true)
	pdf.SetTitle(filepath.Base(doc.SourcePath), true)

	pages := doc.Pages
	if len(pages) == 0 {
		pages = []document.Page{{Lines: []document.Line{}}}
	}

	transform := func(x, y float64) (float64, float64) {
		return x * scale, y * scale
	}

	for i, page := range pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		if i == 0 {
			opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
			pdf.RegisterImageOptionsReader("source", opts, bytes.NewReader(imageData))
			pdf.ImageOptions("source", 0, 0, w, h, false, opts, 0, "")
		}

		drawTextLayer(pdf, page, config, i+1, transform)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// prepareImage returns image data fpdf can embed. PNG, JPEG and GIF are
// passed through; other decodable formats are re-encoded as PNG.
func prepareImage(data []byte) ([]byte, string, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("%w: decode image config: %w", document.ErrSourceUnreadable, err)
	}

	switch format {
	case "png", "jpeg", "gif":
		imageType := strings.ToUpper(format)
		if format == "jpeg" {
			imageType = "JPG"
		}
		return data, imageType, cfg.Width, cfg.Height, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("%w: decode %s image: %w", document.ErrSourceUnreadable, format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", 0, 0, fmt.Errorf("failed to re-encode %s image: %w", format, err)
	}
	return buf.Bytes(), "PNG", cfg.Width, cfg.Height, nil
}

// drawTextLayer draws the words of a page onto a per-page layer
func drawTextLayer(pdf *fpdf.Fpdf, page document.Page, config Config, pageNum int, transform func(x, y float64) (float64, float64)) {
	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", config.LayerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(config.Font.Name, config.Font.Style, config.Font.Size)

	if config.Debug {
		pdf.SetTextColor(255, 0, 0)
		pdf.SetDrawColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal")
	}

	for _, line := range page.Lines {
		for _, word := range line.Words {
			drawWord(pdf, word, config, transform)
		}
	}

	if !config.Debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()
}

// drawWord scales the font so the word spans its box width
func drawWord(pdf *fpdf.Fpdf, word document.Word, config Config, transform func(x, y float64) (float64, float64)) {
	x, y := transform(word.BBox.Left(), word.BBox.Top())
	x2, y2 := transform(word.BBox.Right(), word.BBox.Bottom())
	wordWidth := x2 - x

	text := latin1(word.Text)
	if strWidth := pdf.GetStringWidth(text); strWidth > 0 && wordWidth > 0 {
		pdf.SetFontSize(config.Font.Size * wordWidth / strWidth)
	}

	fontSize, _ := pdf.GetFontSize()
	pdf.Text(x, y+fontSize*config.Font.AscentRatio, text)
	pdf.SetFontSize(config.Font.Size)

	if config.Debug {
		pdf.Rect(x, y, wordWidth, y2-y, "D")
	}
}

// latin1 converts text for the core fonts; characters outside ISO-8859-1
// become '?'.
func latin1(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
	out, err := charmap.ISO8859_1.NewEncoder().String(mapped)
	if err != nil {
		return s
	}
	return out
}
