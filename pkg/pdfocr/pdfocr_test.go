package pdfocr

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"golang.org/x/image/tiff"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func encoded(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sampleDocument() *document.Document {
	return document.NewBuilder().Build("scan.png", nil, [][]document.Token{
		{
			document.TokenFromBox(10, 10, 60, 30, "Hello"),
			document.TokenFromBox(70, 12, 120, 30, "Wörld"),
			document.TokenFromBox(10, 60, 60, 80, "日本"),
		},
		{
			document.TokenFromBox(10, 10, 60, 30, "Second"),
		},
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		encode func(*bytes.Buffer, image.Image) error
	}{
		{"png", func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }},
		{"jpeg", func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) }},
		{"tiff", func(b *bytes.Buffer, img image.Image) error { return tiff.Encode(b, img, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Compress = false

			out, err := Render(sampleDocument(), encoded(t, tt.encode), config)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF-")) {
				t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
			}

			content := string(out)
			for _, want := range []string{"(Hello) Tj", "(Second) Tj", "(??) Tj", "/MediaBox [0 0 200.00 100.00]"} {
				if !strings.Contains(content, want) {
					t.Errorf("PDF missing %q", want)
				}
			}
			if !strings.Contains(content, "(W\xf6rld)") {
				t.Error("PDF missing Latin-1 encoded word")
			}
		})
	}
}

func TestRenderScalesByDPI(t *testing.T) {
	config := DefaultConfig()
	config.Compress = false
	config.DPI = 144

	out, err := Render(sampleDocument(), encoded(t, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }), config)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(out), "/MediaBox [0 0 100.00 50.00]") {
		t.Error("expected page size halved at 144 dpi")
	}
}

func TestRenderRejectsNonImage(t *testing.T) {
	_, err := Render(sampleDocument(), []byte("%PDF-1.4 not an image"), DefaultConfig())
	if !errors.Is(err, document.ErrSourceUnreadable) {
		t.Errorf("expected ErrSourceUnreadable, got %v", err)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(source, encoded(t, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }), 0o644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "out", "scan.pdf")
	if err := Write(sampleDocument(), source, output, DefaultConfig()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("written file is not a PDF")
	}

	err = Write(sampleDocument(), filepath.Join(dir, "missing.png"), output, DefaultConfig())
	if !errors.Is(err, document.ErrSourceUnreadable) {
		t.Errorf("expected ErrSourceUnreadable, got %v", err)
	}
}

func TestLatin1(t *testing.T) {
	tests := map[string]string{
		"plain": "plain",
		"café":  "caf\xe9",
		"a→b":   "a?b",
		"":      "",
	}
	for in, want := range tests {
		if got := latin1(in); got != want {
			t.Errorf("latin1(%q) = %q, want %q", in, got, want)
		}
	}
}
