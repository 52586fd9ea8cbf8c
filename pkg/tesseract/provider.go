package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"github.com/otiai10/gosseract/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Provider runs a local Tesseract installation through gosseract
type Provider struct {
	clientFactory func() *gosseract.Client
}

// New creates a new Tesseract provider
func New() *Provider {
	return &Provider{clientFactory: gosseract.NewClient}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "tesseract"
}

// ValidateConfig validates the Tesseract configuration
func (p *Provider) ValidateConfig(config providers.Config) error {
	if config.PageSegMode < 0 || config.PageSegMode > 13 {
		return fmt.Errorf("invalid page segmentation mode %d", config.PageSegMode)
	}
	if config.DPI < 0 {
		return fmt.Errorf("invalid dpi %d", config.DPI)
	}
	return nil
}

// Recognize returns the word level tokens of a single image
func (p *Provider) Recognize(ctx context.Context, config providers.Config, sourcePath string) ([][]document.Token, error) {
	gray, err := grayscalePNG(sourcePath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := p.clientFactory()
	defer client.Close()

	if err := configure(client, config); err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(gray); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	return [][]document.Token{boxesToTokens(boxes)}, nil
}

func configure(client *gosseract.Client, config providers.Config) error {
	if len(config.Languages) > 0 {
		if err := client.SetLanguage(config.Languages...); err != nil {
			return fmt.Errorf("set languages: %w", err)
		}
	}
	if config.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(config.PageSegMode)); err != nil {
			return fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if config.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(config.DPI)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	return nil
}

// grayscalePNG decodes the source and re-encodes it as an 8-bit grayscale
// PNG. Pixel coordinates are unchanged.
func grayscalePNG(sourcePath string) ([]byte, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", document.ErrSourceUnreadable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", document.ErrSourceUnreadable, sourcePath, err)
	}

	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode grayscale image: %w", err)
	}
	return buf.Bytes(), nil
}

func boxesToTokens(boxes []gosseract.BoundingBox) []document.Token {
	tokens := make([]document.Token, 0, len(boxes))
	for _, b := range boxes {
		tokens = append(tokens, document.Token{
			Left:   float64(b.Box.Min.X),
			Top:    float64(b.Box.Min.Y),
			Width:  float64(b.Box.Dx()),
			Height: float64(b.Box.Dy()),
			Text:   b.Word,
		})
	}
	return tokens
}
