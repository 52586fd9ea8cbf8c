package providers

import (
	"context"
	"time"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

// Config represents the configuration for an OCR provider
type Config struct {
	Provider  string
	Languages []string
	// DPI is passed to engines that use it for layout heuristics; zero means unknown
	DPI int
	// PageSegMode selects the Tesseract page segmentation mode; zero keeps the engine default
	PageSegMode int
	Timeout     time.Duration

	// TokensFile is the pre-computed OCR output read by the file based providers
	TokensFile string

	// CredentialsFile is a Google service account key used by the cloud providers.
	// Application default credentials are used when empty.
	CredentialsFile string

	ProjectID   string
	Location    string
	ProcessorID string
}

// Provider is implemented by every OCR engine. Recognize returns one token
// list per page of the source, in page order.
type Provider interface {
	// Recognize runs OCR on the source file
	Recognize(ctx context.Context, config Config, sourcePath string) ([][]document.Token, error)
	// Name returns the provider's name
	Name() string
	// ValidateConfig validates the provider-specific configuration
	ValidateConfig(config Config) error
}

// TokenCount sums the tokens of every page.
func TokenCount(pages [][]document.Token) int {
	n := 0
	for _, page := range pages {
		n += len(page)
	}
	return n
}
