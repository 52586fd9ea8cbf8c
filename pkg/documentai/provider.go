package documentai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
)

// Provider implements the Google Document AI OCR provider
type Provider struct{}

// New creates a new Document AI provider
func New() *Provider {
	return &Provider{}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "documentai"
}

// ValidateConfig validates the Document AI configuration
func (p *Provider) ValidateConfig(config providers.Config) error {
	if config.TokensFile != "" {
		return nil
	}
	if config.ProjectID == "" {
		return fmt.Errorf("documentai project id is required")
	}
	if config.Location == "" {
		return fmt.Errorf("documentai location is required")
	}
	if config.ProcessorID == "" {
		return fmt.Errorf("documentai processor id is required")
	}
	return nil
}

// Recognize sends the source to the configured processor and returns one
// token list per page. A saved Document JSON in TokensFile is read instead
// when set.
func (p *Provider) Recognize(ctx context.Context, config providers.Config, sourcePath string) ([][]document.Token, error) {
	if config.TokensFile != "" {
		doc, err := ReadDocumentFile(config.TokensFile)
		if err != nil {
			return nil, err
		}
		return TokensFromDocument(doc), nil
	}

	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", document.ErrSourceUnreadable, err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	doc, err := processDocument(ctx, config, content, MimeType(sourcePath))
	if err != nil {
		return nil, err
	}
	return TokensFromDocument(doc), nil
}

func processDocument(ctx context.Context, config providers.Config, content []byte, mimeType string) (*documentaipb.Document, error) {
	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)),
	}
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	req := &documentaipb.ProcessRequest{
		Name: ProcessorName(config),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.GetDocument(), nil
}

// ProcessorName builds the resource name of the configured processor.
func ProcessorName(config providers.Config) string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", config.ProjectID, config.Location, config.ProcessorID)
}

// MimeType maps a file extension to the mime type Document AI expects.
func MimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// ReadDocumentFile loads a Document proto saved as JSON.
func ReadDocumentFile(path string) (*documentaipb.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document ai response: %w", err)
	}
	doc := &documentaipb.Document{}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse document ai response: %w", err)
	}
	return doc, nil
}
