package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
)

// Provider implements the Google Cloud Vision OCR provider
type Provider struct {
	responseDir string
}

// Option configures the Vision provider
type Option func(*Provider)

// WithResponseDir keeps a JSON copy of every raw API response in dir.
func WithResponseDir(dir string) Option {
	return func(p *Provider) {
		p.responseDir = dir
	}
}

// New creates a new Google Cloud Vision provider
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "vision"
}

// ValidateConfig validates the Google Cloud Vision configuration. When
// TokensFile is set the provider replays a saved response instead of
// calling the API.
func (p *Provider) ValidateConfig(config providers.Config) error {
	if config.TokensFile != "" {
		return nil
	}
	if config.CredentialsFile != "" {
		if _, err := os.Stat(config.CredentialsFile); err != nil {
			return fmt.Errorf("credentials file: %w", err)
		}
	}
	return nil
}

// Recognize runs DOCUMENT_TEXT_DETECTION on a single image
func (p *Provider) Recognize(ctx context.Context, config providers.Config, sourcePath string) ([][]document.Token, error) {
	if config.TokensFile != "" {
		return ReadResponseFile(config.TokensFile)
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

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	defer client.Close()

	resp, err := client.BatchAnnotateImages(ctx, buildRequest(content, config.Languages))
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}

	if p.responseDir != "" {
		if _, err := DumpResponse(resp, p.responseDir, sourcePath); err != nil {
			return nil, err
		}
	}

	if len(resp.GetResponses()) == 0 {
		return [][]document.Token{{}}, nil
	}
	r := resp.GetResponses()[0]
	if r.GetError().GetMessage() != "" {
		return nil, fmt.Errorf("vision API error %d: %s", r.GetError().GetCode(), r.GetError().GetMessage())
	}
	if r.GetFullTextAnnotation() == nil {
		return [][]document.Token{{}}, nil
	}
	return TokensFromAnnotation(r.GetFullTextAnnotation()), nil
}

func buildRequest(content []byte, languages []string) *visionpb.BatchAnnotateImagesRequest {
	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: content},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	if len(languages) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: languages}
	}
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	}
}

// DumpResponse writes the raw response as indented JSON to
// dir/<source stem>.vision.json and returns the written path.
func DumpResponse(resp *visionpb.BatchAnnotateImagesResponse, dir, sourcePath string) (string, error) {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vision response: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create response dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	path := filepath.Join(dir, stem+".vision.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write vision response: %w", err)
	}
	return path, nil
}
