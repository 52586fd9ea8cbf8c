// Package tokenfile reads pre-computed OCR tokens from JSON or YAML files.
//
// A file holds either a flat list of tokens, read as a single page:
//
//	- {left: 10, top: 100, width: 30, height: 22, text: Hello}
//
// or a mapping with one token list per page:
//
//	pages:
//	  - - {left: 10, top: 100, width: 30, height: 22, text: Hello}
//	  - []
package tokenfile

import (
	"context"
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"go.yaml.in/yaml/v3"
)

type pagedFile struct {
	Pages [][]document.Token `yaml:"pages"`
}

// Read parses a token file. JSON input is accepted since it is valid YAML.
func Read(path string) ([][]document.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens file: %w", err)
	}
	return Parse(data)
}

// Parse decodes token file contents.
func Parse(data []byte) ([][]document.Token, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse tokens file: %w", err)
	}
	if len(root.Content) == 0 {
		return [][]document.Token{{}}, nil
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		tokens := []document.Token{}
		if err := node.Decode(&tokens); err != nil {
			return nil, fmt.Errorf("failed to decode tokens: %w", err)
		}
		return [][]document.Token{tokens}, nil
	case yaml.MappingNode:
		var file pagedFile
		if err := node.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to decode token pages: %w", err)
		}
		if len(file.Pages) == 0 {
			return [][]document.Token{{}}, nil
		}
		for i := range file.Pages {
			if file.Pages[i] == nil {
				file.Pages[i] = []document.Token{}
			}
		}
		return file.Pages, nil
	default:
		return nil, fmt.Errorf("tokens file must hold a list or a pages mapping")
	}
}

// Provider replays a tokens file as OCR output.
type Provider struct{}

// New creates a new token file provider
func New() *Provider {
	return &Provider{}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "tokens"
}

// ValidateConfig requires a tokens file
func (p *Provider) ValidateConfig(config providers.Config) error {
	if config.TokensFile == "" {
		return fmt.Errorf("tokens provider requires a tokens file")
	}
	return nil
}

// Recognize ignores the source image and returns the file's tokens
func (p *Provider) Recognize(ctx context.Context, config providers.Config, sourcePath string) ([][]document.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Read(config.TokensFile)
}
