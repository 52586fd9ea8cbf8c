package vision

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

// ReadResponseFile loads a saved images:annotate JSON response and returns
// one token list per annotated page.
func ReadResponseFile(path string) ([][]document.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vision response: %w", err)
	}

	var response OCRResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}
	return TokensFromResponse(response)
}

// TokensFromResponse converts the REST response shape into tokens.
func TokensFromResponse(response OCRResponse) ([][]document.Token, error) {
	var pages [][]document.Token
	for _, r := range response.Responses {
		if r.Error != nil && r.Error.Message != "" {
			return nil, fmt.Errorf("vision API error %d: %s", r.Error.Code, r.Error.Message)
		}
		if r.FullTextAnnotation == nil {
			continue
		}
		for _, page := range r.FullTextAnnotation.Pages {
			tokens := []document.Token{}
			for _, block := range page.Blocks {
				for _, paragraph := range block.Paragraphs {
					for _, word := range paragraph.Words {
						var text strings.Builder
						for _, symbol := range word.Symbols {
							text.WriteString(symbol.Text)
						}
						if tok, ok := tokenFromVertices(word.BoundingBox.Vertices, text.String()); ok {
							tokens = append(tokens, tok)
						}
					}
				}
			}
			pages = append(pages, tokens)
		}
	}
	if len(pages) == 0 {
		pages = [][]document.Token{{}}
	}
	return pages, nil
}

// TokensFromAnnotation converts a client library annotation into tokens.
func TokensFromAnnotation(annotation *visionpb.TextAnnotation) [][]document.Token {
	var pages [][]document.Token
	for _, page := range annotation.GetPages() {
		tokens := []document.Token{}
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					var text strings.Builder
					for _, symbol := range word.GetSymbols() {
						text.WriteString(symbol.GetText())
					}
					vertices := make([]Vertex, 0, len(word.GetBoundingBox().GetVertices()))
					for _, v := range word.GetBoundingBox().GetVertices() {
						vertices = append(vertices, Vertex{X: int(v.GetX()), Y: int(v.GetY())})
					}
					if tok, ok := tokenFromVertices(vertices, text.String()); ok {
						tokens = append(tokens, tok)
					}
				}
			}
		}
		pages = append(pages, tokens)
	}
	if len(pages) == 0 {
		pages = [][]document.Token{{}}
	}
	return pages
}

// tokenFromVertices takes the axis-aligned envelope of a polygon. Vision
// reports rotated words with their vertices in reading order, so the
// envelope is used rather than assuming vertex 0 is the top-left corner.
func tokenFromVertices(vertices []Vertex, text string) (document.Token, bool) {
	if len(vertices) == 0 {
		return document.Token{}, false
	}

	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, v := range vertices {
		minX = min(minX, v.X)
		minY = min(minY, v.Y)
		maxX = max(maxX, v.X)
		maxY = max(maxY, v.Y)
	}

	return document.TokenFromBox(float64(minX), float64(minY), float64(maxX), float64(maxY), text), true
}
