// Package document reconstructs a hierarchical document model
// (words, lines, pages, document) from per-token OCR output.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Box is the compact [left, top, right, bottom] form of a bounding box.
type Box [4]float64

func (b Box) Left() float64   { return b[0] }
func (b Box) Top() float64    { return b[1] }
func (b Box) Right() float64  { return b[2] }
func (b Box) Bottom() float64 { return b[3] }

// UnmarshalJSON accepts exactly four numbers.
func (b *Box) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("%w: bbox: %v", ErrSchemaMismatch, err)
	}
	if len(coords) != len(b) {
		return fmt.Errorf("%w: bbox must have 4 coordinates, got %d", ErrSchemaMismatch, len(coords))
	}
	copy(b[:], coords)
	return nil
}

// Word is a single recognized word.
type Word struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	BBox Box    `json:"bbox"`
}

// Line is a group of words in left-to-right reading order.
type Line struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	BBox  Box    `json:"bbox"`
	Words []Word `json:"words"`
}

// Page holds lines in top-to-bottom reading order.
type Page struct {
	ID        string `json:"id"`
	Lines     []Line `json:"lines"`
	LineCount int    `json:"line_count"`
}

// Document is the root of the tree built from one OCR run.
type Document struct {
	ID          string  `json:"id"`
	SourcePath  string  `json:"source_path"`
	ContentHash *string `json:"content_hash"`
	Pages       []Page  `json:"pages"`
}

// Text returns the page's lines separated by newlines.
func (p Page) Text() string {
	texts := make([]string, 0, len(p.Lines))
	for _, line := range p.Lines {
		texts = append(texts, line.Text)
	}
	return strings.Join(texts, "\n")
}

// Text returns the text of every page, pages separated by a blank line.
func (d *Document) Text() string {
	texts := make([]string, 0, len(d.Pages))
	for _, page := range d.Pages {
		texts = append(texts, page.Text())
	}
	return strings.Join(texts, "\n\n")
}

// LineCount counts lines across all pages.
func (d *Document) LineCount() int {
	n := 0
	for _, page := range d.Pages {
		n += len(page.Lines)
	}
	return n
}

// WordCount counts words across all pages.
func (d *Document) WordCount() int {
	n := 0
	for _, page := range d.Pages {
		for _, line := range page.Lines {
			n += len(line.Words)
		}
	}
	return n
}

// Words returns every word of the document in reading order.
func (d *Document) Words() []Word {
	var words []Word
	for _, page := range d.Pages {
		for _, line := range page.Lines {
			words = append(words, line.Words...)
		}
	}
	return words
}
