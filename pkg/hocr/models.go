package hocr

import "github.com/lehigh-university-libraries/ocrdoc/pkg/document"

// ParsedPage is one ocr_page of an hOCR file.
type ParsedPage struct {
	ID    string
	BBox  document.Box
	Words []ParsedWord
}

// ParsedWord is one ocrx_word with its bbox title property.
type ParsedWord struct {
	ID         string
	BBox       document.Box
	Text       string
	Confidence float64
}

// Tokens converts the parsed words into engine tokens.
func (p ParsedPage) Tokens() []document.Token {
	tokens := make([]document.Token, 0, len(p.Words))
	for _, w := range p.Words {
		tokens = append(tokens, document.TokenFromBox(w.BBox.Left(), w.BBox.Top(), w.BBox.Right(), w.BBox.Bottom(), w.Text))
	}
	return tokens
}
