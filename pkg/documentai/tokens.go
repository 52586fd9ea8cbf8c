package documentai

import (
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

// TokensFromDocument converts every page's tokens into pixel-space tokens.
func TokensFromDocument(doc *documentaipb.Document) [][]document.Token {
	pages := make([][]document.Token, 0, len(doc.GetPages()))
	for _, page := range doc.GetPages() {
		tokens := make([]document.Token, 0, len(page.GetTokens()))
		for _, token := range page.GetTokens() {
			text := strings.TrimRight(textFromLayout(token.GetLayout(), doc.GetText()), " \t\r\n")
			tok, ok := tokenFromPoly(token.GetLayout().GetBoundingPoly(), page.GetDimension(), text)
			if !ok {
				continue
			}
			tokens = append(tokens, tok)
		}
		pages = append(pages, tokens)
	}
	if len(pages) == 0 {
		pages = [][]document.Token{{}}
	}
	return pages
}

// tokenFromPoly prefers pixel vertices and falls back to normalized
// vertices scaled by the page dimension.
func tokenFromPoly(poly *documentaipb.BoundingPoly, dim *documentaipb.Document_Page_Dimension, text string) (document.Token, bool) {
	var xs, ys []float64
	switch {
	case len(poly.GetVertices()) > 0:
		for _, v := range poly.GetVertices() {
			xs = append(xs, float64(v.GetX()))
			ys = append(ys, float64(v.GetY()))
		}
	case len(poly.GetNormalizedVertices()) > 0 && dim != nil:
		for _, v := range poly.GetNormalizedVertices() {
			xs = append(xs, math.Round(float64(v.GetX())*float64(dim.GetWidth())))
			ys = append(ys, math.Round(float64(v.GetY())*float64(dim.GetHeight())))
		}
	default:
		return document.Token{}, false
	}

	x1, x2 := bounds(xs)
	y1, y2 := bounds(ys)
	return document.TokenFromBox(x1, y1, x2, y2, text), true
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// textFromLayout extracts text from a layout's text anchor segments
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout.GetTextAnchor() == nil {
		return ""
	}
	runes := []rune(fullText)
	total := len(runes)

	var result strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start := int(seg.GetStartIndex())
		end := int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if start > end {
			start = end
		}
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}
