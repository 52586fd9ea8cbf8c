package hocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

var charsetPattern = regexp.MustCompile(`(?i)charset=["']?([a-z0-9_-]+)`)

// Parse reads the pages and words of an hOCR document. Files declaring a
// non UTF-8 charset are decoded as ISO-8859-1.
func Parse(data []byte) ([]ParsedPage, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hocr: %w", err)
	}

	var pages []ParsedPage
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			pages = append(pages, processPage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(root)

	if len(pages) == 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hocr data")
	}
	return pages, nil
}

func decode(data []byte) ([]byte, error) {
	m := charsetPattern.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	switch strings.ToLower(string(m[1])) {
	case "utf-8", "utf8":
		return data, nil
	default:
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", m[1], err)
		}
		return decoded, nil
	}
}

func processPage(n *html.Node) ParsedPage {
	page := ParsedPage{ID: attr(n, "id"), Words: []ParsedWord{}}
	if bbox, ok := ParseBBox(attr(n, "title")); ok {
		page.BBox = bbox
	}

	var findWords func(*html.Node)
	findWords = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocrx_word") {
			if word, ok := processWord(c); ok {
				page.Words = append(page.Words, word)
			}
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			findWords(child)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findWords(c)
	}
	return page
}

func processWord(n *html.Node) (ParsedWord, bool) {
	title := attr(n, "title")
	bbox, ok := ParseBBox(title)
	if !ok {
		return ParsedWord{}, false
	}

	word := ParsedWord{ID: attr(n, "id"), BBox: bbox, Text: textContent(n)}
	if conf, ok := ParseTitle(title)["x_wconf"]; ok && len(conf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}
	return word, true
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBBox extracts the bbox property of a title attribute.
func ParseBBox(title string) (document.Box, bool) {
	values, ok := ParseTitle(title)["bbox"]
	if !ok || len(values) < 4 {
		return document.Box{}, false
	}
	var box document.Box
	for i := range box {
		v, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return document.Box{}, false
		}
		box[i] = v
	}
	return box, true
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Provider reads word boxes from an existing hOCR file, one token page per
// ocr_page.
type Provider struct{}

// New creates a new hOCR provider
func New() *Provider {
	return &Provider{}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "hocr"
}

// ValidateConfig requires the hOCR file path in TokensFile
func (p *Provider) ValidateConfig(config providers.Config) error {
	if config.TokensFile == "" {
		return fmt.Errorf("hocr provider requires an hocr file")
	}
	return nil
}

// Recognize returns the tokens of every page in the hOCR file
func (p *Provider) Recognize(ctx context.Context, config providers.Config, sourcePath string) ([][]document.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(config.TokensFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read hocr file: %w", err)
	}

	pages, err := Parse(data)
	if err != nil {
		return nil, err
	}

	result := make([][]document.Token, 0, len(pages))
	for _, page := range pages {
		result = append(result, page.Tokens())
	}
	return result, nil
}
