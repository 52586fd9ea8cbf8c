package document

import (
	"fmt"
	"os"
)

// Builder assembles documents from per-page token lists.
// The zero value is not usable; use NewBuilder.
type Builder struct {
	LineThreshold float64
}

// Option configures a Builder.
type Option func(*Builder)

// WithLineThreshold overrides the vertical clustering tolerance.
// Non-positive values are ignored.
func WithLineThreshold(threshold float64) Option {
	return func(b *Builder) {
		if threshold > 0 {
			b.LineThreshold = threshold
		}
	}
}

// NewBuilder returns a Builder using DefaultLineThreshold unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{LineThreshold: DefaultLineThreshold}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildPage normalizes tokens, drops blank ones and clusters the remaining
// words into lines. An empty token list yields a page with no lines.
func (b *Builder) BuildPage(sourcePath string, pageIndex int, tokens []Token) Page {
	pageID := PageID(sourcePath, pageIndex)

	words := make([]Word, 0, len(tokens))
	for _, token := range tokens {
		bbox, text, ok := Normalize(token)
		if !ok {
			continue
		}
		words = append(words, NewWord(pageID, bbox, text))
	}

	lines := ClusterLines(pageID, words, b.LineThreshold)
	return Page{
		ID:        pageID,
		Lines:     lines,
		LineCount: len(lines),
	}
}

// Build assembles a document with one page per token list.
func (b *Builder) Build(sourcePath string, contentHash *string, pages [][]Token) *Document {
	doc := &Document{
		ID:          DocumentID(sourcePath),
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		Pages:       make([]Page, 0, len(pages)),
	}
	for i, tokens := range pages {
		doc.Pages = append(doc.Pages, b.BuildPage(sourcePath, i, tokens))
	}
	return doc
}

// Rebuild re-keys doc for sourcePath and regroups its words into lines
// with the builder's threshold. Word texts and boxes are carried over
// exactly and the page count is kept.
func (b *Builder) Rebuild(doc *Document, sourcePath string, contentHash *string) *Document {
	out := &Document{
		ID:          DocumentID(sourcePath),
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		Pages:       make([]Page, 0, len(doc.Pages)),
	}
	for i, page := range doc.Pages {
		pageID := PageID(sourcePath, i)
		words := []Word{}
		for _, line := range page.Lines {
			for _, w := range line.Words {
				words = append(words, Word{
					ID:   WordID(pageID, w.BBox.Left(), w.BBox.Top(), w.Text),
					Text: w.Text,
					BBox: w.BBox,
				})
			}
		}
		lines := ClusterLines(pageID, words, b.LineThreshold)
		out.Pages = append(out.Pages, Page{ID: pageID, Lines: lines, LineCount: len(lines)})
	}
	return out
}

// BuildFromFile hashes the source file and assembles the document.
func (b *Builder) BuildFromFile(sourcePath string, pages [][]Token) (*Document, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	hash := HashContent(data)
	return b.Build(sourcePath, &hash, pages), nil
}
