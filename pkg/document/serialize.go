package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Marshal encodes the document as indented JSON. Nil collections are
// written as empty arrays.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the document as indented JSON to w.
func Encode(w io.Writer, doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(canonical(doc))
}

// Unmarshal decodes a document. Malformed JSON, unknown fields, wrong types,
// missing or null collections and bboxes without exactly four numbers are
// reported as ErrSchemaMismatch; no partial document is returned. The tree
// invariants are not checked here; call Validate for that.
func Unmarshal(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one document from r.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, ErrSchemaMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrSchemaMismatch)
	}
	if err := doc.checkStructure(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveJSON writes the document to dir as <source stem>.json, creating dir
// if needed, and returns the written path.
func SaveJSON(doc *Document, dir string) (string, error) {
	base := filepath.Base(doc.SourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(dir, stem+".json")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return path, nil
}

// LoadJSON reads a document previously written by SaveJSON.
func LoadJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// canonical returns a shallow copy whose nil collections are empty.
func canonical(doc *Document) *Document {
	out := *doc
	if out.Pages == nil {
		out.Pages = []Page{}
	}
	pages := make([]Page, len(out.Pages))
	for i, page := range out.Pages {
		if page.Lines == nil {
			page.Lines = []Line{}
		}
		lines := make([]Line, len(page.Lines))
		for j, line := range page.Lines {
			if line.Words == nil {
				line.Words = []Word{}
			}
			lines[j] = line
		}
		page.Lines = lines
		pages[i] = page
	}
	out.Pages = pages
	return &out
}

// checkStructure rejects collections that were missing or null in the
// input.
func (d *Document) checkStructure() error {
	if d.Pages == nil {
		return schemaErr("document %s: pages missing", d.ID)
	}
	for i, page := range d.Pages {
		if page.Lines == nil {
			return schemaErr("page %d: lines missing", i)
		}
		for j, line := range page.Lines {
			if line.Words == nil {
				return schemaErr("page %d line %d: words missing", i, j)
			}
		}
	}
	return nil
}

// Validate checks the invariants of a built tree: identifier shape, box
// orientation, non-empty lines whose text and bbox follow their words, and
// page line counts. Decoding does not run it.
func (d *Document) Validate() error {
	if !IsID(d.ID) {
		return schemaErr("document id %q", d.ID)
	}
	if d.ContentHash != nil && !IsID(*d.ContentHash) {
		return schemaErr("content_hash %q", *d.ContentHash)
	}
	if err := d.checkStructure(); err != nil {
		return err
	}
	for i, page := range d.Pages {
		if err := page.validate(); err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
	}
	return nil
}

func (p Page) validate() error {
	if !IsID(p.ID) {
		return schemaErr("page id %q", p.ID)
	}
	if p.LineCount != len(p.Lines) {
		return schemaErr("page %s: line_count %d does not match %d lines", p.ID, p.LineCount, len(p.Lines))
	}
	for i, line := range p.Lines {
		if err := line.validate(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

func (l Line) validate() error {
	if !IsID(l.ID) {
		return schemaErr("line id %q", l.ID)
	}
	if len(l.Words) == 0 {
		return schemaErr("line %s has no words", l.ID)
	}
	texts := make([]string, len(l.Words))
	for i, word := range l.Words {
		if !IsID(word.ID) {
			return schemaErr("word id %q", word.ID)
		}
		if strings.TrimSpace(word.Text) == "" {
			return schemaErr("word %s has blank text", word.ID)
		}
		if err := word.BBox.validate(); err != nil {
			return fmt.Errorf("word %s: %w", word.ID, err)
		}
		texts[i] = word.Text
	}
	if got := strings.Join(texts, " "); got != l.Text {
		return schemaErr("line %s text %q does not match words %q", l.ID, l.Text, got)
	}
	if env := Envelope(l.Words); env != l.BBox {
		return schemaErr("line %s bbox %v is not the envelope %v of its words", l.ID, l.BBox, env)
	}
	return nil
}

func (b Box) validate() error {
	if b.Left() > b.Right() || b.Top() > b.Bottom() {
		return schemaErr("bbox %v is inverted", b)
	}
	return nil
}

func schemaErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSchemaMismatch}, args...)...)
}
