// Package pipeline runs an OCR provider over source files, builds the
// document tree, reuses stored results for unchanged sources and writes the
// requested outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Processor turns source files into documents.
type Processor struct {
	Provider providers.Provider
	Config   providers.Config
	Builder  *document.Builder
	// Store is optional; when set, unchanged sources are served from it
	Store   store.Store
	Outputs Outputs
	Logger  *slog.Logger
}

// Result is the outcome for one source file.
type Result struct {
	Path     string
	Document *document.Document
	Cached   bool
	// Files lists the output files written for the document
	Files []string
	Err   error
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Processor) builder() *document.Builder {
	if p.Builder != nil {
		return p.Builder
	}
	return document.NewBuilder()
}

// Process recognizes one source file. The returned error is also recorded
// in the result.
func (p *Processor) Process(ctx context.Context, sourcePath string) (*Result, error) {
	result := &Result{Path: sourcePath}
	result.Err = p.process(ctx, result)
	return result, result.Err
}

func (p *Processor) process(ctx context.Context, result *Result) error {
	log := p.logger().With("source", result.Path)

	content, err := os.ReadFile(result.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", document.ErrSourceUnreadable, err)
	}
	hash := document.HashContent(content)

	if p.Store != nil {
		result.Document, result.Cached = p.fromStore(ctx, log, result.Path, hash)
	}

	if result.Document == nil {
		log.Info("Recognizing", "provider", p.Provider.Name())
		pages, err := p.Provider.Recognize(ctx, p.Config, result.Path)
		if err != nil {
			return fmt.Errorf("%s recognition failed: %w", p.Provider.Name(), err)
		}
		if providers.TokenCount(pages) == 0 {
			log.Warn("No text extracted")
		}

		result.Document = p.builder().Build(result.Path, &hash, pages)
		log.Info("Built document", "id", result.Document.ID, "pages", len(result.Document.Pages),
			"lines", result.Document.LineCount(), "words", result.Document.WordCount())

		if p.Store != nil {
			if err := p.Store.Save(ctx, result.Document); err != nil {
				return fmt.Errorf("failed to store document: %w", err)
			}
		}
	}

	files, err := p.Outputs.Write(result.Document, result.Path)
	result.Files = files
	if err != nil {
		return err
	}
	for _, f := range files {
		log.Debug("Wrote output", "path", f)
	}
	return nil
}

// fromStore returns the stored document for path when its bytes are
// unchanged. A document stored under another path with the same content
// hash is reused for path, so copies are recognized once. Either way the
// stored words are regrouped with the current line threshold and saved
// again when the lines change.
func (p *Processor) fromStore(ctx context.Context, log *slog.Logger, path, hash string) (*document.Document, bool) {
	stored, ok, err := store.Lookup(ctx, p.Store, path, hash)
	if err != nil {
		log.Warn("Store lookup failed, recognizing again", "err", err)
		return nil, false
	}
	if ok {
		log.Debug("Using stored document", "id", stored.ID)
	} else {
		stored, err = p.Store.FindByHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return nil, false
		}
		if err != nil {
			log.Warn("Store hash lookup failed, recognizing again", "err", err)
			return nil, false
		}
		log.Info("Reusing document with identical content", "from", stored.SourcePath)
	}

	doc := p.builder().Rebuild(stored, path, &hash)
	if ok && reflect.DeepEqual(doc, stored) {
		return stored, true
	}
	if ok {
		log.Info("Regrouped stored document", "id", doc.ID, "lines", doc.LineCount(), "was", stored.LineCount())
	}
	if err := p.Store.Save(ctx, doc); err != nil {
		log.Warn("Failed to store rebuilt document", "err", err)
	}
	return doc, true
}

// ProcessAll runs Process for every path with at most workers documents in
// flight. A failed document never stops the others; results keep the input
// order and carry their own error.
func (p *Processor) ProcessAll(ctx context.Context, paths []string, workers int) []Result {
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			r, err := p.Process(ctx, path)
			if err != nil {
				p.logger().Error("Error processing document", "source", path, "err", err)
			}
			results[i] = *r
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total, Recognized, Cached, Failed int
}

// Summarize counts results by outcome.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Cached:
			s.Cached++
		default:
			s.Recognized++
		}
	}
	return s
}
