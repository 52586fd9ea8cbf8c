package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

// FileStore keeps one JSON file per document under dir, named by id, plus
// a by-hash index of id pointers.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory layout if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "by-hash"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) docPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) hashPath(hash string) string {
	return filepath.Join(s.dir, "by-hash", hash)
}

// Save writes the document and updates the hash index
func (s *FileStore) Save(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !document.IsID(doc.ID) {
		return fmt.Errorf("invalid document id %q", doc.ID)
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return err
	}
	if err := writeAtomic(s.docPath(doc.ID), buf.Bytes()); err != nil {
		return err
	}
	if doc.ContentHash != nil {
		if err := writeAtomic(s.hashPath(*doc.ContentHash), []byte(doc.ID)); err != nil {
			return err
		}
	}
	return nil
}

// Get loads a document by id
func (s *FileStore) Get(ctx context.Context, id string) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !document.IsID(id) {
		return nil, ErrNotFound
	}
	doc, err := document.LoadJSON(s.docPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return doc, err
}

// FindByHash follows the hash index to the last document saved with hash
func (s *FileStore) FindByHash(ctx context.Context, hash string) (*document.Document, error) {
	if !document.IsID(hash) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.hashPath(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hash index: %w", err)
	}
	return s.Get(ctx, strings.TrimSpace(string(data)))
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

// writeAtomic replaces path through a rename so concurrent readers never
// see a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
