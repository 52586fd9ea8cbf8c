// Package store persists recognized documents so unchanged sources are not
// recognized twice. Every backend stores the serializer's JSON, so loaded
// documents go through the same strict decoding as files on disk.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

// ErrNotFound is returned when no document matches the lookup.
var ErrNotFound = errors.New("document not found")

// Store is implemented by every document backend.
type Store interface {
	// Save creates or replaces the document with the same id
	Save(ctx context.Context, doc *document.Document) error
	// Get returns the document with the given id
	Get(ctx context.Context, id string) (*document.Document, error)
	// FindByHash returns the most recently saved document with the given content hash
	FindByHash(ctx context.Context, hash string) (*document.Document, error)
	Close() error
}

// Open picks a backend from the URL scheme: redis:// and rediss:// use
// Redis, postgres:// and postgresql:// use PostgreSQL, and anything else
// (optionally prefixed with file://) is a directory for FileStore.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("empty store url")
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return OpenRedis(ctx, url)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, DefaultPostgresConfig(url))
	default:
		return NewFileStore(strings.TrimPrefix(url, "file://"))
	}
}

// Lookup returns the stored document for sourcePath when its content hash
// matches. ok is false when nothing usable is stored.
func Lookup(ctx context.Context, s Store, sourcePath, hash string) (*document.Document, bool, error) {
	doc, err := s.Get(ctx, document.DocumentID(sourcePath))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if doc.SourcePath != sourcePath || doc.ContentHash == nil || *doc.ContentHash != hash {
		return nil, false, nil
	}
	return doc, true, nil
}
