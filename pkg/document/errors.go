package document

import "errors"

var (
	// ErrSourceUnreadable indicates the source image could not be opened or decoded
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrSchemaMismatch indicates persisted data does not match the document schema
	ErrSchemaMismatch = errors.New("document schema mismatch")

	// ErrAnnotationIO indicates the annotated image could not be written
	ErrAnnotationIO = errors.New("annotation output failed")
)
