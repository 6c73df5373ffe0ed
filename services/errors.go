package services

import "errors"

var (
	// ErrUnsupportedFormat means the document's extension maps to no loader.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument means loading succeeded but produced no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrIndexNotReady means the index was provisioned but did not report
	// queryable within the poll window. Writes may still succeed; callers
	// treat this as a soft condition and proceed.
	ErrIndexNotReady = errors.New("vector index not ready")
)
