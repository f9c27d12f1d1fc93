package document

import (
	"context"
	"fmt"
)

// OpenFailureKind classifies why a document could not be opened.
type OpenFailureKind string

const (
	OpenCorrupted         OpenFailureKind = "corrupted"
	OpenWorkerUnavailable OpenFailureKind = "worker_unavailable"
	OpenUnknown           OpenFailureKind = "unknown"
)

// OpenError is returned by Parser.Open. Kind is decided once, by the adapter.
type OpenError struct {
	Kind    OpenFailureKind
	Message string
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open document (%s): %s", e.Kind, e.Message)
}

func (e *OpenError) Unwrap() error { return e.Err }

// PageError is returned by Document.PageText for a single unreadable page.
type PageError struct {
	Page   int
	Reason string
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s", e.Page, e.Reason)
}

func (e *PageError) Unwrap() error { return e.Err }

// Parser opens raw document bytes.
type Parser interface {
	// CanProcess reports whether the parser handles mimeType.
	CanProcess(mimeType string) bool

	// Open parses data; failures are always *OpenError.
	Open(ctx context.Context, data []byte) (Document, error)

	// Close releases parser resources.
	Close() error
}

// Document is an opened document.
type Document interface {
	NumPages() int

	// PageText returns the text of page (1-based); failures are always *PageError.
	PageText(ctx context.Context, page int) (string, error)
}
