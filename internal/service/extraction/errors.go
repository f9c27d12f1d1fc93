package extraction

import (
	"errors"
	"fmt"

	"github.com/feichai0017/interview-practice/internal/agent/document"
)

// Kind is the failure taxonomy of an extraction call.
type Kind string

const (
	KindInvalidInput          Kind = "InvalidInput"
	KindEmptyDocument         Kind = "EmptyDocument"
	KindOpenCorrupted         Kind = "OpenFailure.Corrupted"
	KindOpenWorkerUnavailable Kind = "OpenFailure.WorkerUnavailable"
	KindOpenUnknown           Kind = "OpenFailure.Unknown"
	KindNoPages               Kind = "NoPages"
	KindInsufficientText      Kind = "InsufficientText"
)

// ErrExtractionInFlight is returned when the state is already used by another call.
var ErrExtractionInFlight = errors.New("an extraction is already in progress for this session")

// Error is an extraction failure. Message is the single text shown to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" if err is not an extraction failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func invalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func emptyDocument() *Error {
	return &Error{Kind: KindEmptyDocument, Message: "File is empty. Please upload a valid PDF."}
}

func noPages() *Error {
	return &Error{Kind: KindNoPages, Message: "PDF has no pages. Please upload a valid PDF."}
}

func insufficientText() *Error {
	return &Error{
		Kind:    KindInsufficientText,
		Message: "No text found in PDF. It might be a scanned image. Try uploading a text-based PDF or use 'Build Resume' instead.",
	}
}

// openFailure maps the adapter's classification without re-reading its text.
func openFailure(err error) *Error {
	var openErr *document.OpenError
	if !errors.As(err, &openErr) {
		return &Error{
			Kind:    KindOpenUnknown,
			Message: fmt.Sprintf("Failed to read PDF: %s. Try 'Build Resume' instead.", err.Error()),
			Err:     err,
		}
	}

	switch openErr.Kind {
	case document.OpenCorrupted:
		return &Error{
			Kind:    KindOpenCorrupted,
			Message: "PDF file appears to be corrupted. Try re-saving it.",
			Err:     err,
		}
	case document.OpenWorkerUnavailable:
		return &Error{
			Kind:    KindOpenWorkerUnavailable,
			Message: "PDF parser is unavailable right now. Please try again.",
			Err:     err,
		}
	default:
		msg := openErr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return &Error{
			Kind:    KindOpenUnknown,
			Message: fmt.Sprintf("Failed to read PDF: %s. Try 'Build Resume' instead.", msg),
			Err:     err,
		}
	}
}

// Rejected builds the InvalidInput failure for an upload refused before extraction.
func Rejected(msg string) *Error {
	return invalidInput(msg)
}
