// Package extraction parses PDF bytes into page-indexed text fragments plus
// auxiliary color and image data for the auditors.
package extraction

import "fmt"

// InvalidPDFError means the byte stream is not a parseable PDF. Fatal for
// the whole audit run.
type InvalidPDFError struct {
	Message string
	Cause   error
}

func (e *InvalidPDFError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid PDF: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid PDF: %s", e.Message)
}

func (e *InvalidPDFError) Unwrap() error {
	return e.Cause
}

// EmptyDocumentError means the PDF parsed but yielded no readable pages.
type EmptyDocumentError struct {
	TotalPages int
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("extraction produced no fragments from any of %d pages", e.TotalPages)
}
