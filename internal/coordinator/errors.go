// Package coordinator orchestrates one audit run: policy resolution,
// fragment extraction, parallel auditor execution, and aggregation into a
// validation report.
package coordinator

import "fmt"

// Error codes for fatal, pre-fan-out failures.
const (
	CodeDocumentFetch    = "document_fetch_failed"
	CodeInvalidPDF       = "invalid_pdf"
	CodeExtractionFailed = "extraction_failed"
	CodePolicyNotFound   = "policy_not_found"
)

// FatalError aborts the whole run before any auditor output exists. The
// report it accompanies has status "error".
type FatalError struct {
	Code  string
	Cause error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audit failed (%s): %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("audit failed (%s)", e.Code)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}
