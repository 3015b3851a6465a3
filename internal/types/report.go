package types

import "github.com/google/uuid"

// ReportStatus is the terminal state of an audit run.
type ReportStatus string

const (
	// StatusDone means the run completed; individual auditors may still have
	// failed, in which case the summary carries their errors.
	StatusDone ReportStatus = "done"

	// StatusError means the run aborted before any auditor produced output
	// (invalid PDF, unknown policy, total extraction failure).
	StatusError ReportStatus = "error"
)

// ValidationReport is the aggregated output of one audit run. Immutable once
// the coordinator finishes; persistence is the caller's concern.
type ValidationReport struct {
	JobID       uuid.UUID      `json:"job_id"`
	Status      ReportStatus   `json:"status"`
	PolicyID    string         `json:"policy_id,omitempty"`
	Findings    []Finding      `json:"findings"`
	Summary     map[string]any `json:"summary"`
	Attachments map[string]any `json:"attachments,omitempty"`
}

// CountBySeverity returns the number of findings per severity level.
func (r *ValidationReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// CountByCategory returns the number of findings per category.
func (r *ValidationReport) CountByCategory() map[Category]int {
	counts := make(map[Category]int, 4)
	for _, f := range r.Findings {
		counts[f.Category]++
	}
	return counts
}
