package types

import "github.com/google/uuid"

// Severity is the fixed four-level scale every finding is ranked on.
type Severity string

const (
	// SeverityLow marks cosmetic issues that do not block publication
	SeverityLow Severity = "low"

	// SeverityMedium marks issues that should be corrected before release
	SeverityMedium Severity = "medium"

	// SeverityHigh marks issues that violate client compliance rules
	SeverityHigh Severity = "high"

	// SeverityCritical marks issues that make the document non-publishable
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering weight of a severity (higher is worse).
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Category classifies a finding by the kind of rule it violates.
type Category string

const (
	// CategoryCompliance covers disclaimer and regulatory-text rules
	CategoryCompliance Category = "compliance"

	// CategoryFormat covers numeric formatting, fonts, colors, and layout
	CategoryFormat Category = "format"

	// CategoryLogo covers brand-mark presence and placement
	CategoryLogo Category = "logo"

	// CategoryLinguistic covers grammar, spelling, and cross-page consistency
	CategoryLinguistic Category = "linguistic"
)

// EvidenceKind identifies what an evidence payload contains.
type EvidenceKind string

const (
	EvidenceText   EvidenceKind = "text"
	EvidenceImage  EvidenceKind = "image"
	EvidenceMetric EvidenceKind = "metric"
	EvidenceRule   EvidenceKind = "rule"
)

// Location pins a finding to a place in the document. Page is 1-indexed;
// the remaining fields are best-effort and may be absent.
type Location struct {
	Page        int         `json:"page"`
	BBox        *[4]float64 `json:"bbox,omitempty"`
	FragmentID  *string     `json:"fragment_id,omitempty"`
	TextSnippet *string     `json:"text_snippet,omitempty"`
}

// Evidence is free-form structured proof attached to a finding.
type Evidence struct {
	Kind EvidenceKind   `json:"kind"`
	Data map[string]any `json:"data"`
}

// Finding represents a single reported violation. Findings are created by an
// auditor, never mutated afterwards, and owned by the report that holds them.
type Finding struct {
	ID         uuid.UUID  `json:"id"`
	Category   Category   `json:"category"`
	Rule       string     `json:"rule"`
	Issue      string     `json:"issue"`
	Severity   Severity   `json:"severity"`
	Location   Location   `json:"location"`
	Suggestion string     `json:"suggestion,omitempty"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}

// NewFinding creates a finding with a fresh id. Repeated runs over the same
// document produce identical (rule, issue, location) tuples but fresh ids.
func NewFinding(category Category, rule, issue string, severity Severity, loc Location) Finding {
	return Finding{
		ID:       uuid.New(),
		Category: category,
		Rule:     rule,
		Issue:    issue,
		Severity: severity,
		Location: loc,
	}
}

// StrPtr returns a pointer to a string. Helper for optional location fields.
func StrPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to a float64.
func FloatPtr(f float64) *float64 {
	return &f
}
