package policy

import (
	"strings"

	"github.com/jonathan/doc-auditor/internal/types"
)

// AutoPolicyID asks the resolver to detect the client from document content
// instead of looking up an explicit catalog entry.
const AutoPolicyID = "auto"

// headerPages bounds how deep auto-detection looks into the document. Client
// names show up on the cover or first content page in practice.
const headerPages = 2

// Metadata is what auto-detection knows about a document before any auditor
// runs: PDF metadata plus the extracted header fragments.
type Metadata struct {
	Title           string
	Author          string
	HeaderFragments []types.PageFragment
}

// Resolver picks the concrete policy for a run from an immutable catalog.
type Resolver struct {
	catalog *Catalog
}

// NewResolver wraps a loaded catalog.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve returns the policy for an explicit id, or detects one from
// document metadata when id is "auto". Unknown explicit ids are fatal;
// failed auto-detection falls back to the standard policy. The fallback is
// a deliberate design decision: an undetectable client still gets audited
// under baseline rules rather than not at all.
func (r *Resolver) Resolve(policyID string, meta *Metadata) (*types.Policy, error) {
	if policyID != "" && policyID != AutoPolicyID {
		return r.catalog.Get(policyID)
	}

	if detected := r.detect(meta); detected != nil {
		return detected, nil
	}
	return r.catalog.Default(), nil
}

// detect scans the header text for each policy's client name and keywords,
// in catalog order so earlier entries win ties.
func (r *Resolver) detect(meta *Metadata) *types.Policy {
	if meta == nil {
		return nil
	}

	var header strings.Builder
	header.WriteString(strings.ToLower(meta.Title))
	header.WriteByte('\n')
	header.WriteString(strings.ToLower(meta.Author))
	for _, f := range meta.HeaderFragments {
		if f.Page > headerPages {
			continue
		}
		header.WriteByte('\n')
		header.WriteString(strings.ToLower(f.Text))
	}
	haystack := header.String()

	for _, p := range r.catalog.Policies() {
		if p.ID == DefaultPolicyID {
			continue
		}
		if p.ClientName != "" && strings.Contains(haystack, strings.ToLower(p.ClientName)) {
			return p
		}
		for _, keyword := range p.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				return p
			}
		}
	}
	return nil
}
