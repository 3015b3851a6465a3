// Package audit implements the compliance auditors and the registry the
// coordinator fans out over.
package audit

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/jonathan/doc-auditor/internal/types"
)

// Auditor names. Policies and caller overrides toggle auditors by these.
const (
	NameDisclaimer   = "disclaimer"
	NameFormat       = "format"
	NameTypography   = "typography"
	NameGrammar      = "grammar"
	NameLogo         = "logo"
	NameColorPalette = "color_palette"
	NameEntities     = "entity_consistency"
	NameSemantic     = "semantic_consistency"
)

// PageImage is a raster image attributed to a document page. Page 0 means
// the owning page is unknown.
type PageImage struct {
	Page  int
	Image image.Image
}

// Input is the immutable per-run payload shared by every auditor. Nothing
// here is mutated after extraction and policy resolution, so concurrent
// auditors read it without locks.
type Input struct {
	Fragments  []types.PageFragment
	Colors     []types.PageColors
	Images     []PageImage
	PDF        []byte
	Policy     *types.Policy
	TotalPages int
}

// Result is what one auditor reports back: findings plus free-form summary
// entries that the aggregator namespaces under the auditor's name.
type Result struct {
	Findings []types.Finding
	Summary  map[string]any
}

// Auditor is a single stateless validator. Run must be safe to call
// concurrently with other auditors over the same Input and must honor
// context cancellation on long or remote work.
type Auditor interface {
	Name() string
	Run(ctx context.Context, in *Input) (*Result, error)
}

// Registry holds the auditors an engine knows about, in registration order.
// Adding an auditor is one Register call; the coordinator never hardcodes
// individual auditor call sites.
type Registry struct {
	order    []string
	auditors map[string]Auditor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{auditors: make(map[string]Auditor)}
}

// Register adds an auditor. Duplicate names are a programming error.
func (r *Registry) Register(a Auditor) error {
	name := a.Name()
	if name == "" {
		return fmt.Errorf("auditor has no name")
	}
	if _, exists := r.auditors[name]; exists {
		return fmt.Errorf("auditor %q already registered", name)
	}
	r.auditors[name] = a
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for static setup paths where a duplicate is a bug.
func (r *Registry) MustRegister(a Auditor) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get returns a registered auditor by name.
func (r *Registry) Get(name string) (Auditor, bool) {
	a, ok := r.auditors[name]
	return a, ok
}

// Names returns the registered auditor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Enabled returns the auditors that should run for a policy, after applying
// caller overrides. Overrides win over policy toggles; both default to
// enabled for auditors they do not mention.
func (r *Registry) Enabled(policy *types.Policy, overrides map[string]bool) []Auditor {
	var enabled []Auditor
	for _, name := range r.order {
		if overrides != nil {
			if on, ok := overrides[name]; ok {
				if on {
					enabled = append(enabled, r.auditors[name])
				}
				continue
			}
		}
		if policy != nil && !policy.AuditorEnabled(name) {
			continue
		}
		enabled = append(enabled, r.auditors[name])
	}
	return enabled
}

// fragmentsOnPage filters fragments for one page, preserving reading order.
func fragmentsOnPage(fragments []types.PageFragment, page int) []types.PageFragment {
	var out []types.PageFragment
	for _, f := range fragments {
		if f.Page == page {
			out = append(out, f)
		}
	}
	return out
}

// pagesOf returns the sorted set of pages that have at least one fragment.
func pagesOf(fragments []types.PageFragment) []int {
	seen := map[int]bool{}
	var pages []int
	for _, f := range fragments {
		if !seen[f.Page] {
			seen[f.Page] = true
			pages = append(pages, f.Page)
		}
	}
	sort.Ints(pages)
	return pages
}

// pageText joins a page's fragment text in reading order.
func pageText(fragments []types.PageFragment, page int) string {
	var sb strings.Builder
	for _, f := range fragmentsOnPage(fragments, page) {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.Text)
	}
	return sb.String()
}

// snippet truncates text for use in finding locations.
func snippet(text string) string {
	const max = 120
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
