package audit

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/doc-auditor/internal/types"
)

var (
	moneyPattern   = regexp.MustCompile(`(?:[€$£]|\b(?:EUR|USD|GBP|CHF)\b)\s?\d[\d.,' ]*\d%?|\b\d[\d.,' ]*\d\s?(?:[€$£]|EUR|USD|GBP|CHF)\b`)
	percentPattern = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s?%`)
	datePattern    = regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.]\d{2,4}\b`)

	// labelPattern captures the words immediately before an entity, which
	// act as its key ("management fee", "launch date", ...).
	labelWordPattern = regexp.MustCompile(`[\p{L}]+`)
)

// labelWindow is how many characters before an entity are searched for its
// label words.
const labelWindow = 48

// labelWords is how many trailing words of the window form the label key.
const labelWords = 3

// EntityConsistencyAuditor cross-references labeled figures (amounts, dates,
// percentages) across pages and flags the same label carrying different
// values.
type EntityConsistencyAuditor struct{}

// NewEntityConsistencyAuditor creates the entity consistency auditor.
func NewEntityConsistencyAuditor() *EntityConsistencyAuditor {
	return &EntityConsistencyAuditor{}
}

// Name implements Auditor.
func (a *EntityConsistencyAuditor) Name() string {
	return NameEntities
}

type entity struct {
	kind     string // money, percent, date
	label    string
	value    string // normalized
	raw      string
	location types.Location
}

// Run extracts labeled entities per fragment and reports cross-page
// conflicts. Evidence carries both conflicting locations.
func (a *EntityConsistencyAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byKey := map[string][]entity{}
	total := 0
	for _, fragment := range in.Fragments {
		for _, e := range extractEntities(fragment) {
			key := e.kind + "|" + e.label
			byKey[key] = append(byKey[key], e)
			total++
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var findings []types.Finding
	conflicts := 0
	for _, key := range keys {
		group := byKey[key]
		if len(group) < 2 {
			continue
		}
		first := group[0]
		for _, other := range group[1:] {
			if other.value == first.value || other.location.Page == first.location.Page {
				continue
			}
			conflicts++
			f := types.NewFinding(
				types.CategoryLinguistic,
				"entity_inconsistency",
				fmt.Sprintf("%q is stated as %q on page %d but %q on page %d",
					first.label, first.raw, first.location.Page, other.raw, other.location.Page),
				types.SeverityHigh,
				first.location,
			)
			f.Suggestion = "Align the figure across all pages."
			f.Evidence = []types.Evidence{
				{Kind: types.EvidenceText, Data: map[string]any{
					"kind": first.kind, "label": first.label,
					"value": first.raw, "location": first.location,
				}},
				{Kind: types.EvidenceText, Data: map[string]any{
					"kind": other.kind, "label": other.label,
					"value": other.raw, "location": other.location,
				}},
			}
			findings = append(findings, f)
			break // one conflict per label is enough signal
		}
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"entities_extracted": total,
			"conflicts":          conflicts,
		},
	}, nil
}

func extractEntities(fragment types.PageFragment) []entity {
	var out []entity
	collect := func(kind string, pattern *regexp.Regexp, normalize func(string) string) {
		for _, idx := range pattern.FindAllStringIndex(fragment.Text, -1) {
			raw := fragment.Text[idx[0]:idx[1]]
			label := entityLabel(fragment.Text, idx[0])
			if label == "" {
				continue
			}
			out = append(out, entity{
				kind:     kind,
				label:    label,
				value:    normalize(raw),
				raw:      strings.TrimSpace(raw),
				location: fragmentLocation(fragment),
			})
		}
	}

	collect("money", moneyPattern, normalizeNumeric)
	collect("percent", percentPattern, normalizeNumeric)
	collect("date", datePattern, normalizeDate)
	return out
}

// entityLabel takes the last few words before the entity as its key.
func entityLabel(text string, offset int) string {
	start := offset - labelWindow
	if start < 0 {
		start = 0
	}
	words := labelWordPattern.FindAllString(text[start:offset], -1)
	if len(words) == 0 {
		return ""
	}
	if len(words) > labelWords {
		words = words[len(words)-labelWords:]
	}
	return strings.ToLower(strings.Join(words, " "))
}

// normalizeNumeric canonicalizes an amount so "1 000,50 €" and "EUR 1,000.50"
// compare equal: strip everything but digits and the final decimal part.
func normalizeNumeric(raw string) string {
	var digits []rune
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		} else if (r == '.' || r == ',') && len(digits) > 0 {
			digits = append(digits, '.')
		}
	}
	s := string(digits)
	// Interior separators are thousands groups unless they start a short
	// final group (a decimal part of 1-2 digits).
	parts := strings.Split(s, ".")
	if len(parts) == 1 {
		return strings.TrimLeft(s, "0")
	}
	last := parts[len(parts)-1]
	integer := strings.Join(parts[:len(parts)-1], "")
	if len(last) == 3 {
		// e.g. 1.000 -> thousands group
		return strings.TrimLeft(integer+last, "0")
	}
	decimal := strings.TrimRight(last, "0")
	if decimal == "" {
		return strings.TrimLeft(integer, "0")
	}
	return strings.TrimLeft(integer, "0") + "." + decimal
}

func normalizeDate(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '.' })
	for i, f := range fields {
		fields[i] = strings.TrimLeft(f, "0")
	}
	return strings.Join(fields, "-")
}
