package audit

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/doc-auditor/internal/types"
)

var (
	// Currency amounts with five or more unseparated digits, e.g. "€1000000".
	unseparatedCurrencyPattern = regexp.MustCompile(`(?:[€$£]|\b(?:EUR|USD|GBP|CHF)\b)\s?\d{5,}`)

	// Percentages with more than two decimal places, e.g. "12.3456 %".
	overPrecisePercentPattern = regexp.MustCompile(`\d+[.,]\d{3,}\s?%`)
)

// fontSizeTolerance absorbs rounding differences between authoring tools
// when comparing against the allowed size list.
const fontSizeTolerance = 0.1

// FormatAuditor checks numeric formatting and the font allow-lists declared
// by the policy, fragment by fragment.
type FormatAuditor struct{}

// NewFormatAuditor creates the format auditor.
func NewFormatAuditor() *FormatAuditor {
	return &FormatAuditor{}
}

// Name implements Auditor.
func (a *FormatAuditor) Name() string {
	return NameFormat
}

// Run emits one format finding per violating fragment per rule.
func (a *FormatAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	var findings []types.Finding
	checked := 0

	for _, fragment := range in.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		checked++

		findings = append(findings, a.checkNumericFormats(fragment)...)
		if f := a.checkFontFamily(fragment, in.Policy.Typography.AllowedFonts); f != nil {
			findings = append(findings, *f)
		}
		if f := a.checkFontSize(fragment, in.Policy.Typography.AllowedFontSizes); f != nil {
			findings = append(findings, *f)
		}
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"fragments_checked": checked,
			"violations":        len(findings),
		},
	}, nil
}

func (a *FormatAuditor) checkNumericFormats(fragment types.PageFragment) []types.Finding {
	var findings []types.Finding

	for _, match := range unseparatedCurrencyPattern.FindAllString(fragment.Text, -1) {
		f := types.NewFinding(
			types.CategoryFormat,
			"currency_format",
			fmt.Sprintf("currency amount %q lacks thousands separators", match),
			types.SeverityMedium,
			fragmentLocation(fragment),
		)
		f.Suggestion = "Format large amounts with thousands separators, e.g. €1,000,000."
		f.Evidence = []types.Evidence{{Kind: types.EvidenceText, Data: map[string]any{"match": match}}}
		findings = append(findings, f)
	}

	for _, match := range overPrecisePercentPattern.FindAllString(fragment.Text, -1) {
		f := types.NewFinding(
			types.CategoryFormat,
			"percentage_format",
			fmt.Sprintf("percentage %q carries more than two decimal places", match),
			types.SeverityLow,
			fragmentLocation(fragment),
		)
		f.Suggestion = "Round percentages to at most two decimal places."
		f.Evidence = []types.Evidence{{Kind: types.EvidenceText, Data: map[string]any{"match": match}}}
		findings = append(findings, f)
	}

	return findings
}

func (a *FormatAuditor) checkFontFamily(fragment types.PageFragment, allowed []string) *types.Finding {
	if len(allowed) == 0 || fragment.FontName == nil {
		return nil
	}

	family := normalizeFontFamily(*fragment.FontName)
	for _, name := range allowed {
		if strings.EqualFold(family, name) {
			return nil
		}
	}

	f := types.NewFinding(
		types.CategoryFormat,
		"font_family",
		fmt.Sprintf("font %q is not in the permitted families", family),
		types.SeverityMedium,
		fragmentLocation(fragment),
	)
	f.Suggestion = fmt.Sprintf("Use one of the permitted fonts: %s.", strings.Join(allowed, ", "))
	f.Evidence = []types.Evidence{{Kind: types.EvidenceRule, Data: map[string]any{
		"font":    *fragment.FontName,
		"allowed": allowed,
	}}}
	return &f
}

func (a *FormatAuditor) checkFontSize(fragment types.PageFragment, allowed []float64) *types.Finding {
	if len(allowed) == 0 || fragment.FontSize == nil {
		return nil
	}

	size := *fragment.FontSize
	for _, s := range allowed {
		if math.Abs(size-s) <= fontSizeTolerance {
			return nil
		}
	}

	f := types.NewFinding(
		types.CategoryFormat,
		"font_size",
		fmt.Sprintf("font size %.1fpt is not in the permitted sizes", size),
		types.SeverityLow,
		fragmentLocation(fragment),
	)
	f.Evidence = []types.Evidence{{Kind: types.EvidenceRule, Data: map[string]any{
		"size":    size,
		"allowed": allowed,
	}}}
	return &f
}

// normalizeFontFamily strips subset prefixes ("ABCDEF+Helvetica-Bold") and
// style suffixes, leaving the bare family name.
func normalizeFontFamily(name string) string {
	if idx := strings.Index(name, "+"); idx >= 0 && idx == 6 {
		name = name[idx+1:]
	}
	if idx := strings.IndexAny(name, "-,"); idx > 0 {
		name = name[:idx]
	}
	return name
}

func fragmentLocation(fragment types.PageFragment) types.Location {
	return types.Location{
		Page:        fragment.Page,
		BBox:        fragment.BBox,
		FragmentID:  types.StrPtr(fragment.ID),
		TextSnippet: types.StrPtr(snippet(fragment.Text)),
	}
}
