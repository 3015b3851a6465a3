package audit

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/jonathan/doc-auditor/internal/types"
)

// defaultDisclaimerThreshold is the token-set similarity a page must reach
// for a template to count as present.
const defaultDisclaimerThreshold = 0.8

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// DisclaimerAuditor checks that every required legal disclaimer appears
// somewhere in the document, tolerating reflowed line breaks and small
// wording drift via token-set similarity.
type DisclaimerAuditor struct{}

// NewDisclaimerAuditor creates the disclaimer auditor.
func NewDisclaimerAuditor() *DisclaimerAuditor {
	return &DisclaimerAuditor{}
}

// Name implements Auditor.
func (a *DisclaimerAuditor) Name() string {
	return NameDisclaimer
}

// Run matches each required template against every page's concatenated text
// and emits one compliance finding per unmatched template. Coverage is the
// fraction of templates matched across the whole document.
func (a *DisclaimerAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	templates := in.Policy.Disclaimers.Templates
	threshold := in.Policy.Disclaimers.Threshold
	if threshold == 0 {
		threshold = defaultDisclaimerThreshold
	}

	if len(templates) == 0 {
		return &Result{Summary: map[string]any{"coverage": 1.0, "templates_required": 0}}, nil
	}

	pages := pagesOf(in.Fragments)
	pageTexts := make(map[int]string, len(pages))
	for _, page := range pages {
		pageTexts[page] = pageText(in.Fragments, page)
	}

	matched := 0
	var findings []types.Finding
	for _, template := range templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bestScore, bestPage := 0.0, 0
		for _, page := range pages {
			score := tokenSetSimilarity(template, pageTexts[page])
			if score > bestScore {
				bestScore, bestPage = score, page
			}
		}

		if bestScore >= threshold {
			matched++
			continue
		}

		finding := types.NewFinding(
			types.CategoryCompliance,
			"disclaimer_missing",
			fmt.Sprintf("required disclaimer not found in document (best match %.2f on page %d)", bestScore, maxInt(bestPage, 1)),
			types.SeverityCritical, // downgraded below when coverage is partial
			types.Location{Page: maxInt(bestPage, 1), TextSnippet: types.StrPtr(snippet(template))},
		)
		finding.Suggestion = "Add the required disclaimer text verbatim, typically on the final page."
		finding.Evidence = []types.Evidence{{
			Kind: types.EvidenceText,
			Data: map[string]any{
				"template":   template,
				"best_score": bestScore,
				"threshold":  threshold,
			},
		}}
		findings = append(findings, finding)
	}

	coverage := float64(matched) / float64(len(templates))
	severity := a.missingSeverity(in.Policy, coverage)
	for i := range findings {
		findings[i].Severity = severity
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"coverage":           coverage,
			"templates_required": len(templates),
			"templates_matched":  matched,
		},
	}, nil
}

// missingSeverity is critical when no disclaimer matched at all, high when
// the document carries some but not all, both overridable per policy.
func (a *DisclaimerAuditor) missingSeverity(policy *types.Policy, coverage float64) types.Severity {
	if coverage == 0 {
		if policy.Disclaimers.AbsentSeverity.Valid() {
			return policy.Disclaimers.AbsentSeverity
		}
		return types.SeverityCritical
	}
	if policy.Disclaimers.PartialSeverity.Valid() {
		return policy.Disclaimers.PartialSeverity
	}
	return types.SeverityHigh
}

// tokenSetSimilarity compares the unique-token sets of two strings. A
// template whose tokens all appear in the page scores 1.0 regardless of the
// surrounding text, so verbatim inclusions always match.
func tokenSetSimilarity(template, text string) float64 {
	templateTokens := tokenSet(template)
	textTokens := tokenSet(text)
	if len(templateTokens) == 0 {
		return 0
	}

	contained := true
	for token := range templateTokens {
		if !textTokens[token] {
			contained = false
			break
		}
	}
	if contained {
		return 1.0
	}

	return strutil.Similarity(sortedTokens(templateTokens), sortedTokens(textTokens), metrics.NewSorensenDice())
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, token := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		set[token] = true
	}
	return set
}

func sortedTokens(set map[string]bool) string {
	tokens := make([]string, 0, len(set))
	for token := range set {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
