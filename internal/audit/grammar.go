package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/doc-auditor/internal/grammar"
	"github.com/jonathan/doc-auditor/internal/types"
)

// GrammarAuditor delegates each page's text to the external grammar service
// and maps every reported issue to a linguistic finding. Service failures
// propagate untouched; the coordinator's isolation wrapper records them.
type GrammarAuditor struct {
	checker grammar.Checker
}

// NewGrammarAuditor wraps a grammar service client.
func NewGrammarAuditor(checker grammar.Checker) *GrammarAuditor {
	return &GrammarAuditor{checker: checker}
}

// Name implements Auditor.
func (a *GrammarAuditor) Name() string {
	return NameGrammar
}

// Run checks each page's concatenated text.
func (a *GrammarAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	if a.checker == nil {
		return nil, fmt.Errorf("no grammar service configured")
	}

	language := in.Policy.Grammar.Language
	var findings []types.Finding
	pagesChecked := 0

	for _, page := range pagesOf(in.Fragments) {
		text := pageText(in.Fragments, page)
		if strings.TrimSpace(text) == "" {
			continue
		}

		issues, err := a.checker.Check(ctx, text, language)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		pagesChecked++

		for _, issue := range issues {
			findings = append(findings, a.toFinding(page, text, issue))
		}
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"pages_checked": pagesChecked,
			"issues":        len(findings),
			"language":      language,
		},
	}, nil
}

func (a *GrammarAuditor) toFinding(page int, text string, issue grammar.Issue) types.Finding {
	f := types.NewFinding(
		types.CategoryLinguistic,
		ruleOrDefault(issue.Rule),
		issue.Message,
		types.SeverityMedium,
		types.Location{Page: page, TextSnippet: types.StrPtr(snippet(issueSpan(text, issue)))},
	)
	if len(issue.Replacements) > 0 {
		f.Suggestion = fmt.Sprintf("Replace with %q.", issue.Replacements[0])
	}
	f.Evidence = []types.Evidence{{Kind: types.EvidenceText, Data: map[string]any{
		"offset":       issue.Offset,
		"length":       issue.Length,
		"replacements": issue.Replacements,
	}}}
	return f
}

func ruleOrDefault(rule string) string {
	if rule == "" {
		return "grammar"
	}
	return "grammar_" + strings.ToLower(rule)
}

// issueSpan extracts the flagged text, guarding against offsets the service
// reports past the end of what we sent.
func issueSpan(text string, issue grammar.Issue) string {
	if issue.Offset < 0 || issue.Offset >= len(text) {
		return ""
	}
	end := issue.Offset + issue.Length
	if end > len(text) {
		end = len(text)
	}
	return text[issue.Offset:end]
}
