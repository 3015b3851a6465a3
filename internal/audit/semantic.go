package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/jonathan/doc-auditor/internal/llm"
	"github.com/jonathan/doc-auditor/internal/types"
)

const (
	// claimSimilarityThreshold is how alike two number-masked sentences must
	// be before their numbers are compared.
	claimSimilarityThreshold = 0.82

	// maxClaimsPerDocument bounds the pairwise comparison.
	maxClaimsPerDocument = 200
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
	numberPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// SemanticConsistencyAuditor looks for the same claim stated with different
// figures on different pages. The deterministic pass compares number-masked
// sentences by token similarity; when an LLM client is configured it is used
// to confirm candidate contradictions, and any LLM failure silently keeps
// the deterministic verdict.
type SemanticConsistencyAuditor struct {
	llmClient llm.Client
}

// NewSemanticConsistencyAuditor creates the auditor. llmClient may be nil.
func NewSemanticConsistencyAuditor(llmClient llm.Client) *SemanticConsistencyAuditor {
	return &SemanticConsistencyAuditor{llmClient: llmClient}
}

// Name implements Auditor.
func (a *SemanticConsistencyAuditor) Name() string {
	return NameSemantic
}

type claim struct {
	sentence string
	masked   string
	numbers  []string
	location types.Location
}

// Run compares numeric claims pairwise across pages.
func (a *SemanticConsistencyAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	claims := extractClaims(in.Fragments)
	if len(claims) > maxClaimsPerDocument {
		claims = claims[:maxClaimsPerDocument]
	}

	metric := metrics.NewSorensenDice()
	var findings []types.Finding
	confirmedByLLM := 0

	for i := 0; i < len(claims); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(claims); j++ {
			first, second := claims[i], claims[j]
			if first.location.Page == second.location.Page {
				continue
			}
			if equalStringSlices(first.numbers, second.numbers) {
				continue
			}
			similarity := strutil.Similarity(first.masked, second.masked, metric)
			if similarity < claimSimilarityThreshold {
				continue
			}

			contradiction := true
			if a.llmClient != nil {
				if verdict, err := a.confirmWithLLM(ctx, first.sentence, second.sentence); err == nil {
					contradiction = verdict
					confirmedByLLM++
				}
			}
			if !contradiction {
				continue
			}

			f := types.NewFinding(
				types.CategoryLinguistic,
				"semantic_inconsistency",
				fmt.Sprintf("pages %d and %d state the same claim with different figures",
					first.location.Page, second.location.Page),
				types.SeverityHigh,
				first.location,
			)
			f.Suggestion = "Reconcile the conflicting statements."
			f.Evidence = []types.Evidence{
				{Kind: types.EvidenceText, Data: map[string]any{
					"sentence": first.sentence, "numbers": first.numbers, "location": first.location,
				}},
				{Kind: types.EvidenceText, Data: map[string]any{
					"sentence": second.sentence, "numbers": second.numbers, "location": second.location,
				}},
				{Kind: types.EvidenceMetric, Data: map[string]any{"similarity": similarity}},
			}
			findings = append(findings, f)
		}
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"claims_compared": len(claims),
			"llm_confirmed":   confirmedByLLM,
			"contradictions":  len(findings),
		},
	}, nil
}

// confirmWithLLM asks the model whether two sentences contradict each other.
func (a *SemanticConsistencyAuditor) confirmWithLLM(ctx context.Context, first, second string) (bool, error) {
	prompt := fmt.Sprintf(`You compare two sentences from the same financial document.
Answer with JSON: {"contradiction": true} if they state conflicting facts or figures, {"contradiction": false} otherwise.

Sentence A: %q
Sentence B: %q`, first, second)

	raw, err := a.llmClient.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return false, err
	}

	var verdict struct {
		Contradiction bool `json:"contradiction"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &verdict); err != nil {
		return false, fmt.Errorf("failed to parse contradiction verdict: %w", err)
	}
	return verdict.Contradiction, nil
}

// extractClaims collects sentences that contain at least one number.
func extractClaims(fragments []types.PageFragment) []claim {
	var claims []claim
	for _, fragment := range fragments {
		for _, sentence := range sentencePattern.FindAllString(fragment.Text, -1) {
			sentence = strings.TrimSpace(sentence)
			numbers := numberPattern.FindAllString(sentence, -1)
			if len(numbers) == 0 || len(strings.Fields(sentence)) < 4 {
				continue
			}
			for i, n := range numbers {
				numbers[i] = normalizeNumeric(n)
			}
			claims = append(claims, claim{
				sentence: sentence,
				masked:   strings.ToLower(numberPattern.ReplaceAllString(sentence, "#")),
				numbers:  numbers,
				location: fragmentLocation(fragment),
			})
		}
	}
	return claims
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
