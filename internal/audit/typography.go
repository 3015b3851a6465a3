package audit

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/doc-auditor/internal/types"
)

const (
	// headingMinSize is the font size above which a short fragment is
	// treated as a heading.
	headingMinSize = 14.0

	// headingMaxChars is the length cutoff for heading candidates.
	headingMaxChars = 80
)

// TypographyAuditor checks heading hierarchy depth and line spacing.
type TypographyAuditor struct{}

// NewTypographyAuditor creates the typography auditor.
func NewTypographyAuditor() *TypographyAuditor {
	return &TypographyAuditor{}
}

// Name implements Auditor.
func (a *TypographyAuditor) Name() string {
	return NameTypography
}

// Run performs both checks. All typography findings are low severity.
func (a *TypographyAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []types.Finding
	headingLevels := a.checkHeadingHierarchy(in, &findings)
	spacingIssues := a.checkLineSpacing(in, &findings)

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"heading_levels": headingLevels,
			"spacing_issues": spacingIssues,
		},
	}, nil
}

// checkHeadingHierarchy counts distinct heading sizes across the document
// and flags hierarchies deeper than the policy allows.
func (a *TypographyAuditor) checkHeadingHierarchy(in *Input, findings *[]types.Finding) int {
	maxLevels := in.Policy.Typography.MaxHeadingLevels

	sizes := map[float64][]types.PageFragment{}
	for _, f := range in.Fragments {
		if f.FontSize == nil || *f.FontSize <= headingMinSize {
			continue
		}
		if len(f.Text) > headingMaxChars {
			continue
		}
		// Half-point rounding merges near-identical sizes from different
		// authoring passes.
		size := math.Round(*f.FontSize*2) / 2
		sizes[size] = append(sizes[size], f)
	}

	levels := len(sizes)
	if maxLevels <= 0 || levels <= maxLevels {
		return levels
	}

	distinct := make([]float64, 0, levels)
	for size := range sizes {
		distinct = append(distinct, size)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	// Anchor the finding on the smallest (deepest) heading level.
	deepest := sizes[distinct[len(distinct)-1]][0]
	f := types.NewFinding(
		types.CategoryFormat,
		"heading_hierarchy",
		fmt.Sprintf("document uses %d distinct heading sizes, policy allows %d", levels, maxLevels),
		types.SeverityLow,
		fragmentLocation(deepest),
	)
	f.Suggestion = "Consolidate heading styles to a flatter hierarchy."
	f.Evidence = []types.Evidence{{Kind: types.EvidenceMetric, Data: map[string]any{
		"heading_sizes": distinct,
		"max_levels":    maxLevels,
	}}}
	*findings = append(*findings, f)
	return levels
}

// checkLineSpacing walks each page's fragments top-down and measures the
// vertical gap between consecutive lines as a multiple of the font size.
func (a *TypographyAuditor) checkLineSpacing(in *Input, findings *[]types.Finding) int {
	minSpacing := in.Policy.Typography.MinLineSpacing
	maxSpacing := in.Policy.Typography.MaxLineSpacing

	issues := 0
	for _, page := range pagesOf(in.Fragments) {
		lines := linesTopDown(fragmentsOnPage(in.Fragments, page))
		for i := 1; i < len(lines); i++ {
			upper, lower := lines[i-1], lines[i]

			// Fragments sharing a baseline (e.g. styled spans on one line)
			// are not consecutive lines.
			if upper.BBox[1]-lower.BBox[1] <= 1.0 {
				continue
			}

			gap := upper.BBox[1] - lower.BBox[3] // upper bottom minus lower top
			if gap < 0 {
				f := types.NewFinding(
					types.CategoryFormat,
					"fragment_overlap",
					fmt.Sprintf("text fragments overlap vertically by %.1fpt", -gap),
					types.SeverityLow,
					lower.Location,
				)
				f.Evidence = []types.Evidence{{Kind: types.EvidenceMetric, Data: map[string]any{
					"overlap_pt": -gap,
				}}}
				*findings = append(*findings, f)
				issues++
				continue
			}

			if minSpacing <= 0 && maxSpacing <= 0 {
				continue
			}
			advance := upper.BBox[1] - lower.BBox[1] // baseline-to-baseline distance
			ratio := advance / lower.FontSize
			if (minSpacing > 0 && ratio < minSpacing) || (maxSpacing > 0 && ratio > maxSpacing) {
				f := types.NewFinding(
					types.CategoryFormat,
					"line_spacing",
					fmt.Sprintf("line spacing %.2f is outside the permitted range [%.2f, %.2f]", ratio, minSpacing, maxSpacing),
					types.SeverityLow,
					lower.Location,
				)
				f.Evidence = []types.Evidence{{Kind: types.EvidenceMetric, Data: map[string]any{
					"spacing_ratio": ratio,
					"min":           minSpacing,
					"max":           maxSpacing,
				}}}
				*findings = append(*findings, f)
				issues++
			}
		}
	}
	return issues
}

// line is a measurable text line: fragments without bbox or size cannot be
// spacing-checked and are dropped before this point.
type line struct {
	BBox     [4]float64
	FontSize float64
	Location types.Location
}

func linesTopDown(fragments []types.PageFragment) []line {
	var lines []line
	for _, f := range fragments {
		if f.BBox == nil || f.FontSize == nil || *f.FontSize <= 0 {
			continue
		}
		lines = append(lines, line{
			BBox:     *f.BBox,
			FontSize: *f.FontSize,
			Location: fragmentLocation(f),
		})
	}
	// PDF y grows upward, so top of page first means descending y.
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].BBox[1] > lines[j].BBox[1]
	})
	return lines
}
