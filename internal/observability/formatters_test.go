package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/doc-auditor/internal/types"
)

func TestPrintPolicy(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	policy := &types.Policy{
		ID:         "414-std",
		ClientName: "414 Capital",
		Disclaimers: types.DisclaimerPolicy{
			Templates: []string{"Past performance is not indicative of future results."},
			Threshold: 0.8,
		},
		ColorPalette: types.ColorPolicy{AllowedColors: []string{"#003366"}, Tolerance: 10},
		Grammar:      types.GrammarPolicy{Language: "en-US"},
	}

	p.PrintPolicy(policy)
	output := buf.String()

	assert.Contains(t, output, "RESOLVED POLICY")
	assert.Contains(t, output, "414-std")
	assert.Contains(t, output, "414 Capital")
	assert.Contains(t, output, "en-US")
}

func TestPrintPolicy_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPolicy(nil)

	assert.Empty(t, buf.String())
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &types.ValidationReport{
		Status:   types.StatusDone,
		PolicyID: "standard",
		Findings: []types.Finding{
			types.NewFinding(types.CategoryCompliance, "disclaimer_missing", "missing", types.SeverityCritical, types.Location{Page: 1}),
			types.NewFinding(types.CategoryFormat, "unauthorized_color", "off palette", types.SeverityMedium, types.Location{Page: 3}),
		},
		Summary: map[string]any{
			"auditors_run":    []string{"color_palette", "disclaimer"},
			"auditors_failed": []string{"grammar"},
		},
	}

	p.PrintReport(report)
	output := buf.String()

	assert.Contains(t, output, "VALIDATION REPORT")
	assert.Contains(t, output, "done")
	assert.Contains(t, output, "critical")
	assert.Contains(t, output, "color_palette, disclaimer")
	assert.Contains(t, output, "Auditors failed: grammar")
}

func TestPrintFindings(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	findings := []types.Finding{
		types.NewFinding(types.CategoryLogo, "logo_missing", "logo brand.png not found in document", types.SeverityHigh, types.Location{Page: 1}),
	}

	p.PrintFindings(findings)
	output := buf.String()

	assert.Contains(t, output, "FINDINGS")
	assert.Contains(t, output, "logo_missing")
	assert.Contains(t, output, "(p.1)")
}

func TestPrintFindings_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFindings(nil)

	assert.Contains(t, buf.String(), "NO FINDINGS")
}

func TestPrintFindings_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	findings := make([]types.Finding, 8)
	for i := range findings {
		findings[i] = types.NewFinding(types.CategoryFormat, "font_size", "wrong size", types.SeverityLow, types.Location{Page: i + 1})
	}

	p.PrintFindings(findings)

	assert.Contains(t, buf.String(), "and 3 more findings")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSummary(map[string]any{
		"total_findings":      2,
		"disclaimer_coverage": 0.5,
	})
	output := buf.String()

	assert.Contains(t, output, "RUN SUMMARY")
	assert.Contains(t, output, "total_findings: 2")
	assert.Contains(t, output, "disclaimer_coverage: 0.5")
}
