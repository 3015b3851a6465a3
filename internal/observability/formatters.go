// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/doc-auditor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPolicy outputs a human-readable summary of the resolved policy.
func (p *Printer) PrintPolicy(policy *types.Policy) {
	if policy == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Policy:   %s\n", policy.ID))
	sb.WriteString(fmt.Sprintf("Client:   %s\n", policy.ClientName))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Disclaimers:  %d templates (threshold %.2f)\n",
		len(policy.Disclaimers.Templates), policy.Disclaimers.Threshold))
	sb.WriteString(fmt.Sprintf("Palette:      %d colors (tolerance %.1f)\n",
		len(policy.ColorPalette.AllowedColors), policy.ColorPalette.Tolerance))
	sb.WriteString(fmt.Sprintf("Logo refs:    %d\n", len(policy.Logo.References)))
	if policy.Grammar.Language != "" {
		sb.WriteString(fmt.Sprintf("Language:     %s\n", policy.Grammar.Language))
	}

	p.printBox("RESOLVED POLICY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the run outcome: status, per-severity counts, and which
// auditors ran or failed.
func (p *Printer) PrintReport(report *types.ValidationReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", report.JobID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", report.Status))
	if report.PolicyID != "" {
		sb.WriteString(fmt.Sprintf("Policy:   %s\n", report.PolicyID))
	}
	sb.WriteString("\n")

	counts := report.CountBySeverity()
	sb.WriteString(fmt.Sprintf("Findings: %d total\n", len(report.Findings)))
	for _, severity := range []types.Severity{
		types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow,
	} {
		if n := counts[severity]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %-8s %d\n", severity, n))
		}
	}

	if run, ok := report.Summary["auditors_run"].([]string); ok && len(run) > 0 {
		sb.WriteString(fmt.Sprintf("\nAuditors run:    %s\n", strings.Join(run, ", ")))
	}
	if failed, ok := report.Summary["auditors_failed"].([]string); ok && len(failed) > 0 {
		sb.WriteString(fmt.Sprintf("Auditors failed: %s\n", strings.Join(failed, ", ")))
	}

	p.printBox("VALIDATION REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFindings outputs the top findings, most severe first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFindings(findings []types.Finding) {
	if len(findings) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO FINDINGS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d issues:\n\n", len(findings)))

	count := min(len(findings), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := findings[i]
		issue := f.Issue
		if len(issue) > 45 {
			issue = issue[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ [%s] %s (p.%d)\n", f.Severity, f.Rule, f.Location.Page))
		sb.WriteString(fmt.Sprintf("  %s\n", issue))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(findings) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more findings", len(findings)-maxItemsToShow))
	}

	p.printBox("FINDINGS", sb.String())
}

// PrintSummary outputs the aggregated summary map in sorted key order.
func (p *Printer) PrintSummary(summary map[string]any) {
	if len(summary) == 0 {
		return
	}

	keys := make([]string, 0, len(summary))
	for key := range summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		line := fmt.Sprintf("%s: %v", key, summary[key])
		if len(line) > 50 {
			line = line[:47] + "..."
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
