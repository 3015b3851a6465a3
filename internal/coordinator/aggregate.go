package coordinator

import (
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/doc-auditor/internal/extraction"
	"github.com/jonathan/doc-auditor/internal/types"
)

// aggregateReport merges per-auditor outcomes into one report. A run where
// some auditors failed is still status done; the failures are visible in the
// summary under "<name>_error" and "auditors_failed".
func aggregateReport(jobID uuid.UUID, pol *types.Policy, extracted *extraction.Result, outcomes []auditorOutcome) *types.ValidationReport {
	findings := []types.Finding{}
	summary := map[string]any{}

	auditorsRun := []string{}
	auditorsFailed := []string{}

	for _, outcome := range outcomes {
		summary[outcome.name+"_duration_ms"] = outcome.duration.Milliseconds()

		if outcome.err != nil {
			auditorsFailed = append(auditorsFailed, outcome.name)
			summary[outcome.name+"_error"] = outcome.err.Error()
			continue
		}

		auditorsRun = append(auditorsRun, outcome.name)
		findings = append(findings, outcome.result.Findings...)
		for key, value := range outcome.result.Summary {
			summary[outcome.name+"_"+key] = value
		}
	}

	sort.Strings(auditorsRun)
	sort.Strings(auditorsFailed)
	sortFindings(findings)

	bySeverity := map[string]int{}
	byCategory := map[string]int{}
	for _, f := range findings {
		bySeverity[string(f.Severity)]++
		byCategory[string(f.Category)]++
	}

	summary["auditors_run"] = auditorsRun
	summary["auditors_failed"] = auditorsFailed
	summary["total_findings"] = len(findings)
	summary["findings_by_severity"] = bySeverity
	summary["findings_by_category"] = byCategory
	summary["total_pages"] = extracted.TotalPages
	if len(extracted.SkippedPages) > 0 {
		summary["skipped_pages"] = extracted.SkippedPages
	}

	return &types.ValidationReport{
		JobID:    jobID,
		Status:   types.StatusDone,
		PolicyID: pol.ID,
		Findings: findings,
		Summary:  summary,
		Attachments: map[string]any{
			"client_name": pol.ClientName,
		},
	}
}

// sortFindings orders by severity (critical first), then page, then rule, so
// the most urgent issues lead the report and ordering is deterministic.
func sortFindings(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		if findings[i].Location.Page != findings[j].Location.Page {
			return findings[i].Location.Page < findings[j].Location.Page
		}
		return findings[i].Rule < findings[j].Rule
	})
}
