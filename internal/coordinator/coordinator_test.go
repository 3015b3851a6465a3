package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/doc-auditor/internal/audit"
	"github.com/jonathan/doc-auditor/internal/pdftest"
	"github.com/jonathan/doc-auditor/internal/policy"
	"github.com/jonathan/doc-auditor/internal/types"
)

type memSource map[string][]byte

func (s memSource) GetPDF(_ context.Context, documentID string) ([]byte, error) {
	data, ok := s[documentID]
	if !ok {
		return nil, fmt.Errorf("no document %s", documentID)
	}
	return data, nil
}

type stubAuditor struct {
	name     string
	findings []types.Finding
	summary  map[string]any
	err      error
	doPanic  bool
}

func (s *stubAuditor) Name() string { return s.name }

func (s *stubAuditor) Run(context.Context, *audit.Input) (*audit.Result, error) {
	if s.doPanic {
		panic("stub exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &audit.Result{Findings: s.findings, Summary: s.summary}, nil
}

func stubFinding(rule string, severity types.Severity, page int) types.Finding {
	return types.NewFinding(types.CategoryCompliance, rule, "stub finding "+rule, severity, types.Location{Page: page})
}

func testCatalog() *policy.Catalog {
	return policy.NewCatalog(types.Policy{
		ID: "standard",
		ColorPalette: types.ColorPolicy{
			AllowedColors: []string{"#003366", "#FFFFFF"},
			Tolerance:     10.0,
			Severity:      types.SeverityMedium,
		},
	})
}

func newTestCoordinator(t *testing.T, source memSource, registry *audit.Registry) *Coordinator {
	t.Helper()
	coord, err := New(Options{Source: source, Catalog: testCatalog(), Registry: registry})
	require.NoError(t, err)
	return coord
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Catalog: testCatalog(), Registry: audit.NewRegistry()})
	assert.Error(t, err)

	_, err = New(Options{Source: memSource{}, Registry: audit.NewRegistry()})
	assert.Error(t, err)

	_, err = New(Options{Source: memSource{}, Catalog: testCatalog()})
	assert.Error(t, err)
}

func TestRunAudit_UnauthorizedColor(t *testing.T) {
	pages := make([]pdftest.Page, 5)
	for i := range pages {
		pages[i] = pdftest.Page{Lines: []string{fmt.Sprintf("Report page %d", i+1)}}
	}
	pages[0].ContentOps = "0 0.2 0.4 RG" // #003366, inside the palette
	pages[2].ContentOps = "1 .341 .2 rg" // #FF5733, distance > tolerance

	source := memSource{"doc-1": pdftest.Build(pages)}
	registry := audit.NewRegistry()
	registry.MustRegister(audit.NewColorPaletteAuditor())

	coord := newTestCoordinator(t, source, registry)
	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDone, report.Status)
	assert.Equal(t, "standard", report.PolicyID)
	require.Len(t, report.Findings, 1)

	finding := report.Findings[0]
	assert.Equal(t, "unauthorized_color", finding.Rule)
	assert.Equal(t, 3, finding.Location.Page)
	require.Len(t, finding.Evidence, 1)
	assert.Equal(t, "#FF5733", finding.Evidence[0].Data["unauthorized_color"])
	assert.Contains(t, []any{"#003366", "#FFFFFF"}, finding.Evidence[0].Data["suggested_replacement"])

	assert.Equal(t, []string{audit.NameColorPalette}, report.Summary["auditors_run"])
	assert.Equal(t, 1, report.Summary["color_palette_unauthorized_count"])
	assert.Equal(t, 1, report.Summary["total_findings"])
	assert.Equal(t, 5, report.Summary["total_pages"])
	assert.Contains(t, report.Summary, "color_palette_duration_ms")
}

func TestRunAudit_AuditorFailureIsolated(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	registry := audit.NewRegistry()
	registry.MustRegister(&stubAuditor{
		name:     "healthy",
		findings: []types.Finding{stubFinding("healthy_rule", types.SeverityLow, 1)},
		summary:  map[string]any{"checked": 1},
	})
	registry.MustRegister(&stubAuditor{name: "broken", err: errors.New("backend unreachable")})

	coord := newTestCoordinator(t, source, registry)
	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDone, report.Status, "one failing auditor must not fail the run")
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "healthy_rule", report.Findings[0].Rule)

	assert.Equal(t, []string{"healthy"}, report.Summary["auditors_run"])
	assert.Equal(t, []string{"broken"}, report.Summary["auditors_failed"])
	assert.Contains(t, report.Summary["broken_error"], "backend unreachable")
	assert.Equal(t, 1, report.Summary["healthy_checked"])
}

func TestRunAudit_AuditorPanicIsolated(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	registry := audit.NewRegistry()
	registry.MustRegister(&stubAuditor{name: "panicky", doPanic: true})
	registry.MustRegister(&stubAuditor{
		name:     "healthy",
		findings: []types.Finding{stubFinding("healthy_rule", types.SeverityLow, 1)},
	})

	coord := newTestCoordinator(t, source, registry)
	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDone, report.Status)
	assert.Equal(t, []string{"panicky"}, report.Summary["auditors_failed"])
	assert.Contains(t, report.Summary["panicky_error"], "panicked")
	require.Len(t, report.Findings, 1)
}

func TestRunAudit_OverrideDisablesAuditor(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	registry := audit.NewRegistry()
	registry.MustRegister(&stubAuditor{name: "alpha"})
	registry.MustRegister(&stubAuditor{name: "beta"})

	coord := newTestCoordinator(t, source, registry)
	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", map[string]bool{"alpha": false})
	require.NoError(t, err)

	assert.Equal(t, []string{"beta"}, report.Summary["auditors_run"])
	assert.NotContains(t, report.Summary, "alpha_duration_ms")
}

func TestRunAudit_FindingsSorted(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	registry := audit.NewRegistry()
	registry.MustRegister(&stubAuditor{name: "alpha", findings: []types.Finding{
		stubFinding("low_rule", types.SeverityLow, 1),
		stubFinding("critical_rule", types.SeverityCritical, 4),
	}})
	registry.MustRegister(&stubAuditor{name: "beta", findings: []types.Finding{
		stubFinding("high_rule", types.SeverityHigh, 2),
	}})

	coord := newTestCoordinator(t, source, registry)
	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	require.Len(t, report.Findings, 3)
	assert.Equal(t, "critical_rule", report.Findings[0].Rule)
	assert.Equal(t, "high_rule", report.Findings[1].Rule)
	assert.Equal(t, "low_rule", report.Findings[2].Rule)
}

func TestRunAudit_FetchFailureIsFatal(t *testing.T) {
	coord := newTestCoordinator(t, memSource{}, audit.NewRegistry())

	report, err := coord.RunAudit(context.Background(), "missing-doc", "standard", nil)
	require.Error(t, err)

	var fatalErr *FatalError
	require.ErrorAs(t, err, &fatalErr)
	assert.Equal(t, CodeDocumentFetch, fatalErr.Code)

	require.NotNil(t, report)
	assert.Equal(t, types.StatusError, report.Status)
	assert.Equal(t, CodeDocumentFetch, report.Summary["error_code"])
	assert.Empty(t, report.Findings)
}

func TestRunAudit_InvalidPDFIsFatal(t *testing.T) {
	source := memSource{"doc-1": []byte("this is not a pdf")}
	coord := newTestCoordinator(t, source, audit.NewRegistry())

	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.Error(t, err)

	var fatalErr *FatalError
	require.ErrorAs(t, err, &fatalErr)
	assert.Equal(t, CodeInvalidPDF, fatalErr.Code)
	assert.Equal(t, types.StatusError, report.Status)
}

func TestRunAudit_UnknownPolicyIsFatal(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	coord := newTestCoordinator(t, source, audit.NewRegistry())

	report, err := coord.RunAudit(context.Background(), "doc-1", "no-such-policy", nil)
	require.Error(t, err)

	var fatalErr *FatalError
	require.ErrorAs(t, err, &fatalErr)
	assert.Equal(t, CodePolicyNotFound, fatalErr.Code)
	assert.Equal(t, types.StatusError, report.Status)
}

func TestRunAudit_Idempotent(t *testing.T) {
	pages := []pdftest.Page{{Lines: []string{"Report"}, ContentOps: "1 .341 .2 rg"}}
	source := memSource{"doc-1": pdftest.Build(pages)}
	registry := audit.NewRegistry()
	registry.MustRegister(audit.NewColorPaletteAuditor())

	coord := newTestCoordinator(t, source, registry)
	first, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)
	second, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.JobID, second.JobID)
	require.Equal(t, len(first.Findings), len(second.Findings))
	for i := range first.Findings {
		assert.Equal(t, first.Findings[i].Rule, second.Findings[i].Rule)
		assert.Equal(t, first.Findings[i].Issue, second.Findings[i].Issue)
		assert.Equal(t, first.Findings[i].Location, second.Findings[i].Location)
	}
	assert.Equal(t, first.Summary["total_findings"], second.Summary["total_findings"])
}

type recordingSink struct {
	reports []*types.ValidationReport
	err     error
}

func (s *recordingSink) SaveReport(_ context.Context, report *types.ValidationReport) error {
	s.reports = append(s.reports, report)
	return s.err
}

func TestRunAudit_PersistsToSink(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	sink := &recordingSink{}
	coord, err := New(Options{Source: source, Catalog: testCatalog(), Registry: audit.NewRegistry(), Sink: sink})
	require.NoError(t, err)

	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	require.Len(t, sink.reports, 1)
	assert.Equal(t, report.JobID, sink.reports[0].JobID)
}

func TestRunAudit_SinkFailureDoesNotFailRun(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	sink := &recordingSink{err: errors.New("database down")}
	coord, err := New(Options{Source: source, Catalog: testCatalog(), Registry: audit.NewRegistry(), Sink: sink})
	require.NoError(t, err)

	report, err := coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, report.Status)
}

func TestRunAudit_ProgressEvents(t *testing.T) {
	source := memSource{"doc-1": pdftest.TextPages("Quarterly report")}
	var states []State
	coord, err := New(Options{
		Source:   source,
		Catalog:  testCatalog(),
		Registry: audit.NewRegistry(),
		OnProgress: func(event ProgressEvent) {
			states = append(states, event.State)
		},
	})
	require.NoError(t, err)

	_, err = coord.RunAudit(context.Background(), "doc-1", "standard", nil)
	require.NoError(t, err)

	assert.Equal(t, []State{StateQueued, StateExtracting, StateRunningAuditors, StateAggregating, StateDone}, states)
}
