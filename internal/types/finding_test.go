package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank_Ordering(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), Severity("bogus").Rank())
}

func TestSeverityValid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		assert.True(t, s.Valid(), "severity %s should be valid", s)
	}
	assert.False(t, Severity("warning").Valid())
	assert.False(t, Severity("").Valid())
}

func TestNewFinding_FreshIDs(t *testing.T) {
	loc := Location{Page: 2, TextSnippet: StrPtr("EUR 1.000,00")}
	a := NewFinding(CategoryFormat, "currency_format", "malformed amount", SeverityMedium, loc)
	b := NewFinding(CategoryFormat, "currency_format", "malformed amount", SeverityMedium, loc)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "each finding gets a fresh id")
	assert.Equal(t, a.Rule, b.Rule)
	assert.Equal(t, a.Issue, b.Issue)
	assert.Equal(t, a.Location, b.Location)
}

func TestFinding_JSONRoundTrip(t *testing.T) {
	f := NewFinding(CategoryCompliance, "disclaimer_missing", "required disclaimer absent", SeverityCritical, Location{Page: 1})
	f.Evidence = []Evidence{{Kind: EvidenceText, Data: map[string]any{"template": "Capital at risk."}}}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded Finding
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, f.ID, decoded.ID)
	assert.Equal(t, CategoryCompliance, decoded.Category)
	assert.Equal(t, SeverityCritical, decoded.Severity)
	require.Len(t, decoded.Evidence, 1)
	assert.Equal(t, "Capital at risk.", decoded.Evidence[0].Data["template"])
}

func TestReportCounts(t *testing.T) {
	report := ValidationReport{
		Findings: []Finding{
			NewFinding(CategoryFormat, "font_family", "font not allowed", SeverityLow, Location{Page: 1}),
			NewFinding(CategoryFormat, "font_size", "size not allowed", SeverityLow, Location{Page: 2}),
			NewFinding(CategoryLogo, "logo_missing", "logo absent", SeverityHigh, Location{Page: 1}),
		},
	}

	bySev := report.CountBySeverity()
	assert.Equal(t, 2, bySev[SeverityLow])
	assert.Equal(t, 1, bySev[SeverityHigh])

	byCat := report.CountByCategory()
	assert.Equal(t, 2, byCat[CategoryFormat])
	assert.Equal(t, 1, byCat[CategoryLogo])
}

func TestPolicyAuditorEnabled(t *testing.T) {
	p := &Policy{Auditors: map[string]bool{"grammar": false}}
	assert.False(t, p.AuditorEnabled("grammar"))
	assert.True(t, p.AuditorEnabled("disclaimer"), "missing entries default to enabled")

	var empty Policy
	assert.True(t, empty.AuditorEnabled("logo"), "nil map defaults to enabled")
}
