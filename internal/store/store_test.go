package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/doc-auditor/internal/types"
)

func TestReportSummaryType(t *testing.T) {
	// Verify the listing view struct can be instantiated and serialized
	summary := ReportSummary{
		JobID:    uuid.New(),
		Status:   "done",
		PolicyID: "standard",
	}

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"done"`)
	assert.Contains(t, string(data), `"policy_id":"standard"`)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-postgres-url")
	assert.Error(t, err)
}

// Round-trip against a real database. Skipped unless TEST_DATABASE_URL is
// set, so CI without PostgreSQL still passes.
func TestSaveAndGetReport_Integration(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := Connect(ctx, databaseURL)
	require.NoError(t, err)
	defer s.Close()

	report := &types.ValidationReport{
		JobID:    uuid.New(),
		Status:   types.StatusDone,
		PolicyID: "standard",
		Findings: []types.Finding{
			types.NewFinding(
				types.CategoryFormat,
				"unauthorized_color",
				"color #FF5733 is not in the allowed palette",
				types.SeverityMedium,
				types.Location{Page: 3},
			),
		},
		Summary: map[string]any{"total_findings": 1},
	}

	require.NoError(t, s.SaveReport(ctx, report))
	defer func() { _ = s.DeleteReport(ctx, report.JobID) }()

	got, err := s.GetReport(ctx, report.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, report.JobID, got.JobID)
	assert.Equal(t, types.StatusDone, got.Status)
	assert.Equal(t, "standard", got.PolicyID)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "unauthorized_color", got.Findings[0].Rule)

	// Unknown job id is nil, not an error
	missing, err := s.GetReport(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
