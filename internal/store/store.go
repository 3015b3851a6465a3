// Package store provides PostgreSQL persistence for validation reports.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/doc-auditor/internal/types"
)

// Store wraps a PostgreSQL connection pool
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveReport upserts a finished report. Re-audits of the same job overwrite
// the stored row so the table always holds the latest outcome per job.
func (s *Store) SaveReport(ctx context.Context, report *types.ValidationReport) error {
	findings, err := json.Marshal(report.Findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	attachments, err := json.Marshal(report.Attachments)
	if err != nil {
		return fmt.Errorf("failed to marshal attachments: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO validation_reports (job_id, status, policy_id, findings, summary, attachments)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (job_id) DO UPDATE
		 SET status = $2, policy_id = $3, findings = $4, summary = $5, attachments = $6, created_at = NOW()`,
		report.JobID, string(report.Status), report.PolicyID, findings, summary, attachments,
	)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.JobID, err)
	}
	return nil
}

// GetReport retrieves a report by job ID. Returns nil without error when the
// job is unknown.
func (s *Store) GetReport(ctx context.Context, jobID uuid.UUID) (*types.ValidationReport, error) {
	var (
		status      string
		policyID    *string
		findings    []byte
		summary     []byte
		attachments []byte
	)

	err := s.pool.QueryRow(ctx,
		`SELECT status, policy_id, findings, summary, attachments
		 FROM validation_reports WHERE job_id = $1`,
		jobID,
	).Scan(&status, &policyID, &findings, &summary, &attachments)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report := &types.ValidationReport{JobID: jobID, Status: types.ReportStatus(status)}
	if policyID != nil {
		report.PolicyID = *policyID
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &report.Findings); err != nil {
			return nil, fmt.Errorf("failed to decode findings: %w", err)
		}
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &report.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode summary: %w", err)
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &report.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments: %w", err)
		}
	}
	return report, nil
}

// ReportSummary is a lightweight view of a stored report for listing
type ReportSummary struct {
	JobID     uuid.UUID `json:"job_id"`
	Status    string    `json:"status"`
	PolicyID  string    `json:"policy_id"`
	CreatedAt string    `json:"created_at"`
}

// ReportFilters holds optional filters for listing reports
type ReportFilters struct {
	PolicyID string
	Status   string
	Limit    int
}

// ListReports retrieves recent reports with optional filters
func (s *Store) ListReports(ctx context.Context, filters ReportFilters) ([]ReportSummary, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT job_id, status, COALESCE(policy_id, ''), created_at
		FROM validation_reports WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.PolicyID != "" {
		query += fmt.Sprintf(" AND policy_id = $%d", argNum)
		args = append(args, filters.PolicyID)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []ReportSummary
	for rows.Next() {
		var r ReportSummary
		var createdAt time.Time
		if err := rows.Scan(&r.JobID, &r.Status, &r.PolicyID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.CreatedAt = createdAt.Format(time.RFC3339)
		reports = append(reports, r)
	}
	return reports, nil
}

// DeleteReport removes a stored report
func (s *Store) DeleteReport(ctx context.Context, jobID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM validation_reports WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("report not found: %s", jobID)
	}
	return nil
}
