package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/doc-auditor/internal/observability"
	"github.com/jonathan/doc-auditor/internal/store"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored validation reports",
	Long:  "Lists, shows, and deletes validation reports persisted in PostgreSQL. Requires --db-url or the DATABASE_URL environment variable.",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports",
	RunE:  runReportsList,
}

var reportsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Print one stored report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsGet,
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsDelete,
}

var (
	reportsDatabaseURL string
	reportsPolicy      string
	reportsStatus      string
	reportsLimit       int
	reportsVerbose     bool
)

func init() {
	reportsCmd.PersistentFlags().StringVar(&reportsDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")

	reportsListCmd.Flags().StringVar(&reportsPolicy, "policy", "", "Only list reports for this policy id")
	reportsListCmd.Flags().StringVar(&reportsStatus, "status", "", "Only list reports with this status (done or error)")
	reportsListCmd.Flags().IntVar(&reportsLimit, "limit", 0, "Maximum number of reports to list (default 50)")

	reportsGetCmd.Flags().BoolVarP(&reportsVerbose, "verbose", "v", false, "Print a formatted view instead of raw JSON")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsGetCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}

func connectReportStore(ctx context.Context) (*store.Store, error) {
	databaseURL := reportsDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required (set DATABASE_URL environment variable or use --db-url flag)")
	}
	return store.Connect(ctx, databaseURL)
}

func runReportsList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	reportStore, err := connectReportStore(ctx)
	if err != nil {
		return err
	}
	defer reportStore.Close()

	summaries, err := reportStore.ListReports(ctx, store.ReportFilters{
		PolicyID: reportsPolicy,
		Status:   reportsStatus,
		Limit:    reportsLimit,
	})
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No reports found")
		return nil
	}
	for _, s := range summaries {
		_, _ = fmt.Fprintf(os.Stdout, "%s  %-6s  %-20s  %s\n", s.JobID, s.Status, s.PolicyID, s.CreatedAt)
	}
	return nil
}

func runReportsGet(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id: %w", err)
	}

	reportStore, err := connectReportStore(ctx)
	if err != nil {
		return err
	}
	defer reportStore.Close()

	report, err := reportStore.GetReport(ctx, jobID)
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("report not found: %s", jobID)
	}

	if reportsVerbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintReport(report)
		printer.PrintFindings(report.Findings)
		printer.PrintSummary(report.Summary)
		return nil
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, string(payload))
	return nil
}

func runReportsDelete(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id: %w", err)
	}

	reportStore, err := connectReportStore(ctx)
	if err != nil {
		return err
	}
	defer reportStore.Close()

	if err := reportStore.DeleteReport(ctx, jobID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Deleted report %s\n", jobID)
	return nil
}
