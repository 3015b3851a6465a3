package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/doc-auditor/internal/audit"
	"github.com/jonathan/doc-auditor/internal/config"
	"github.com/jonathan/doc-auditor/internal/coordinator"
	"github.com/jonathan/doc-auditor/internal/fetch"
	"github.com/jonathan/doc-auditor/internal/grammar"
	"github.com/jonathan/doc-auditor/internal/llm"
	"github.com/jonathan/doc-auditor/internal/observability"
	"github.com/jonathan/doc-auditor/internal/policy"
	"github.com/jonathan/doc-auditor/internal/schemas"
	"github.com/jonathan/doc-auditor/internal/store"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Audit a document against a compliance policy",
	Long: `Runs the full audit pipeline for one document: fetch -> extract -> resolve policy -> run auditors in parallel -> aggregate findings.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runAuditCmd,
}

var (
	runConfigPath   string
	runDocument     string
	runPolicyID     string
	runPoliciesPath string
	runDocumentsDir string
	runGrammarURL   string
	runDatabaseURL  string
	runAPIKey       string
	runDeadline     int
	runDisabled     []string
	runOutput       string
	runVerbose      bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runDocument, "document", "d", "", "Document id: a file path or an http(s) URL")
	runCommand.Flags().StringVarP(&runPolicyID, "policy", "p", policy.AutoPolicyID, "Policy id, or 'auto' to detect the client from the document")
	runCommand.Flags().StringVar(&runPoliciesPath, "policies", "", "Path to the YAML policy catalog")
	runCommand.Flags().StringVar(&runDocumentsDir, "documents-dir", "", "Base directory for relative document ids")
	runCommand.Flags().StringVar(&runGrammarURL, "grammar-url", "", "LanguageTool-compatible service URL (grammar auditor is skipped without it)")
	runCommand.Flags().IntVar(&runDeadline, "deadline", 0, "Overall run deadline in seconds (0 means none)")
	runCommand.Flags().StringSliceVar(&runDisabled, "disable", nil, "Auditor names to disable for this run")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report JSON to this file instead of stdout")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key for semantic confirmation (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for report persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}

		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("policies") {
		cfg.Policies = runPoliciesPath
	}
	if cmd.Flags().Changed("documents-dir") {
		cfg.DocumentsDir = runDocumentsDir
	}
	if cmd.Flags().Changed("grammar-url") {
		cfg.GrammarURL = runGrammarURL
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("deadline") {
		cfg.DeadlineSeconds = runDeadline
	}
	if cmd.Flags().Changed("disable") {
		cfg.DisabledAuditors = runDisabled
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Step 3: Validate required fields
	if runDocument == "" {
		return fmt.Errorf("--document is required")
	}

	// Step 4: Environment fallbacks
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	// Step 5: Assemble collaborators
	catalog, err := loadCatalog(cfg.Policies)
	if err != nil {
		return err
	}

	registry, cleanup, err := buildRegistry(ctx, &cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := coordinator.Options{
		Source:   documentSource(runDocument, cfg.DocumentsDir),
		Catalog:  catalog,
		Registry: registry,
		Deadline: time.Duration(cfg.DeadlineSeconds) * time.Second,
	}

	if cfg.DatabaseURL != "" {
		reportStore, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer reportStore.Close()
		opts.Sink = reportStore
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		opts.OnProgress = func(event coordinator.ProgressEvent) {
			_, _ = fmt.Fprintf(os.Stdout, "[%s] %s\n", event.State, event.Message)
		}
	}

	coord, err := coordinator.New(opts)
	if err != nil {
		return err
	}

	// Step 6: Run and report
	report, runErr := coord.RunAudit(ctx, runDocument, runPolicyID, cfg.AuditorOverrides())
	if report == nil {
		return runErr
	}

	if cfg.Verbose {
		printer.PrintReport(report)
		printer.PrintFindings(report.Findings)
		printer.PrintSummary(report.Summary)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if schemaErr := schemas.ValidateReportJSON(payload); schemaErr != nil {
		// Schema drift is a bug, not a run failure; surface it and continue.
		_, _ = fmt.Fprintf(os.Stderr, "Warning: report does not match schema: %v\n", schemaErr)
	}

	if runOutput != "" {
		if err := os.WriteFile(runOutput, payload, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if cfg.Verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Report written to: %s\n", runOutput)
		}
	} else if !cfg.Verbose {
		_, _ = fmt.Fprintln(os.Stdout, string(payload))
	}

	return runErr
}

// loadCatalog reads the YAML catalog, or falls back to the built-in standard
// policy when no path is configured.
func loadCatalog(path string) (*policy.Catalog, error) {
	if path == "" {
		return policy.DefaultCatalog(), nil
	}
	catalog, err := policy.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy catalog: %w", err)
	}
	return catalog, nil
}

// documentSource picks HTTP or file retrieval from the shape of the document
// id, with an in-memory cache on top.
func documentSource(documentID, baseDir string) fetch.DocumentSource {
	if strings.HasPrefix(documentID, "http://") || strings.HasPrefix(documentID, "https://") {
		return fetch.NewCachedSource(fetch.NewHTTPSource(0))
	}
	return fetch.NewCachedSource(fetch.NewFileSource(baseDir))
}

// buildRegistry registers every auditor the engine ships. Auditors whose
// external dependency is not configured are registered disabled rather than
// left out, so reports name them consistently.
func buildRegistry(ctx context.Context, cfg *config.Config) (*audit.Registry, func(), error) {
	registry := audit.NewRegistry()
	cleanup := func() {}

	registry.MustRegister(audit.NewDisclaimerAuditor())
	registry.MustRegister(audit.NewFormatAuditor())
	registry.MustRegister(audit.NewTypographyAuditor())
	registry.MustRegister(audit.NewLogoAuditor())
	registry.MustRegister(audit.NewColorPaletteAuditor())
	registry.MustRegister(audit.NewEntityConsistencyAuditor())

	if cfg.GrammarURL != "" {
		registry.MustRegister(audit.NewGrammarAuditor(grammar.NewHTTPChecker(cfg.GrammarURL, 0)))
	} else {
		registry.MustRegister(audit.NewGrammarAuditor(nil))
		cfg.DisabledAuditors = append(cfg.DisabledAuditors, audit.NameGrammar)
	}

	var llmClient llm.Client
	if cfg.APIKey != "" {
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to create LLM client: %w", err)
		}
		llmClient = client
		cleanup = func() { _ = client.Close() }
	}
	registry.MustRegister(audit.NewSemanticConsistencyAuditor(llmClient))

	return registry, cleanup, nil
}
