package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/doc-auditor/internal/audit"
	"github.com/jonathan/doc-auditor/internal/extraction"
	"github.com/jonathan/doc-auditor/internal/fetch"
	"github.com/jonathan/doc-auditor/internal/policy"
	"github.com/jonathan/doc-auditor/internal/types"
)

// State is a phase of one audit run. Transitions are one-directional:
// queued -> extracting -> running_auditors -> aggregating -> done | error.
// There are no retries within a single invocation; the caller decides
// whether to re-invoke.
type State string

// Run states.
const (
	StateQueued          State = "queued"
	StateExtracting      State = "extracting"
	StateRunningAuditors State = "running_auditors"
	StateAggregating     State = "aggregating"
	StateDone            State = "done"
	StateError           State = "error"
)

// ProgressEvent reports a state transition during a run.
type ProgressEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	State   State     `json:"state"`
	Message string    `json:"message"`
}

// ProgressCallback is called on every state transition.
type ProgressCallback func(event ProgressEvent)

// ReportSink persists finished reports. Persistence failures are warnings,
// never run failures.
type ReportSink interface {
	SaveReport(ctx context.Context, report *types.ValidationReport) error
}

// Options configures a Coordinator.
type Options struct {
	Source   fetch.DocumentSource // required
	Catalog  *policy.Catalog      // required
	Registry *audit.Registry      // required

	Sink       ReportSink    // optional report persistence
	Deadline   time.Duration // optional overall run deadline
	OnProgress ProgressCallback
}

// Coordinator runs audits. Safe for concurrent RunAudit calls: all per-run
// state lives in the invocation, and the shared catalog/registry are
// immutable after construction.
type Coordinator struct {
	source     fetch.DocumentSource
	resolver   *policy.Resolver
	registry   *audit.Registry
	sink       ReportSink
	deadline   time.Duration
	onProgress ProgressCallback
}

// New validates the options and builds a coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("coordinator requires a document source")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("coordinator requires a policy catalog")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("coordinator requires an auditor registry")
	}
	return &Coordinator{
		source:     opts.Source,
		resolver:   policy.NewResolver(opts.Catalog),
		registry:   opts.Registry,
		sink:       opts.Sink,
		deadline:   opts.Deadline,
		onProgress: opts.OnProgress,
	}, nil
}

// auditorOutcome is one auditor's wrapped result: either a result or the
// error/panic that was isolated from its siblings.
type auditorOutcome struct {
	name     string
	result   *audit.Result
	err      error
	duration time.Duration
}

// RunAudit executes the full pipeline for one document and returns the
// aggregated report. Fatal pre-fan-out failures return a *FatalError along
// with an error-status report; individual auditor failures are recorded in
// the report summary and still yield status done.
func (c *Coordinator) RunAudit(ctx context.Context, documentID, policyID string, enabledOverrides map[string]bool) (*types.ValidationReport, error) {
	jobID := uuid.New()
	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	c.emit(jobID, StateQueued, fmt.Sprintf("queued audit of %s", documentID))

	// Extraction phase: fetch bytes and parse fragments. Everything that
	// fails here is fatal; no auditor has run yet.
	c.emit(jobID, StateExtracting, "fetching and extracting document")

	pdfBytes, err := c.source.GetPDF(ctx, documentID)
	if err != nil {
		return c.fatal(ctx, jobID, &FatalError{Code: CodeDocumentFetch, Cause: err})
	}

	extracted, err := extraction.Extract(pdfBytes)
	if err != nil {
		code := CodeExtractionFailed
		var invalidErr *extraction.InvalidPDFError
		if errors.As(err, &invalidErr) {
			code = CodeInvalidPDF
		}
		return c.fatal(ctx, jobID, &FatalError{Code: code, Cause: err})
	}

	resolved, err := c.resolver.Resolve(policyID, &policy.Metadata{
		HeaderFragments: extracted.Fragments,
	})
	if err != nil {
		return c.fatal(ctx, jobID, &FatalError{Code: CodePolicyNotFound, Cause: err})
	}

	// Fan-out phase: one task per enabled auditor over the same immutable
	// input. No locks are needed on the shared input because nothing
	// mutates it after this point.
	enabled := c.registry.Enabled(resolved, enabledOverrides)
	c.emit(jobID, StateRunningAuditors, fmt.Sprintf("running %d auditors under policy %s", len(enabled), resolved.ID))

	input := &audit.Input{
		Fragments:  extracted.Fragments,
		Colors:     extracted.Colors,
		Images:     pageImages(extracted.Images),
		PDF:        pdfBytes,
		Policy:     resolved,
		TotalPages: extracted.TotalPages,
	}

	outcomes := make([]auditorOutcome, len(enabled))
	g, gCtx := errgroup.WithContext(ctx)
	for i, auditor := range enabled {
		i, auditor := i, auditor
		g.Go(func() error {
			outcomes[i] = runIsolated(gCtx, auditor, input)
			return nil // auditor failures are isolated, never group errors
		})
	}
	_ = g.Wait()

	c.emit(jobID, StateAggregating, "aggregating findings")
	report := aggregateReport(jobID, resolved, extracted, outcomes)

	c.persist(ctx, report)
	c.emit(jobID, StateDone, fmt.Sprintf("audit done with %d findings", len(report.Findings)))
	return report, nil
}

// runIsolated executes one auditor, converting panics and errors into an
// outcome that cannot disturb sibling auditors.
func runIsolated(ctx context.Context, auditor audit.Auditor, input *audit.Input) (outcome auditorOutcome) {
	outcome.name = auditor.Name()
	started := time.Now()
	defer func() {
		outcome.duration = time.Since(started)
		if r := recover(); r != nil {
			outcome.result = nil
			outcome.err = fmt.Errorf("auditor panicked: %v", r)
		}
	}()

	result, err := auditor.Run(ctx, input)
	if err != nil {
		outcome.err = err
		return outcome
	}
	if result == nil {
		outcome.err = fmt.Errorf("auditor returned no result")
		return outcome
	}
	outcome.result = result
	return outcome
}

// fatal builds the error-status report, persists it, and returns both the
// report and the error so callers can branch on the code.
func (c *Coordinator) fatal(ctx context.Context, jobID uuid.UUID, fatalErr *FatalError) (*types.ValidationReport, error) {
	report := &types.ValidationReport{
		JobID:    jobID,
		Status:   types.StatusError,
		Findings: []types.Finding{},
		Summary: map[string]any{
			"error":      fatalErr.Error(),
			"error_code": fatalErr.Code,
		},
	}
	c.persist(ctx, report)
	c.emit(jobID, StateError, fatalErr.Error())
	return report, fatalErr
}

func (c *Coordinator) persist(ctx context.Context, report *types.ValidationReport) {
	if c.sink == nil {
		return
	}
	if err := c.sink.SaveReport(ctx, report); err != nil {
		fmt.Printf("Warning: failed to persist report %s: %v\n", report.JobID, err)
	}
}

func (c *Coordinator) emit(jobID uuid.UUID, state State, message string) {
	if c.onProgress != nil {
		c.onProgress(ProgressEvent{JobID: jobID, State: state, Message: message})
	}
}

func pageImages(images []extraction.EmbeddedImage) []audit.PageImage {
	out := make([]audit.PageImage, 0, len(images))
	for _, img := range images {
		out = append(out, audit.PageImage{Page: img.Page, Image: img.Image})
	}
	return out
}
