// Package pipeline orchestrates stage execution against the ledger. The
// driver owns all ledger writes: executors report outcomes and the driver
// maps them to stage transitions, retry bookkeeping, and run summaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"apd/internal/config"
	"apd/internal/ledger"
	"apd/internal/logging"
	"apd/internal/period"
	"apd/internal/services"
	"apd/internal/stage"
)

// Discoverer produces candidate items for a period.
type Discoverer interface {
	Discover(ctx context.Context, id period.ID) ([]ledger.Candidate, error)
}

// Driver runs phases over the ledger, one item at a time.
type Driver struct {
	store      *ledger.Store
	executors  []stage.Executor
	discoverer Discoverer
	maxRetries int
	// itemTimeout bounds a single executor attempt; zero means no bound.
	itemTimeout time.Duration
	logger      *slog.Logger
}

// Option customizes a Driver.
type Option func(*Driver)

// WithItemTimeout bounds each executor attempt. An attempt that exceeds the
// bound is treated as a retryable failure.
func WithItemTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.itemTimeout = d }
}

// WithDiscoverer wires the candidate source used by Ingest.
func WithDiscoverer(d Discoverer) Option {
	return func(drv *Driver) { drv.discoverer = d }
}

// NewDriver builds a Driver. Executors run in the order given, which for a
// full run must follow the stage order.
func NewDriver(cfg *config.Config, store *ledger.Store, executors []stage.Executor, logger *slog.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	drv := &Driver{
		store:      store,
		executors:  executors,
		maxRetries: cfg.Pipeline.MaxRetries,
		logger:     logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
	if drv.maxRetries < 1 {
		drv.maxRetries = 1
	}
	for _, opt := range opts {
		opt(drv)
	}
	return drv
}

// PhaseOptions narrows a phase invocation.
type PhaseOptions struct {
	// Key restricts the run to one item.
	Key string
	// Limit caps how many items the phase attempts; zero means all.
	Limit int
	// Force additionally selects items failed beyond the retry budget.
	Force bool
}

// executorFor resolves a phase name.
func (d *Driver) executorFor(phase string) (stage.Executor, error) {
	for _, exec := range d.executors {
		if exec.Name() == phase {
			return exec, nil
		}
	}
	return nil, fmt.Errorf("unknown phase %q", phase)
}

// Phases lists the registered phase names in execution order.
func (d *Driver) Phases() []string {
	names := make([]string, len(d.executors))
	for i, exec := range d.executors {
		names[i] = exec.Name()
	}
	return names
}

// RunPhase selects eligible items for one phase and executes them
// sequentially. One item's failure never aborts the batch; only a ledger
// failure does.
func (d *Driver) RunPhase(ctx context.Context, periodID, phase string, opts PhaseOptions) (RunSummary, error) {
	exec, err := d.executorFor(phase)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	summary := RunSummary{RunID: runID, Phase: phase, Period: periodID}
	log := d.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldPhase, phase),
		logging.String(logging.FieldPeriod, periodID),
	)

	items, err := d.selectEligible(ctx, periodID, exec, opts)
	if err != nil {
		return summary, err
	}
	log.Info("phase starting", logging.Int("eligible", len(items)))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Attempted++
		d.runItem(ctx, log, exec, item, &summary)
	}

	log.Info("phase finished",
		logging.Int("attempted", summary.Attempted),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("retried", summary.Retried),
		logging.Int("not_ready", summary.NotReady),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed_permanent", len(summary.FailedPermanent)))
	return summary, nil
}

// RunAll chains every phase in order, ending with a single wait-free fetch
// attempt. Not-ready outcomes in the final fetch are normal.
func (d *Driver) RunAll(ctx context.Context, periodID string, opts PhaseOptions) (RunSummary, error) {
	total := RunSummary{RunID: uuid.NewString(), Phase: "full-run", Period: periodID}
	for _, exec := range d.executors {
		phaseSummary, err := d.RunPhase(ctx, periodID, exec.Name(), opts)
		total.merge(phaseSummary)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Ingest discovers candidates for a period and upserts them as new.
// Re-discovery of known items is a no-op.
func (d *Driver) Ingest(ctx context.Context, id period.ID) (added, seen int, err error) {
	if d.discoverer == nil {
		return 0, 0, errors.New("no discoverer configured")
	}
	candidates, err := d.discoverer.Discover(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	for _, candidate := range candidates {
		_, created, err := d.store.UpsertNew(ctx, id.String(), candidate)
		if err != nil {
			return added, seen, err
		}
		if created {
			added++
		}
		seen++
	}
	d.logger.Info("discovery ingested",
		logging.String(logging.FieldPeriod, id.String()),
		logging.Int("seen", seen),
		logging.Int("added", added))
	return added, seen, nil
}

// selectEligible returns the items a phase may attempt: those at the
// executor's source stage, plus failed items that failed out of that stage
// and still have retry budget. Force widens the failed selection to items at
// the cap.
func (d *Driver) selectEligible(ctx context.Context, periodID string, exec stage.Executor, opts PhaseOptions) ([]*ledger.Item, error) {
	items, err := d.store.List(ctx, periodID, ledger.Filter{
		Stages: []ledger.Stage{exec.From(), ledger.StageFailed},
		Key:    opts.Key,
	})
	if err != nil {
		return nil, err
	}

	eligible := make([]*ledger.Item, 0, len(items))
	for _, item := range items {
		if item.Stage == ledger.StageFailed {
			if item.RetryStage() != exec.From() {
				continue
			}
			if item.Retries >= d.maxRetries && !opts.Force {
				continue
			}
		}
		eligible = append(eligible, item)
		if opts.Limit > 0 && len(eligible) >= opts.Limit {
			break
		}
	}
	return eligible, nil
}

// runItem executes one item and applies the outcome to the ledger. The CAS
// precondition uses the item's observed stage, so a concurrent mutation
// surfaces as StaleStateError and the item is skipped, not corrupted.
func (d *Driver) runItem(ctx context.Context, log *slog.Logger, exec stage.Executor, item *ledger.Item, summary *RunSummary) {
	itemLog := log.With(logging.String(logging.FieldPaperKey, item.Key))

	execCtx := services.WithPaperKey(ctx, item.Key)
	execCtx = services.WithStage(execCtx, string(exec.From()))
	if d.itemTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(execCtx, d.itemTimeout)
		defer cancel()
	}
	outcome := exec.Execute(execCtx, item)

	observed := item.Stage

	switch outcome.Kind {
	case stage.KindSuccess:
		patch := outcome.Patch
		patch.Retries = ledger.Ptr(0)
		patch.ErrorMessage = ledger.Ptr("")
		patch.FailedFrom = ledger.Ptr(ledger.Stage(""))
		if _, err := d.store.Transition(ctx, item.Period, item.Key, observed, exec.To(), patch); err != nil {
			d.recordTransitionError(itemLog, err, summary)
			return
		}
		summary.Succeeded++
		itemLog.Info("item advanced", logging.String(logging.FieldStage, string(exec.To())))

	case stage.KindNotReady:
		summary.NotReady++
		itemLog.Info("item not ready", logging.String("reason", outcome.Reason))

	case stage.KindRetryable:
		retries := item.Retries + 1
		if retries > d.maxRetries {
			retries = d.maxRetries
		}
		patch := ledger.Patch{
			ErrorMessage: ledger.Ptr(outcome.Reason),
			Retries:      ledger.Ptr(retries),
			FailedFrom:   ledger.Ptr(exec.From()),
		}
		if _, err := d.store.Transition(ctx, item.Period, item.Key, observed, ledger.StageFailed, patch); err != nil {
			d.recordTransitionError(itemLog, err, summary)
			return
		}
		if retries >= d.maxRetries {
			summary.FailedPermanent = append(summary.FailedPermanent, item.Key)
			itemLog.Warn("item out of retries",
				logging.Int("retries", retries),
				logging.String("reason", outcome.Reason))
		} else {
			summary.Retried++
			itemLog.Warn("item failed, will retry",
				logging.Int("retries", retries),
				logging.String("reason", outcome.Reason))
		}

	case stage.KindPermanent:
		patch := ledger.Patch{
			ErrorMessage: ledger.Ptr(outcome.Reason),
			Retries:      ledger.Ptr(d.maxRetries),
			FailedFrom:   ledger.Ptr(exec.From()),
		}
		if _, err := d.store.Transition(ctx, item.Period, item.Key, observed, ledger.StageFailed, patch); err != nil {
			d.recordTransitionError(itemLog, err, summary)
			return
		}
		summary.FailedPermanent = append(summary.FailedPermanent, item.Key)
		itemLog.Error("item failed permanently", logging.String("reason", outcome.Reason))
	}
}

// recordTransitionError distinguishes a concurrent mutation, which skips the
// item, from ledger unavailability, which is logged and also skipped here;
// the next phase or run will surface persistent store trouble.
func (d *Driver) recordTransitionError(log *slog.Logger, err error, summary *RunSummary) {
	summary.Skipped++
	if errors.Is(err, ledger.ErrStaleState) {
		log.Warn("item mutated concurrently, skipping", logging.Error(err))
		return
	}
	log.Error("transition failed", logging.Error(err))
}
