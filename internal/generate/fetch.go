package generate

import (
	"context"
	"log/slog"

	"apd/internal/ledger"
	"apd/internal/logging"
	"apd/internal/services/notebooklm"
	"apd/internal/stage"
)

// ResultFetcher moves items from submitted to complete by polling the
// generation backend.
type ResultFetcher struct {
	service notebooklm.Service
	logger  *slog.Logger
}

// NewResultFetcher builds the fetch stage.
func NewResultFetcher(service notebooklm.Service, logger *slog.Logger) *ResultFetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ResultFetcher{
		service: service,
		logger:  logger.With(logging.String(logging.FieldComponent, "fetch")),
	}
}

func (f *ResultFetcher) Name() string       { return "fetch" }
func (f *ResultFetcher) From() ledger.Stage { return ledger.StageSubmitted }
func (f *ResultFetcher) To() ledger.Stage   { return ledger.StageComplete }

// Execute polls the item's job once. A still-running job reports NotReady,
// which costs nothing against the retry budget; polling is free.
func (f *ResultFetcher) Execute(ctx context.Context, item *ledger.Item) stage.Outcome {
	if item.JobRef == "" {
		return stage.Permanent("item has no job reference")
	}

	result, err := f.service.Poll(ctx, item.JobRef)
	if err != nil {
		return stage.FromError(err)
	}

	switch result.State {
	case notebooklm.StatePending:
		return stage.NotReady("generation still running")
	case notebooklm.StateDone:
		f.logger.Info("result ready",
			logging.String(logging.FieldPaperKey, item.Key),
			logging.String("path", result.ResultPath))
		return stage.Success(ledger.Patch{ResultPath: ledger.Ptr(result.ResultPath)})
	case notebooklm.StateFailed:
		reason := result.Detail
		if reason == "" {
			reason = "generation failed"
		}
		return stage.Permanent(reason)
	default:
		return stage.Retryable("unknown job state: " + string(result.State))
	}
}

// HealthCheck probes the generation backend before a run.
func (f *ResultFetcher) HealthCheck(ctx context.Context) stage.Health {
	if err := f.service.Available(ctx); err != nil {
		return stage.Unhealthy("fetch", err.Error())
	}
	return stage.Healthy("fetch")
}
