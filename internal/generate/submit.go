// Package generate implements the two generation stages: submitting stored
// artifacts to the video backend and fetching finished results. Submission
// and retrieval are separate stages because generation runs for minutes to
// hours; the pipeline never blocks waiting on it.
package generate

import (
	"context"
	"log/slog"
	"os"

	"apd/internal/ledger"
	"apd/internal/logging"
	"apd/internal/services/notebooklm"
	"apd/internal/stage"
)

// Submitter moves items from artifact_ready to submitted.
type Submitter struct {
	service notebooklm.Service
	logger  *slog.Logger
}

// NewSubmitter builds the submit stage.
func NewSubmitter(service notebooklm.Service, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Submitter{
		service: service,
		logger:  logger.With(logging.String(logging.FieldComponent, "submit")),
	}
}

func (s *Submitter) Name() string       { return "submit" }
func (s *Submitter) From() ledger.Stage { return ledger.StageArtifactReady }
func (s *Submitter) To() ledger.Stage   { return ledger.StageSubmitted }

// Execute uploads the item's artifact and records the job reference. A
// missing artifact file is permanent: the acquire stage owns repair, and
// force-resetting the item back to new is the operator path.
func (s *Submitter) Execute(ctx context.Context, item *ledger.Item) stage.Outcome {
	if item.ArtifactPath == "" {
		return stage.Permanent("item has no artifact path")
	}
	if _, err := os.Stat(item.ArtifactPath); err != nil {
		return stage.Permanent("artifact file missing: " + item.ArtifactPath)
	}

	jobRef, err := s.service.Submit(ctx, item.ArtifactPath, item.Title)
	if err != nil {
		return stage.FromError(err)
	}

	s.logger.Info("submitted for generation",
		logging.String(logging.FieldPaperKey, item.Key),
		logging.String("job_ref", jobRef))
	return stage.Success(ledger.Patch{JobRef: ledger.Ptr(jobRef)})
}

// HealthCheck probes the generation backend before a run.
func (s *Submitter) HealthCheck(ctx context.Context) stage.Health {
	if err := s.service.Available(ctx); err != nil {
		return stage.Unhealthy("submit", err.Error())
	}
	return stage.Healthy("submit")
}
