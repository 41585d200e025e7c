// Package acquire implements the download stage: items in new get their PDF
// fetched and stored, moving to artifact_ready.
package acquire

import (
	"context"
	"io"
	"log/slog"

	"apd/internal/artifacts"
	"apd/internal/ledger"
	"apd/internal/logging"
	"apd/internal/stage"
)

// Fetcher resolves a paper key to artifact content.
type Fetcher interface {
	FetchArtifact(ctx context.Context, key string) (io.ReadCloser, error)
	PDFURL(key string) string
}

// Executor downloads artifacts into the content store.
type Executor struct {
	fetcher Fetcher
	store   *artifacts.Store
	logger  *slog.Logger
}

// NewExecutor builds the acquire stage.
func NewExecutor(fetcher Fetcher, store *artifacts.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		fetcher: fetcher,
		store:   store,
		logger:  logger.With(logging.String(logging.FieldComponent, "acquire")),
	}
}

func (e *Executor) Name() string       { return "acquire" }
func (e *Executor) From() ledger.Stage { return ledger.StageNew }
func (e *Executor) To() ledger.Stage   { return ledger.StageArtifactReady }

// Execute downloads the item's PDF. An artifact already on disk with a
// matching digest is reused without a download, which keeps reruns cheap.
func (e *Executor) Execute(ctx context.Context, item *ledger.Item) stage.Outcome {
	log := e.logger.With(
		logging.String(logging.FieldPaperKey, item.Key),
		logging.String(logging.FieldPeriod, item.Period),
	)

	if item.ArtifactPath != "" && item.ArtifactSHA256 != "" {
		ok, err := e.store.Verify(item.ArtifactPath, item.ArtifactSHA256)
		if err != nil {
			return stage.FromError(err)
		}
		if ok {
			log.Info("artifact already present, skipping download")
			return stage.Success(ledger.Patch{})
		}
		log.Warn("stored artifact digest mismatch, re-downloading")
	}

	body, err := e.fetcher.FetchArtifact(ctx, item.Key)
	if err != nil {
		return stage.FromError(err)
	}
	defer body.Close()

	path, digest, err := e.store.Put(item.Period, item.Key, body)
	if err != nil {
		return stage.FromError(err)
	}

	log.Info("artifact stored",
		logging.String("path", path),
		logging.String("sha256", digest))
	return stage.Success(ledger.Patch{
		ArtifactPath:   ledger.Ptr(path),
		ArtifactSHA256: ledger.Ptr(digest),
	})
}
