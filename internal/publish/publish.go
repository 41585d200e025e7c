// Package publish uploads finished digests and result videos to a hosting
// dataset. The uploader is a narrow contract so tests run without the hub.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"apd/internal/config"
	"apd/internal/digest"
	"apd/internal/logging"
)

// Uploader pushes one file into the dataset.
type Uploader interface {
	Upload(ctx context.Context, repoPath string, content []byte) error
}

// manifest tracks which periods have been published, stored alongside the
// digests so reruns can skip completed uploads.
type manifest struct {
	Published map[string]publishRecord `json:"published"`
}

type publishRecord struct {
	PublishedAt time.Time `json:"published_at"`
	Completed   int       `json:"completed"`
	Files       []string  `json:"files"`
}

// Publisher assembles and uploads one period's outputs.
type Publisher struct {
	uploader  Uploader
	digestDir string
	logger    *slog.Logger
}

// New builds a Publisher.
func New(cfg *config.Config, uploader Uploader, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		uploader:  uploader,
		digestDir: cfg.Paths.DigestDir,
		logger:    logger.With(logging.String(logging.FieldComponent, "publish")),
	}
}

// Publish uploads the period's digest files and completed result videos.
// Already-published periods are skipped unless force is set. The manifest is
// updated only after every upload succeeded, so a partial failure republishes
// the whole period next time; uploads are idempotent overwrites.
func (p *Publisher) Publish(ctx context.Context, report *digest.Report, mdPath, jsonPath string, force bool) error {
	m, err := p.loadManifest()
	if err != nil {
		return err
	}
	if record, ok := m.Published[report.Period]; ok && !force {
		p.logger.Info("period already published, skipping",
			logging.String(logging.FieldPeriod, report.Period),
			logging.String("published_at", record.PublishedAt.Format(time.RFC3339)))
		return nil
	}

	var uploaded []string
	upload := func(repoPath, localPath string) error {
		content, err := os.ReadFile(localPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", localPath, err)
		}
		if err := p.uploader.Upload(ctx, repoPath, content); err != nil {
			return fmt.Errorf("uploading %s: %w", repoPath, err)
		}
		uploaded = append(uploaded, repoPath)
		return nil
	}

	prefix := path.Join("digests", report.Period)
	if err := upload(prefix+".md", mdPath); err != nil {
		return err
	}
	if err := upload(prefix+".json", jsonPath); err != nil {
		return err
	}
	for _, entry := range report.Completed {
		if entry.ResultPath == "" {
			continue
		}
		if _, err := os.Stat(entry.ResultPath); err != nil {
			p.logger.Warn("result file missing, skipping upload",
				logging.String(logging.FieldPaperKey, entry.Key),
				logging.String("path", entry.ResultPath))
			continue
		}
		repoPath := path.Join("videos", report.Period, entry.Key+filepath.Ext(entry.ResultPath))
		if err := upload(repoPath, entry.ResultPath); err != nil {
			return err
		}
	}

	sort.Strings(uploaded)
	m.Published[report.Period] = publishRecord{
		PublishedAt: time.Now().UTC(),
		Completed:   len(report.Completed),
		Files:       uploaded,
	}

	// The dataset carries the merged index too, so consumers can list
	// published weeks without cloning. Local save happens last: a failed
	// index upload leaves the period unmarked and the next run retries.
	index, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata index: %w", err)
	}
	if err := p.uploader.Upload(ctx, "metadata.json", append(index, '\n')); err != nil {
		return fmt.Errorf("uploading metadata index: %w", err)
	}
	if err := p.saveManifest(m); err != nil {
		return err
	}

	p.logger.Info("period published",
		logging.String(logging.FieldPeriod, report.Period),
		logging.Int("files", len(uploaded)))
	return nil
}

func (p *Publisher) manifestPath() string {
	return filepath.Join(p.digestDir, "published.json")
}

func (p *Publisher) loadManifest() (*manifest, error) {
	m := &manifest{Published: map[string]publishRecord{}}
	data, err := os.ReadFile(p.manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading publish manifest: %w", err)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing publish manifest: %w", err)
	}
	if m.Published == nil {
		m.Published = map[string]publishRecord{}
	}
	return m, nil
}

func (p *Publisher) saveManifest(m *manifest) error {
	if err := os.MkdirAll(p.digestDir, 0o755); err != nil {
		return fmt.Errorf("preparing digest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding publish manifest: %w", err)
	}
	return os.WriteFile(p.manifestPath(), append(data, '\n'), 0o644)
}
