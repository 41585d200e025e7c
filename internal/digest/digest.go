// Package digest materializes the weekly report from the ledger. Both output
// formats render the same snapshot read, so they can never disagree.
package digest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"apd/internal/ledger"
)

// Entry is one completed paper in the report.
type Entry struct {
	Key        string `json:"key"`
	Title      string `json:"title,omitempty"`
	PageURL    string `json:"page_url,omitempty"`
	ResultPath string `json:"result_path,omitempty"`
	SHA256     string `json:"sha256,omitempty"`
}

// FailedEntry is one failed paper in the report appendix.
type FailedEntry struct {
	Key     string `json:"key"`
	Title   string `json:"title,omitempty"`
	Stage   string `json:"failed_from,omitempty"`
	Error   string `json:"error,omitempty"`
	Retries int    `json:"retries"`
}

// Report is one period's digest, assembled from a single ledger read.
type Report struct {
	Period      string        `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`
	Total       int           `json:"total"`
	Completed   []Entry       `json:"completed"`
	Failed      []FailedEntry `json:"failed,omitempty"`
	Pending     int           `json:"pending"`
}

// Compiler reads settled items and renders reports.
type Compiler struct {
	store *ledger.Store
	// now is swapped in tests for a stable timestamp.
	now func() time.Time
}

// NewCompiler builds a Compiler over the given store.
func NewCompiler(store *ledger.Store) *Compiler {
	return &Compiler{store: store, now: time.Now}
}

// Compile assembles the report for a period. Items still mid-pipeline are
// counted but not listed; includeFailed adds the failure appendix.
func (c *Compiler) Compile(ctx context.Context, periodID string, includeFailed bool) (*Report, error) {
	items, err := c.store.List(ctx, periodID, ledger.Filter{})
	if err != nil {
		return nil, fmt.Errorf("compiling digest for %s: %w", periodID, err)
	}

	report := &Report{
		Period:      periodID,
		GeneratedAt: c.now().UTC(),
		Total:       len(items),
	}
	for _, item := range items {
		switch item.Stage {
		case ledger.StageComplete:
			report.Completed = append(report.Completed, Entry{
				Key:        item.Key,
				Title:      item.Title,
				PageURL:    item.PageURL,
				ResultPath: item.ResultPath,
				SHA256:     item.ArtifactSHA256,
			})
		case ledger.StageFailed:
			if includeFailed {
				report.Failed = append(report.Failed, FailedEntry{
					Key:     item.Key,
					Title:   item.Title,
					Stage:   string(item.RetryStage()),
					Error:   item.ErrorMessage,
					Retries: item.Retries,
				})
			}
		default:
			report.Pending++
		}
	}
	return report, nil
}

// Write renders the report to <digestDir>/<period>.md and <period>.json,
// returning the two paths.
func (c *Compiler) Write(report *Report, digestDir string) (mdPath, jsonPath string, err error) {
	if err := os.MkdirAll(digestDir, 0o755); err != nil {
		return "", "", fmt.Errorf("preparing digest directory: %w", err)
	}

	mdPath = filepath.Join(digestDir, report.Period+".md")
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(report)), 0o644); err != nil {
		return "", "", fmt.Errorf("writing markdown digest: %w", err)
	}

	jsonPath = filepath.Join(digestDir, report.Period+".json")
	data, err := renderJSON(report)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("writing json digest: %w", err)
	}
	return mdPath, jsonPath, nil
}
