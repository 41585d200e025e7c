package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const itemColumns = "id, period, paper_key, title, page_url, artifact_url, artifact_path, artifact_sha256, job_ref, result_path, stage, failed_from, error_message, retries, created_at, updated_at"

// Candidate describes a discovered paper prior to insertion.
type Candidate struct {
	Key         string
	Title       string
	PageURL     string
	ArtifactURL string
}

// UpsertNew inserts an item with stage "new" if absent. If a row for the
// (period, key) pair already exists it is returned unchanged; re-discovery
// is a no-op. The boolean reports whether a row was inserted.
func (s *Store) UpsertNew(ctx context.Context, periodID string, candidate Candidate) (*Item, bool, error) {
	key := strings.TrimSpace(candidate.Key)
	if key == "" {
		return nil, false, errors.New("paper key is required")
	}
	if strings.TrimSpace(periodID) == "" {
		return nil, false, errors.New("period is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO papers (period, paper_key, title, page_url, artifact_url, stage, retries, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
         ON CONFLICT (period, paper_key) DO NOTHING`,
		periodID,
		key,
		nullableString(strings.TrimSpace(candidate.Title)),
		nullableString(strings.TrimSpace(candidate.PageURL)),
		nullableString(strings.TrimSpace(candidate.ArtifactURL)),
		StageNew,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert paper: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	item, err := s.Get(ctx, periodID, key)
	if err != nil {
		return nil, false, err
	}
	return item, affected > 0, nil
}

// Get fetches one item by its (period, key) identity.
func (s *Store) Get(ctx context.Context, periodID, key string) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM papers WHERE period = ? AND paper_key = ?`,
		periodID, key,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, periodID, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Filter narrows List results.
type Filter struct {
	Stages []Stage
	Key    string
	Limit  int
}

// List returns items for a period ordered by creation time, optionally
// filtered by stage set and a single key.
func (s *Store) List(ctx context.Context, periodID string, filter Filter) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM papers WHERE period = ?`
	args := []any{periodID}

	if len(filter.Stages) > 0 {
		query += ` AND stage IN (` + makePlaceholders(len(filter.Stages)) + `)`
		for _, stage := range filter.Stages {
			args = append(args, stage)
		}
	}
	if filter.Key != "" {
		query += ` AND paper_key = ?`
		args = append(args, filter.Key)
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats returns a count of items grouped by stage for one period.
func (s *Store) Stats(ctx context.Context, periodID string) (StatsSummary, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT stage, COUNT(1) FROM papers WHERE period = ? GROUP BY stage`,
		periodID,
	)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	summary := StatsSummary{ByStage: make(map[Stage]int)}
	for rows.Next() {
		var stage Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return StatsSummary{}, err
		}
		summary.ByStage[stage] = count
		summary.Total += count
		switch stage {
		case StageFailed:
			summary.Failed += count
		case StageComplete:
			summary.Complete += count
		}
	}
	return summary, rows.Err()
}

// Periods returns the distinct week identifiers present in the ledger,
// newest first.
func (s *Store) Periods(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT DISTINCT period FROM papers ORDER BY period DESC`)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		periodID     string
		key          string
		title        sql.NullString
		pageURL      sql.NullString
		artifactURL  sql.NullString
		artifactPath sql.NullString
		artifactSHA  sql.NullString
		jobRef       sql.NullString
		resultPath   sql.NullString
		stageStr     string
		failedFrom   sql.NullString
		errorMessage sql.NullString
		retries      int
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&periodID,
		&key,
		&title,
		&pageURL,
		&artifactURL,
		&artifactPath,
		&artifactSHA,
		&jobRef,
		&resultPath,
		&stageStr,
		&failedFrom,
		&errorMessage,
		&retries,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:             id,
		Period:         periodID,
		Key:            key,
		Title:          title.String,
		PageURL:        pageURL.String,
		ArtifactURL:    artifactURL.String,
		ArtifactPath:   artifactPath.String,
		ArtifactSHA256: artifactSHA.String,
		JobRef:         jobRef.String,
		ResultPath:     resultPath.String,
		Stage:          Stage(stageStr),
		FailedFrom:     Stage(failedFrom.String),
		ErrorMessage:   errorMessage.String,
		Retries:        retries,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
