package ledger

import (
	"context"
	"fmt"
	"time"
)

// Transition atomically moves an item from one stage to another, applying the
// patch in the same statement. The UPDATE is conditioned on the expected
// current stage; if the row is no longer in that stage the call fails closed
// with a StaleStateError and nothing is applied.
func (s *Store) Transition(ctx context.Context, periodID, key string, from, to Stage, patch Patch) (*Item, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("transition %s/%s: from and to stages are required", periodID, key)
	}

	setClauses := []string{"stage = ?", "updated_at = ?"}
	args := []any{to, time.Now().UTC().Format(time.RFC3339Nano)}

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		appendSet("title", nullableString(*patch.Title))
	}
	if patch.ArtifactPath != nil {
		appendSet("artifact_path", nullableString(*patch.ArtifactPath))
	}
	if patch.ArtifactSHA256 != nil {
		appendSet("artifact_sha256", nullableString(*patch.ArtifactSHA256))
	}
	if patch.JobRef != nil {
		appendSet("job_ref", nullableString(*patch.JobRef))
	}
	if patch.ResultPath != nil {
		appendSet("result_path", nullableString(*patch.ResultPath))
	}
	if patch.ErrorMessage != nil {
		appendSet("error_message", nullableString(*patch.ErrorMessage))
	}
	if patch.Retries != nil {
		appendSet("retries", *patch.Retries)
	}
	if patch.FailedFrom != nil {
		appendSet("failed_from", nullableString(string(*patch.FailedFrom)))
	}

	query := "UPDATE papers SET "
	for i, clause := range setClauses {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE period = ? AND paper_key = ? AND stage = ?"
	args = append(args, periodID, key, from)

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transition %s/%s: %w", periodID, key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("transition %s/%s: rows affected: %w", periodID, key, err)
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, periodID, key)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &StaleStateError{Period: periodID, Key: key, Expected: from, Actual: current.Stage}
	}

	return s.Get(ctx, periodID, key)
}

// ForceReset is the administrative override behind "force re-process": it
// sets the stage unconditionally and clears error, retry, and failure
// bookkeeping. It is not reachable from normal pipeline execution.
func (s *Store) ForceReset(ctx context.Context, periodID, key string, target Stage) (*Item, error) {
	if target == "" {
		return nil, fmt.Errorf("force reset %s/%s: target stage is required", periodID, key)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE papers
         SET stage = ?, error_message = NULL, retries = 0, failed_from = NULL, updated_at = ?
         WHERE period = ? AND paper_key = ?`,
		target,
		time.Now().UTC().Format(time.RFC3339Nano),
		periodID,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("force reset %s/%s: %w", periodID, key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("force reset %s/%s: rows affected: %w", periodID, key, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, periodID, key)
	}

	return s.Get(ctx, periodID, key)
}
