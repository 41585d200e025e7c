package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"apd/internal/ledger"
	"apd/internal/testsupport"
)

func TestUpsertNewIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	first, created, err := store.UpsertNew(ctx, "2026-01", ledger.Candidate{Key: "2601.03252", Title: "First"})
	if err != nil {
		t.Fatalf("UpsertNew failed: %v", err)
	}
	if !created {
		t.Fatal("expected first upsert to insert")
	}
	if first.Stage != ledger.StageNew {
		t.Fatalf("expected stage new, got %s", first.Stage)
	}

	second, created, err := store.UpsertNew(ctx, "2026-01", ledger.Candidate{Key: "2601.03252", Title: "Different title"})
	if err != nil {
		t.Fatalf("second UpsertNew failed: %v", err)
	}
	if created {
		t.Fatal("expected second upsert to be a no-op")
	}
	if second.ID != first.ID || second.Title != "First" {
		t.Fatalf("expected existing row unchanged, got %#v", second)
	}

	items, err := store.List(ctx, "2026-01", ledger.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one row, got %d", len(items))
	}
}

func TestUpsertNewSamePaperDifferentPeriods(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	if _, _, err := store.UpsertNew(ctx, "2026-01", ledger.Candidate{Key: "2601.00001"}); err != nil {
		t.Fatalf("UpsertNew failed: %v", err)
	}
	if _, created, err := store.UpsertNew(ctx, "2026-02", ledger.Candidate{Key: "2601.00001"}); err != nil || !created {
		t.Fatalf("expected insert in second period, created=%v err=%v", created, err)
	}
}

func TestUpsertNewRequiresKeyAndPeriod(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	if _, _, err := store.UpsertNew(ctx, "2026-01", ledger.Candidate{}); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, _, err := store.UpsertNew(ctx, " ", ledger.Candidate{Key: "2601.00001"}); err == nil {
		t.Fatal("expected error for missing period")
	}
}

func TestTransitionAppliesPatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	item := testsupport.SeedItem(t, store, "2026-01", "2601.03252")

	updated, err := store.Transition(ctx, item.Period, item.Key, ledger.StageNew, ledger.StageArtifactReady, ledger.Patch{
		ArtifactPath:   ledger.Ptr("/data/2026-01/2601.03252.pdf"),
		ArtifactSHA256: ledger.Ptr("abc123"),
		Retries:        ledger.Ptr(0),
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if updated.Stage != ledger.StageArtifactReady {
		t.Fatalf("unexpected stage: %s", updated.Stage)
	}
	if updated.ArtifactSHA256 != "abc123" {
		t.Fatalf("expected hash applied, got %q", updated.ArtifactSHA256)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Fatalf("expected updated_at refreshed: %v vs %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestTransitionFailsClosedOnStaleStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	item := testsupport.SeedItem(t, store, "2026-01", "2601.03252")

	_, err := store.Transition(ctx, item.Period, item.Key, ledger.StageArtifactReady, ledger.StageSubmitted, ledger.Patch{
		JobRef: ledger.Ptr("job-9"),
	})
	if !errors.Is(err, ledger.ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}

	var stale *ledger.StaleStateError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleStateError, got %T", err)
	}
	if stale.Expected != ledger.StageArtifactReady || stale.Actual != ledger.StageNew {
		t.Fatalf("unexpected stale detail: %+v", stale)
	}

	// Nothing partially applied.
	current, err := store.Get(ctx, item.Period, item.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if current.Stage != ledger.StageNew || current.JobRef != "" {
		t.Fatalf("expected row untouched, got %#v", current)
	}
}

func TestTransitionUnknownItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	_, err := store.Transition(context.Background(), "2026-01", "nope", ledger.StageNew, ledger.StageArtifactReady, ledger.Patch{})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	item := testsupport.SeedItem(t, store, "2026-01", "2601.03252")

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.Transition(ctx, item.Period, item.Key, ledger.StageNew, ledger.StageArtifactReady, ledger.Patch{
				ArtifactSHA256: ledger.Ptr(fmt.Sprintf("hash-%d", n)),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, stale int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ledger.ErrStaleState):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (stale %d)", wins, stale)
	}

	current, err := store.Get(ctx, item.Period, item.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if current.Stage != ledger.StageArtifactReady {
		t.Fatalf("expected winner's stage, got %s", current.Stage)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	a := testsupport.SeedItem(t, store, "2026-01", "2601.00001")
	b := testsupport.SeedItem(t, store, "2026-01", "2601.00002")
	testsupport.SeedItem(t, store, "2026-02", "2602.00001")

	testsupport.AdvanceTo(t, store, b, ledger.StageArtifactReady)

	all, err := store.List(ctx, "2026-01", ledger.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 || all[0].Key != a.Key {
		t.Fatalf("unexpected listing: %#v", all)
	}

	ready, err := store.List(ctx, "2026-01", ledger.Filter{Stages: []ledger.Stage{ledger.StageArtifactReady}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ready) != 1 || ready[0].Key != b.Key {
		t.Fatalf("unexpected stage filter result: %#v", ready)
	}

	byKey, err := store.List(ctx, "2026-01", ledger.Filter{Key: a.Key})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byKey) != 1 || byKey[0].Key != a.Key {
		t.Fatalf("unexpected key filter result: %#v", byKey)
	}

	capped, err := store.List(ctx, "2026-01", ledger.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(capped) != 1 {
		t.Fatalf("expected limit respected, got %d", len(capped))
	}
}

func TestForceResetClearsFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	item := testsupport.SeedItem(t, store, "2026-01", "2601.03252")

	failed, err := store.Transition(ctx, item.Period, item.Key, ledger.StageNew, ledger.StageFailed, ledger.Patch{
		ErrorMessage: ledger.Ptr("not found"),
		Retries:      ledger.Ptr(3),
		FailedFrom:   ledger.Ptr(ledger.StageNew),
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if failed.Stage != ledger.StageFailed || failed.Retries != 3 || failed.ErrorMessage == "" {
		t.Fatalf("unexpected failed item: %#v", failed)
	}
	if failed.RetryStage() != ledger.StageNew {
		t.Fatalf("unexpected retry stage: %s", failed.RetryStage())
	}

	reset, err := store.ForceReset(ctx, item.Period, item.Key, ledger.StageArtifactReady)
	if err != nil {
		t.Fatalf("ForceReset failed: %v", err)
	}
	if reset.Stage != ledger.StageArtifactReady {
		t.Fatalf("unexpected stage after reset: %s", reset.Stage)
	}
	if reset.ErrorMessage != "" || reset.Retries != 0 || reset.FailedFrom != "" {
		t.Fatalf("expected failure bookkeeping cleared, got %#v", reset)
	}
}

func TestForceResetUnknownItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if _, err := store.ForceReset(context.Background(), "2026-01", "nope", ledger.StageNew); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsCountsPerStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	a := testsupport.SeedItem(t, store, "2026-01", "2601.00001")
	testsupport.SeedItem(t, store, "2026-01", "2601.00002")
	testsupport.AdvanceTo(t, store, a, ledger.StageComplete)

	stats, err := store.Stats(ctx, "2026-01")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Complete != 1 || stats.ByStage[ledger.StageNew] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}
