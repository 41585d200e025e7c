package testsupport

import (
	"context"
	"testing"

	"apd/internal/config"
	"apd/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedItem inserts a new item for tests using the provided store.
func SeedItem(t testing.TB, store *ledger.Store, periodID, key string) *ledger.Item {
	t.Helper()

	item, _, err := store.UpsertNew(context.Background(), periodID, ledger.Candidate{
		Key:         key,
		Title:       "Paper " + key,
		PageURL:     "https://papers.test/" + key,
		ArtifactURL: "https://arxiv.test/pdf/" + key,
	})
	if err != nil {
		t.Fatalf("store.UpsertNew: %v", err)
	}
	return item
}

// AdvanceTo walks an item forward through successful transitions until it
// reaches the target stage.
func AdvanceTo(t testing.TB, store *ledger.Store, item *ledger.Item, target ledger.Stage) *ledger.Item {
	t.Helper()

	steps := []struct {
		from  ledger.Stage
		to    ledger.Stage
		patch ledger.Patch
	}{
		{ledger.StageNew, ledger.StageArtifactReady, ledger.Patch{
			ArtifactPath:   ledger.Ptr("/tmp/" + item.Key + ".pdf"),
			ArtifactSHA256: ledger.Ptr("hash-" + item.Key),
		}},
		{ledger.StageArtifactReady, ledger.StageSubmitted, ledger.Patch{
			JobRef: ledger.Ptr("job-" + item.Key),
		}},
		{ledger.StageSubmitted, ledger.StageComplete, ledger.Patch{
			ResultPath: ledger.Ptr("/tmp/" + item.Key + ".mp4"),
		}},
	}

	current := item
	for _, step := range steps {
		if current.Stage == target {
			return current
		}
		if current.Stage != step.from {
			continue
		}
		next, err := store.Transition(context.Background(), current.Period, current.Key, step.from, step.to, step.patch)
		if err != nil {
			t.Fatalf("transition %s -> %s: %v", step.from, step.to, err)
		}
		current = next
	}
	if current.Stage != target {
		t.Fatalf("could not advance %s to %s (at %s)", item.Key, target, current.Stage)
	}
	return current
}
