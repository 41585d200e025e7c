package main

import (
	"strings"
	"testing"

	"apd/internal/ledger"
)

func TestRenderStatusTable(t *testing.T) {
	items := []*ledger.Item{
		{Key: "2601.03252", Stage: ledger.StageComplete, Title: "Scaling Laws Revisited"},
		{Key: "2601.11111", Stage: ledger.StageFailed, FailedFrom: ledger.StageNew, Retries: 3, ErrorMessage: "not found"},
	}

	rendered := renderStatusTable(items)
	for _, want := range []string{"2601.03252", "complete", "failed (from new)", "not found"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("missing %q in rendered table:\n%s", want, rendered)
		}
	}
}

func TestSummarizeStats(t *testing.T) {
	stats := ledger.StatsSummary{
		Total: 5,
		ByStage: map[ledger.Stage]int{
			ledger.StageNew:      2,
			ledger.StageComplete: 2,
			ledger.StageFailed:   1,
		},
	}
	got := summarizeStats(stats)
	if !strings.Contains(got, "2 new") || !strings.Contains(got, "2 complete") || !strings.Contains(got, "1 failed") {
		t.Fatalf("unexpected summary: %s", got)
	}
	// Stage order is pipeline order, not alphabetical.
	if strings.Index(got, "new") > strings.Index(got, "complete") {
		t.Fatalf("expected pipeline ordering: %s", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := truncate("a very long title indeed", 10); got != "a very ..." || len(got) != 10 {
		t.Fatalf("unexpected: %q", got)
	}
}
