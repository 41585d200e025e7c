package ledger

import "testing"

func TestParseStage(t *testing.T) {
	cases := []struct {
		input string
		want  Stage
		ok    bool
	}{
		{"new", StageNew, true},
		{"ARTIFACT_READY", StageArtifactReady, true},
		{" submitted ", StageSubmitted, true},
		{"complete", StageComplete, true},
		{"failed", StageFailed, true},
		{"done", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStage(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStage(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStageBefore(t *testing.T) {
	if !StageNew.Before(StageSubmitted) {
		t.Error("expected new before submitted")
	}
	if StageComplete.Before(StageNew) {
		t.Error("complete is not before new")
	}
	if StageFailed.Before(StageComplete) || StageNew.Before(StageFailed) {
		t.Error("failed is outside the stage order")
	}
}

func TestRetryStage(t *testing.T) {
	item := Item{Stage: StageSubmitted}
	if got := item.RetryStage(); got != StageSubmitted {
		t.Fatalf("unexpected retry stage for live item: %s", got)
	}

	item = Item{Stage: StageFailed, FailedFrom: StageArtifactReady}
	if got := item.RetryStage(); got != StageArtifactReady {
		t.Fatalf("unexpected retry stage for failed item: %s", got)
	}

	// Rows written before failed_from existed default to the start.
	item = Item{Stage: StageFailed}
	if got := item.RetryStage(); got != StageNew {
		t.Fatalf("unexpected fallback retry stage: %s", got)
	}
}
