package digest_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"apd/internal/digest"
	"apd/internal/ledger"
	"apd/internal/testsupport"
)

func TestCompileSplitsByStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	done := testsupport.SeedItem(t, store, "2026-01", "P1")
	testsupport.AdvanceTo(t, store, done, ledger.StageComplete)

	testsupport.SeedItem(t, store, "2026-01", "P2")

	failedSeed := testsupport.SeedItem(t, store, "2026-01", "P3")
	if _, err := store.Transition(ctx, failedSeed.Period, failedSeed.Key, ledger.StageNew, ledger.StageFailed, ledger.Patch{
		ErrorMessage: ledger.Ptr("not found"),
		Retries:      ledger.Ptr(3),
		FailedFrom:   ledger.Ptr(ledger.StageNew),
	}); err != nil {
		t.Fatalf("failing P3: %v", err)
	}

	report, err := digest.NewCompiler(store).Compile(ctx, "2026-01", true)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if report.Total != 3 || report.Pending != 1 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if len(report.Completed) != 1 || report.Completed[0].Key != "P1" {
		t.Fatalf("unexpected completed list: %#v", report.Completed)
	}
	if len(report.Failed) != 1 || report.Failed[0].Error != "not found" || report.Failed[0].Stage != "new" {
		t.Fatalf("unexpected failed list: %#v", report.Failed)
	}
}

func TestCompileWithoutFailedAppendix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	seed := testsupport.SeedItem(t, store, "2026-01", "P1")
	if _, err := store.Transition(ctx, seed.Period, seed.Key, ledger.StageNew, ledger.StageFailed, ledger.Patch{
		ErrorMessage: ledger.Ptr("boom"),
		Retries:      ledger.Ptr(1),
		FailedFrom:   ledger.Ptr(ledger.StageNew),
	}); err != nil {
		t.Fatalf("failing P1: %v", err)
	}

	report, err := digest.NewCompiler(store).Compile(ctx, "2026-01", false)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("expected no failed appendix: %#v", report.Failed)
	}
	if report.Total != 1 {
		t.Fatalf("failed item still counts toward total: %+v", report)
	}
}

func TestWriteRendersBothFormats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	done := testsupport.SeedItem(t, store, "2026-01", "2601.03252")
	testsupport.AdvanceTo(t, store, done, ledger.StageComplete)

	compiler := digest.NewCompiler(store)
	report, err := compiler.Compile(ctx, "2026-01", true)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	dir := t.TempDir()
	mdPath, jsonPath, err := compiler.Write(report, dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("reading markdown: %v", err)
	}
	if !strings.Contains(string(md), "# Paper Digest 2026-01") {
		t.Fatalf("unexpected markdown header:\n%s", md)
	}
	if !strings.Contains(string(md), "2601.03252") {
		t.Fatalf("expected completed paper in markdown:\n%s", md)
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("reading json: %v", err)
	}
	var decoded digest.Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decoding json digest: %v", err)
	}
	if decoded.Period != "2026-01" || len(decoded.Completed) != 1 {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}
}

func TestMarkdownEmptyWeek(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	compiler := digest.NewCompiler(store)
	report, err := compiler.Compile(context.Background(), "2026-01", true)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	mdPath, _, err := compiler.Write(report, t.TempDir())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	md, _ := os.ReadFile(mdPath)
	if !strings.Contains(string(md), "No completed papers") {
		t.Fatalf("expected empty-week message:\n%s", md)
	}
}
