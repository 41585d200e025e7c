package notebooklm

import (
	"context"
	"errors"
	"testing"

	"apd/internal/services"
	"apd/internal/testsupport"
)

func newTestService(t *testing.T, run func(ctx context.Context, name string, args ...string) ([]byte, error)) *CommandService {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	svc := NewCommandService(cfg, nil)
	svc.runCommand = run
	return svc
}

func TestSubmitReturnsJobRef(t *testing.T) {
	var gotArgs []string
	svc := newTestService(t, func(_ context.Context, _ string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(`{"job_ref":"nb-42"}`), nil
	})

	ref, err := svc.Submit(context.Background(), "/data/2601.03252.pdf", "Scaling Laws Revisited")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if ref != "nb-42" {
		t.Fatalf("unexpected job ref: %s", ref)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "submit" {
		t.Fatalf("unexpected helper args: %v", gotArgs)
	}
}

func TestSubmitHelperErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		reply     string
		permanent bool
	}{
		{"rejected upload", `{"error":"upload rejected: file too large"}`, true},
		{"expired session", `{"error":"session expired, login required"}`, false},
		{"flaky backend", `{"error":"service temporarily unavailable"}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tc.reply), nil
			})
			_, err := svc.Submit(context.Background(), "/data/a.pdf", "")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := services.IsPermanent(err); got != tc.permanent {
				t.Fatalf("IsPermanent = %v, want %v (%v)", got, tc.permanent, err)
			}
		})
	}
}

func TestSubmitGarbageOutputIsTransient(t *testing.T) {
	svc := newTestService(t, func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Traceback (most recent call last):"), nil
	})
	_, err := svc.Submit(context.Background(), "/data/a.pdf", "")
	if !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestPollStates(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  PollResult
	}{
		{"pending", `{"state":"pending"}`, PollResult{State: StatePending}},
		{"done", `{"state":"done","result_path":"/results/2601.03252.mp4"}`, PollResult{State: StateDone, ResultPath: "/results/2601.03252.mp4"}},
		{"failed", `{"state":"failed","error":"generation aborted"}`, PollResult{State: StateFailed, Detail: "generation aborted"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tc.reply), nil
			})
			got, err := svc.Poll(context.Background(), "nb-42")
			if err != nil {
				t.Fatalf("Poll failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected result: %#v", got)
			}
		})
	}
}

func TestPollDoneWithoutPathIsError(t *testing.T) {
	svc := newTestService(t, func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"state":"done"}`), nil
	})
	if _, err := svc.Poll(context.Background(), "nb-42"); err == nil {
		t.Fatal("expected error for done without result path")
	}
}

func TestPollCommandFailureIsTransient(t *testing.T) {
	svc := newTestService(t, func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("fork/exec: no such file")
	})
	_, err := svc.Poll(context.Background(), "nb-42")
	if !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestAvailableRequiresCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Generator.Command = ""
	svc := NewCommandService(cfg, nil)
	if err := svc.Available(context.Background()); err == nil {
		t.Fatal("expected error for unset command")
	}
}
