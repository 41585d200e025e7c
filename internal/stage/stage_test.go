package stage

import (
	"fmt"
	"testing"

	"apd/internal/ledger"
	"apd/internal/services"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindSuccess:   "success",
		KindRetryable: "retryable",
		KindPermanent: "permanent",
		KindNotReady:  "not_ready",
		Kind(42):      "kind(42)",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestConstructors(t *testing.T) {
	patch := ledger.Patch{JobRef: ledger.Ptr("job-1")}
	if out := Success(patch); out.Kind != KindSuccess || out.Patch.JobRef == nil {
		t.Fatalf("unexpected success outcome: %#v", out)
	}
	if out := Retryable("timeout"); out.Kind != KindRetryable || out.Reason != "timeout" {
		t.Fatalf("unexpected retryable outcome: %#v", out)
	}
	if out := Permanent("gone"); out.Kind != KindPermanent || out.Reason != "gone" {
		t.Fatalf("unexpected permanent outcome: %#v", out)
	}
	if out := NotReady("still rendering"); out.Kind != KindNotReady || out.Reason != "still rendering" {
		t.Fatalf("unexpected not-ready outcome: %#v", out)
	}
}

func TestFromError(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindSuccess},
		{fmt.Errorf("download: %w", services.ErrTransient), KindRetryable},
		{fmt.Errorf("artifact: %w", services.ErrNotFound), KindPermanent},
		{fmt.Errorf("reject: %w", services.ErrPermanent), KindPermanent},
		{fmt.Errorf("opaque failure"), KindRetryable},
	}
	for _, tc := range cases {
		if got := FromError(tc.err).Kind; got != tc.want {
			t.Errorf("FromError(%v).Kind = %s, want %s", tc.err, got, tc.want)
		}
	}
}
