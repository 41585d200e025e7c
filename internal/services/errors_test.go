package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"apd/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "acquire", "download", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"acquire", "download", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "submit", "trigger", "no marker", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
		transient bool
	}{
		{"not found", services.Wrap(services.ErrNotFound, "acquire", "download", "gone", nil), true, false},
		{"permanent", services.Wrap(services.ErrPermanent, "submit", "upload", "rejected", nil), true, false},
		{"auth", services.Wrap(services.ErrAuth, "submit", "login", "expired", nil), false, true},
		{"timeout", services.Wrap(services.ErrTimeout, "fetch", "poll", "slow", nil), false, true},
		{"deadline", context.DeadlineExceeded, false, true},
		{"plain", errors.New("io"), false, false},
		{"nil", nil, false, false},
	}
	for _, tc := range cases {
		if got := services.IsPermanent(tc.err); got != tc.permanent {
			t.Fatalf("%s: IsPermanent = %v", tc.name, got)
		}
		if got := services.IsTransient(tc.err); got != tc.transient {
			t.Fatalf("%s: IsTransient = %v", tc.name, got)
		}
	}
}
