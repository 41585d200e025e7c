package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying: network hiccups, busy
	// upstreams, expired sessions that the collaborator can refresh.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks failures that retrying cannot fix: rejected or
	// malformed artifacts, upstream jobs that ended in an error state.
	ErrPermanent = errors.New("permanent failure")
	// ErrNotFound marks locators that do not resolve (404-equivalent).
	ErrNotFound = errors.New("not found")
	// ErrAuth marks session/credential failures; the session handle is owned
	// by the collaborator, so these are retried after a refresh.
	ErrAuth = errors.New("authentication failure")
	// ErrTimeout marks operations cut short by a caller deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPermanent reports whether an error should stop automatic retries.
// Not-found locators and permanent markers qualify; everything else,
// including timeouts and auth failures, stays retryable.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) || errors.Is(err, ErrNotFound)
}

// IsTransient reports whether an error is worth retrying under the budget.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrAuth) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
