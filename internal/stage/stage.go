// Package stage defines the contract between the pipeline driver and the
// per-stage executors. An executor performs one unit of work for one item and
// reports an Outcome; the driver owns all ledger writes.
package stage

import (
	"context"
	"fmt"

	"apd/internal/ledger"
	"apd/internal/services"
)

// Kind classifies an executor outcome.
type Kind int

const (
	// KindSuccess advances the item to the executor's target stage.
	KindSuccess Kind = iota
	// KindRetryable counts against the item's retry budget.
	KindRetryable
	// KindPermanent fails the item without consuming further attempts.
	KindPermanent
	// KindNotReady leaves the item untouched; checking again later is free.
	KindNotReady
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRetryable:
		return "retryable"
	case KindPermanent:
		return "permanent"
	case KindNotReady:
		return "not_ready"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one executor attempt on one item.
type Outcome struct {
	Kind   Kind
	Patch  ledger.Patch
	Reason string
}

// Success builds an advancing outcome carrying the field updates to persist.
func Success(patch ledger.Patch) Outcome {
	return Outcome{Kind: KindSuccess, Patch: patch}
}

// Retryable builds a failed outcome that the driver may attempt again.
func Retryable(reason string) Outcome {
	return Outcome{Kind: KindRetryable, Reason: reason}
}

// Permanent builds a failed outcome that no amount of retrying will fix.
func Permanent(reason string) Outcome {
	return Outcome{Kind: KindPermanent, Reason: reason}
}

// NotReady reports that external work is still in flight.
func NotReady(reason string) Outcome {
	return Outcome{Kind: KindNotReady, Reason: reason}
}

// FromError classifies an executor error into a retryable or permanent
// outcome using the services error taxonomy. Unknown errors are retryable.
func FromError(err error) Outcome {
	if err == nil {
		return Success(ledger.Patch{})
	}
	if services.IsPermanent(err) {
		return Permanent(err.Error())
	}
	return Retryable(err.Error())
}

// Executor performs one stage's work for a single item. Execute must not
// write to the ledger; all persistence flows through the returned Outcome.
type Executor interface {
	// Name identifies the executor in logs and summaries.
	Name() string
	// From is the stage an item must occupy to be eligible.
	From() ledger.Stage
	// To is the stage a successful outcome advances the item to.
	To() ledger.Stage
	// Execute attempts the work. It should honor ctx cancellation.
	Execute(ctx context.Context, item *ledger.Item) Outcome
}

// Health describes a readiness probe result for an executor's dependencies.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a passing probe.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a failing probe with an operator-facing detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// HealthChecker is implemented by executors that can probe their
// dependencies before a run starts.
type HealthChecker interface {
	HealthCheck(ctx context.Context) Health
}
