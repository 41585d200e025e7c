package pipeline

import "fmt"

// RunSummary reports what one driver invocation did.
type RunSummary struct {
	RunID     string
	Phase     string
	Period    string
	Attempted int
	Succeeded int
	// Retried counts items that failed retryably and stay in budget.
	Retried int
	// NotReady counts fetch attempts that found the job still running.
	NotReady int
	// Skipped counts items lost to a concurrent mutation mid-run.
	Skipped int
	// FailedPermanent lists keys that are out of automatic retries.
	FailedPermanent []string
}

func (s RunSummary) String() string {
	return fmt.Sprintf("phase=%s attempted=%d succeeded=%d retried=%d not_ready=%d skipped=%d failed_permanent=%d",
		s.Phase, s.Attempted, s.Succeeded, s.Retried, s.NotReady, s.Skipped, len(s.FailedPermanent))
}

// merge folds a phase summary into a full-run aggregate.
func (s *RunSummary) merge(other RunSummary) {
	s.Attempted += other.Attempted
	s.Succeeded += other.Succeeded
	s.Retried += other.Retried
	s.NotReady += other.NotReady
	s.Skipped += other.Skipped
	s.FailedPermanent = append(s.FailedPermanent, other.FailedPermanent...)
}
