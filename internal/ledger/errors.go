package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the (period, key) pair has no row.
var ErrNotFound = errors.New("ledger item not found")

// ErrStaleState indicates a Transition precondition failed: the item was no
// longer in the expected stage, typically because a concurrent run or an
// earlier unfinished run already moved it. Callers skip the item and log.
var ErrStaleState = errors.New("stale ledger state")

// StaleStateError carries the stages involved in a failed transition.
type StaleStateError struct {
	Period   string
	Key      string
	Expected Stage
	Actual   Stage
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("stale ledger state: %s/%s expected %s, found %s", e.Period, e.Key, e.Expected, e.Actual)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }
