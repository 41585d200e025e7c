package ledger

import (
	"strings"
	"time"
)

// Stage represents an item's position in the pipeline state machine.
type Stage string

const (
	StageNew           Stage = "new"
	StageArtifactReady Stage = "artifact_ready"
	StageSubmitted     Stage = "submitted"
	StageComplete      Stage = "complete"
	StageFailed        Stage = "failed"
)

var allStages = []Stage{
	StageNew,
	StageArtifactReady,
	StageSubmitted,
	StageComplete,
	StageFailed,
}

// stageRank orders the linear stages; StageFailed sits outside the order.
var stageRank = map[Stage]int{
	StageNew:           0,
	StageArtifactReady: 1,
	StageSubmitted:     2,
	StageComplete:      3,
}

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	for _, stage := range allStages {
		if stage == normalized {
			return normalized, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further automatic processing applies.
func (s Stage) IsTerminal() bool {
	return s == StageComplete
}

// Before reports whether s precedes other in the linear stage order.
// StageFailed is ordered before nothing and after nothing.
func (s Stage) Before(other Stage) bool {
	a, okA := stageRank[s]
	b, okB := stageRank[other]
	return okA && okB && a < b
}

// Item represents one paper tracked through the pipeline, persisted in SQLite.
// A (Period, Key) pair identifies at most one row.
type Item struct {
	ID             int64
	Period         string
	Key            string
	Title          string
	PageURL        string
	ArtifactURL    string
	ArtifactPath   string
	ArtifactSHA256 string
	JobRef         string
	ResultPath     string
	Stage          Stage
	// FailedFrom records the stage the item failed out of so a retry pass
	// can re-select it for the right phase.
	FailedFrom   Stage
	ErrorMessage string
	Retries      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RetryStage returns the stage a failed item should be treated as occupying
// for eligibility purposes. Non-failed items return their own stage.
func (i *Item) RetryStage() Stage {
	if i.Stage != StageFailed {
		return i.Stage
	}
	if i.FailedFrom != "" {
		return i.FailedFrom
	}
	return StageNew
}

// Patch carries the optional field updates applied atomically with a stage
// transition. Nil fields are left untouched; non-nil empty strings clear.
type Patch struct {
	Title          *string
	ArtifactPath   *string
	ArtifactSHA256 *string
	JobRef         *string
	ResultPath     *string
	ErrorMessage   *string
	Retries        *int
	FailedFrom     *Stage
}

// Ptr is a convenience for building Patch literals.
func Ptr[T any](v T) *T { return &v }

// StatsSummary aggregates item counts per stage for one period.
type StatsSummary struct {
	Total    int
	ByStage  map[Stage]int
	Failed   int
	Complete int
}
