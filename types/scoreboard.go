package types

import (
	"reflect"
	"time"
)

// ScoreboardRow is the computed standing of one team.
type ScoreboardRow struct {
	TotalScore   float64       `json:"totalScore"`
	Penalty      time.Duration `json:"penalty"`
	LastAccepted time.Duration `json:"lastAccepted"`

	// Attempts counts the visible runs on scoreboard problems.
	Attempts int `json:"attempts"`

	// ProblemResults has one entry per scoreboard problem, in column order.
	ProblemResults []ProblemResult `json:"problemResults"`
}

// Equal reports whether two rows are identical.
func (r ScoreboardRow) Equal(other ScoreboardRow) bool {
	return reflect.DeepEqual(r, other)
}

// ProblemResult is the per-problem cell of a row: ICPCProblemResult or
// IOIProblemResult.
type ProblemResult interface {
	isProblemResult()
}

// ICPCProblemResult is a solved/unsolved cell with attempt counters.
type ICPCProblemResult struct {
	WrongAttempts   int            `json:"wrongAttempts"`
	PendingAttempts int            `json:"pendingAttempts"`
	IsSolved        bool           `json:"isSolved"`
	IsFirstToSolve  bool           `json:"isFirstToSolve"`
	LastSubmitTime  *time.Duration `json:"lastSubmitTime,omitempty"`
}

// IOIProblemResult is a scored cell. Score is nil when the problem was never
// attempted.
type IOIProblemResult struct {
	Score          *float64       `json:"score,omitempty"`
	LastSubmitTime *time.Duration `json:"lastSubmitTime,omitempty"`
	IsFirstBest    bool           `json:"isFirstBest"`
}

func (ICPCProblemResult) isProblemResult() {}
func (IOIProblemResult) isProblemResult()  {}

func (r ICPCProblemResult) MarshalJSON() ([]byte, error) {
	type plain ICPCProblemResult
	return marshalTagged("ICPC", plain(r))
}

func (r IOIProblemResult) MarshalJSON() ([]byte, error) {
	type plain IOIProblemResult
	return marshalTagged("IOI", plain(r))
}
