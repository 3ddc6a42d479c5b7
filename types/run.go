package types

import (
	"reflect"
	"time"
)

// RunInfo represents one submission of a team to a problem as seen on the scoreboard.
// Values are immutable; an update of a run produces a new RunInfo with the same ID.
type RunInfo struct {
	// ID is the unique identifier of the run.
	ID RunID `json:"id"`

	// Result is the judging state of the run. It is one of ICPCResult,
	// IOIResult or InProgressResult and is never nil.
	Result RunResult `json:"result"`

	// ProblemID identifies the problem this run is for.
	ProblemID ProblemID `json:"problemId"`

	// TeamID identifies the team that made the run.
	TeamID TeamID `json:"teamId"`

	// Time is the submission time relative to the contest start.
	Time time.Duration `json:"time"`

	// LanguageID identifies the language used, if known.
	LanguageID *LanguageID `json:"languageId,omitempty"`

	// TestedTime is the contest-relative time at which judging finished.
	TestedTime *time.Duration `json:"testedTime,omitempty"`

	// ReactionVideos lists recordings of the team made around submission time.
	ReactionVideos []MediaType `json:"reactionVideos,omitempty"`

	// IsHidden excludes the run from scoreboard computation.
	// Hidden runs are still kept in the contest state.
	IsHidden bool `json:"isHidden"`
}

// Equal reports whether two runs carry identical data.
func (r RunInfo) Equal(other RunInfo) bool {
	return reflect.DeepEqual(r, other)
}

// IsJudged reports whether the run has a final result.
func (r RunInfo) IsJudged() bool {
	_, inProgress := r.Result.(InProgressResult)
	return r.Result != nil && !inProgress
}

// RunResult is the closed set of run judging states.
type RunResult interface {
	isRunResult()
}

// ICPCResult is a final pass/fail verdict of an ICPC-style contest.
type ICPCResult struct {
	// Verdict is the judging outcome.
	Verdict Verdict `json:"verdict"`

	// IsFirstToSolveRun marks the earliest accepted run on the problem.
	IsFirstToSolveRun bool `json:"isFirstToSolveRun"`
}

// IOIResult is a scored result of an IOI-style contest.
type IOIResult struct {
	// Score holds the points per test group.
	Score []float64 `json:"score"`

	// WrongVerdict is set when the run failed with a verdict. Such runs may still
	// have partial score.
	WrongVerdict *Verdict `json:"wrongVerdict,omitempty"`

	// Difference is how much the run changed the team's merged score on the problem.
	Difference float64 `json:"difference"`

	// ScoreAfter is the team's merged problem score after this run.
	ScoreAfter float64 `json:"scoreAfter"`

	// IsFirstBestRun marks the earliest run reaching the best score on the problem
	// across all teams.
	IsFirstBestRun bool `json:"isFirstBestRun"`

	// IsFirstBestTeamRun marks the team's run that achieved its final problem score.
	IsFirstBestTeamRun bool `json:"isFirstBestTeamRun"`
}

// Total returns the sum of the score over all test groups.
func (r IOIResult) Total() float64 {
	total := 0.0
	for _, s := range r.Score {
		total += s
	}
	return total
}

// InProgressResult is a run which is still being judged.
type InProgressResult struct {
	// TestedPart is the fraction of tests already judged, in [0, 1).
	TestedPart float64 `json:"testedPart"`
}

func (ICPCResult) isRunResult()       {}
func (IOIResult) isRunResult()        {}
func (InProgressResult) isRunResult() {}

func (r ICPCResult) MarshalJSON() ([]byte, error) {
	type plain ICPCResult
	return marshalTagged("ICPC", plain(r))
}

func (r IOIResult) MarshalJSON() ([]byte, error) {
	type plain IOIResult
	return marshalTagged("IOI", plain(r))
}

func (r InProgressResult) MarshalJSON() ([]byte, error) {
	type plain InProgressResult
	return marshalTagged("IN_PROGRESS", plain(r))
}
