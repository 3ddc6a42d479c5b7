package types

// ScoreMergeMode determines how multiple scored runs of one team on one problem
// combine into the team's problem score.
type ScoreMergeMode string

// Supported score merge modes.
const (
	// ScoreMergeMaxPerGroup takes the best result of every test group independently.
	ScoreMergeMaxPerGroup ScoreMergeMode = "MAX_PER_GROUP"

	// ScoreMergeMaxTotal takes the best total of a single run.
	ScoreMergeMaxTotal ScoreMergeMode = "MAX_TOTAL"

	// ScoreMergeLast takes the total of the latest run.
	ScoreMergeLast ScoreMergeMode = "LAST"

	// ScoreMergeLastOK takes the total of the latest run without a wrong verdict.
	ScoreMergeLastOK ScoreMergeMode = "LAST_OK"

	// ScoreMergeSum sums totals of all runs.
	ScoreMergeSum ScoreMergeMode = "SUM"
)

// FTSMode controls how the first-to-solve run of a problem is chosen.
type FTSMode string

// Supported first-to-solve modes.
const (
	// FTSAuto picks the earliest accepted run.
	FTSAuto FTSMode = "auto"

	// FTSCustom forces the run named by ProblemInfo.FTSRunID.
	FTSCustom FTSMode = "custom"

	// FTSHidden never marks any run.
	FTSHidden FTSMode = "hidden"
)

// ProblemInfo represents a problem of the contest.
type ProblemInfo struct {
	// ID is the unique identifier of the problem.
	ID ProblemID `json:"id"`

	// DisplayName is the short label shown on the scoreboard, usually a letter.
	DisplayName string `json:"letter"`

	// FullName is the problem title.
	FullName string `json:"name"`

	// Ordinal defines the column order on the scoreboard.
	Ordinal int `json:"ordinal"`

	// MinScore and MaxScore bound the score of a scored problem, when known.
	MinScore *float64 `json:"minScore,omitempty"`
	MaxScore *float64 `json:"maxScore,omitempty"`

	// Color is the balloon color in "#rrggbb" form, empty when unknown.
	Color string `json:"color,omitempty"`

	// ScoreMergeMode applies to IOI contests only. Empty means ScoreMergeLast.
	ScoreMergeMode ScoreMergeMode `json:"scoreMergeMode,omitempty"`

	// IsHidden removes the problem from the scoreboard columns.
	IsHidden bool `json:"isHidden"`

	// Weight is the score a solve of this problem is worth in ICPC contests.
	// Zero is treated as 1.
	Weight int `json:"weight,omitempty"`

	// FTSMode controls first-to-solve selection. Empty means FTSAuto.
	FTSMode FTSMode `json:"ftsMode,omitempty"`

	// FTSRunID is the forced first-to-solve run for FTSCustom.
	FTSRunID *RunID `json:"ftsRunId,omitempty"`
}

// EffectiveWeight returns the weight with the default applied.
func (p ProblemInfo) EffectiveWeight() int {
	if p.Weight == 0 {
		return 1
	}
	return p.Weight
}

// EffectiveScoreMergeMode returns the merge mode with the default applied.
func (p ProblemInfo) EffectiveScoreMergeMode() ScoreMergeMode {
	if p.ScoreMergeMode == "" {
		return ScoreMergeLast
	}
	return p.ScoreMergeMode
}
