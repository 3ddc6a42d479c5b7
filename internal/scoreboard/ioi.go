package scoreboard

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jjudge-oj/livefeed/types"
)

// ioiCalculator scores runs whose merged score was already computed upstream
// (see feed.WithScoreDifferences).
type ioiCalculator struct{}

func ioiResult(run types.RunInfo) (types.IOIResult, bool) {
	switch r := run.Result.(type) {
	case types.IOIResult:
		return r, true
	case types.InProgressResult, nil:
		return types.IOIResult{}, false
	default:
		panic(fmt.Sprintf("scoreboard: run %d has %T result in an IOI contest", run.ID, run.Result))
	}
}

func (ioiCalculator) Row(info types.ContestInfo, runs []types.RunInfo) types.ScoreboardRow {
	if info.ResultType != types.ResultIOI {
		panic(fmt.Sprintf("scoreboard: IOI calculator used for %s contest", info.ResultType))
	}
	problems, byProblem, attempts := visibleRunsByProblem(info, runs)

	row := types.ScoreboardRow{
		Attempts:       attempts,
		ProblemResults: make([]types.ProblemResult, 0, len(problems)),
	}
	var (
		wrong        int
		lastAccepted time.Duration
	)
	for _, problem := range problems {
		problemRuns := byProblem[problem.ID]
		counted := -1
		for i, run := range problemRuns {
			if r, ok := ioiResult(run); ok && r.Difference > 0 {
				counted = i
			}
		}

		var result types.IOIProblemResult
		scan := problemRuns
		switch {
		case counted >= 0:
			run := problemRuns[counted]
			r, _ := ioiResult(run)
			score := r.ScoreAfter
			result.Score = &score
			result.IsFirstBest = r.IsFirstBestRun
			result.LastSubmitTime = submitTime(run)
			row.TotalScore += score
			lastAccepted = max(lastAccepted, run.Time)
			scan = problemRuns[:counted]
		case len(problemRuns) > 0:
			// attempted, even if nothing is judged yet
			score := 0.0
			result.Score = &score
		}
		if counted < 0 && len(problemRuns) > 0 {
			result.LastSubmitTime = submitTime(problemRuns[len(problemRuns)-1])
		}
		for _, run := range scan {
			if r, ok := ioiResult(run); ok && r.WrongVerdict != nil && r.WrongVerdict.IsAddingPenalty {
				wrong++
			}
		}
		row.ProblemResults = append(row.ProblemResults, result)
	}
	row.Penalty = time.Duration(wrong) * info.PenaltyPerWrongAttempt
	row.LastAccepted = lastAccepted
	return row
}

func (ioiCalculator) Compare(a, b types.ScoreboardRow) int {
	if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
		return c
	}
	return cmp.Compare(a.Penalty, b.Penalty)
}
