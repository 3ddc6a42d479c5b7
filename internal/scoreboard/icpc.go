package scoreboard

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jjudge-oj/livefeed/types"
)

// icpcPolicy decides how a run counts, given its index among the runs of its
// problem and the number of those runs.
type icpcPolicy interface {
	accepted(run types.RunInfo, index, count int) bool
	pending(run types.RunInfo, index, count int) bool
	addingPenalty(run types.RunInfo, index, count int) bool
}

func icpcResult(run types.RunInfo) (types.ICPCResult, bool) {
	switch r := run.Result.(type) {
	case types.ICPCResult:
		return r, true
	case types.InProgressResult, nil:
		return types.ICPCResult{}, false
	default:
		panic(fmt.Sprintf("scoreboard: run %d has %T result in an ICPC contest", run.ID, run.Result))
	}
}

func isAccepted(run types.RunInfo) bool {
	r, judged := icpcResult(run)
	return judged && r.Verdict.IsAccepted
}

func isAddingPenalty(run types.RunInfo) bool {
	r, judged := icpcResult(run)
	return judged && r.Verdict.IsAddingPenalty
}

func isJudged(run types.RunInfo) bool {
	_, judged := icpcResult(run)
	return judged
}

type normalPolicy struct{}

func (normalPolicy) accepted(run types.RunInfo, _, _ int) bool { return isAccepted(run) }
func (normalPolicy) pending(run types.RunInfo, _, _ int) bool  { return !isJudged(run) }
func (normalPolicy) addingPenalty(run types.RunInfo, _, _ int) bool {
	return isAddingPenalty(run)
}

// optimisticPolicy presumes the last unjudged attempt is accepted.
type optimisticPolicy struct{}

func (optimisticPolicy) accepted(run types.RunInfo, index, count int) bool {
	return isAccepted(run) || (!isJudged(run) && index == count-1)
}

func (optimisticPolicy) pending(types.RunInfo, int, int) bool { return false }

func (optimisticPolicy) addingPenalty(run types.RunInfo, index, count int) bool {
	return isAddingPenalty(run) || (!isJudged(run) && index != count-1)
}

// pessimisticPolicy charges every unjudged attempt as wrong.
type pessimisticPolicy struct{}

func (pessimisticPolicy) accepted(run types.RunInfo, _, _ int) bool { return isAccepted(run) }
func (pessimisticPolicy) pending(types.RunInfo, int, int) bool      { return false }
func (pessimisticPolicy) addingPenalty(run types.RunInfo, _, _ int) bool {
	return !isJudged(run) || isAddingPenalty(run)
}

type icpcCalculator struct {
	policy icpcPolicy
}

func (c icpcCalculator) Row(info types.ContestInfo, runs []types.RunInfo) types.ScoreboardRow {
	if info.ResultType != types.ResultICPC {
		panic(fmt.Sprintf("scoreboard: ICPC calculator used for %s contest", info.ResultType))
	}
	penalty := NewPenaltyCalculator(info.PenaltyRoundingMode, info.PenaltyPerWrongAttempt)
	problems, byProblem, attempts := visibleRunsByProblem(info, runs)

	row := types.ScoreboardRow{
		Attempts:       attempts,
		ProblemResults: make([]types.ProblemResult, 0, len(problems)),
	}
	var lastAccepted time.Duration
	for _, problem := range problems {
		problemRuns := byProblem[problem.ID]
		count := len(problemRuns)
		okIndex := -1
		for i, run := range problemRuns {
			if c.policy.accepted(run, i, count) {
				okIndex = i
				break
			}
		}
		before := problemRuns
		if okIndex >= 0 {
			before = problemRuns[:okIndex]
		}

		result := types.ICPCProblemResult{IsSolved: okIndex >= 0}
		for i, run := range before {
			if c.policy.addingPenalty(run, i, count) {
				result.WrongAttempts++
			}
			if c.policy.pending(run, i, count) {
				result.PendingAttempts++
			}
		}
		switch {
		case okIndex >= 0:
			ok := problemRuns[okIndex]
			r, _ := icpcResult(ok)
			result.IsFirstToSolve = r.IsFirstToSolveRun
			result.LastSubmitTime = submitTime(ok)
			row.TotalScore += float64(problem.EffectiveWeight())
			penalty.AddSolvedProblem(ok.Time, result.WrongAttempts)
			lastAccepted = max(lastAccepted, ok.Time)
		case len(before) > 0:
			result.LastSubmitTime = submitTime(before[len(before)-1])
		}
		row.ProblemResults = append(row.ProblemResults, result)
	}
	row.Penalty = penalty.Penalty()
	row.LastAccepted = lastAccepted
	return row
}

func (icpcCalculator) Compare(a, b types.ScoreboardRow) int {
	if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Penalty, b.Penalty); c != 0 {
		return c
	}
	return cmp.Compare(a.LastAccepted, b.LastAccepted)
}
