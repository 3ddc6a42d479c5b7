// Package scoreboard computes team rows, rankings and awards from contest
// state, and maintains them incrementally over an update stream.
package scoreboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/jjudge-oj/livefeed/types"
)

// OptimismLevel selects how unjudged ICPC runs are scored.
type OptimismLevel string

// Supported optimism levels.
const (
	OptimismNormal      OptimismLevel = "normal"
	OptimismOptimistic  OptimismLevel = "optimistic"
	OptimismPessimistic OptimismLevel = "pessimistic"
)

// ParseOptimismLevel parses a level name; the empty string is normal.
func ParseOptimismLevel(s string) (OptimismLevel, error) {
	switch level := OptimismLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case "":
		return OptimismNormal, nil
	case OptimismNormal, OptimismOptimistic, OptimismPessimistic:
		return level, nil
	default:
		return "", fmt.Errorf("unknown optimism level %q", s)
	}
}

// Calculator computes rows of one scoring family and orders them.
type Calculator interface {
	// Row computes the standing of a team from its runs, sorted by time then id.
	Row(info types.ContestInfo, runs []types.RunInfo) types.ScoreboardRow

	// Compare orders rows best first. Zero means tied.
	Compare(a, b types.ScoreboardRow) int
}

// NewCalculator returns the calculator for a result type.
func NewCalculator(resultType types.ContestResultType, optimism OptimismLevel) Calculator {
	if resultType == types.ResultIOI {
		return ioiCalculator{}
	}
	switch optimism {
	case OptimismOptimistic:
		return icpcCalculator{policy: optimisticPolicy{}}
	case OptimismPessimistic:
		return icpcCalculator{policy: pessimisticPolicy{}}
	default:
		return icpcCalculator{policy: normalPolicy{}}
	}
}

// visibleRunsByProblem drops hidden runs and runs on problems that are not
// on the scoreboard, keeping the input order.
func visibleRunsByProblem(info types.ContestInfo, runs []types.RunInfo) ([]types.ProblemInfo, map[types.ProblemID][]types.RunInfo, int) {
	problems := info.ScoreboardProblems()
	onBoard := make(map[types.ProblemID]bool, len(problems))
	for _, p := range problems {
		onBoard[p.ID] = true
	}
	byProblem := make(map[types.ProblemID][]types.RunInfo)
	attempts := 0
	for _, run := range runs {
		if run.IsHidden || !onBoard[run.ProblemID] {
			continue
		}
		byProblem[run.ProblemID] = append(byProblem[run.ProblemID], run)
		attempts++
	}
	return problems, byProblem, attempts
}

func submitTime(run types.RunInfo) *time.Duration {
	t := run.Time
	return &t
}
