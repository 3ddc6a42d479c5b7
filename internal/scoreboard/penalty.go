package scoreboard

import (
	"time"

	"github.com/jjudge-oj/livefeed/types"
)

// PenaltyCalculator accumulates the penalty of one team row.
type PenaltyCalculator interface {
	AddSolvedProblem(time time.Duration, wrongAttempts int)
	Penalty() time.Duration
}

// NewPenaltyCalculator returns a fresh calculator for the rounding mode.
// Unknown modes fall back to each_submission_down_to_minute.
func NewPenaltyCalculator(mode types.PenaltyRoundingMode, perWrongAttempt time.Duration) PenaltyCalculator {
	switch mode {
	case types.PenaltyEachSubmissionUpToMinute:
		return &eachSubmissionUpPenalty{perWrong: perWrongAttempt}
	case types.PenaltySumDownToMinute:
		return &sumDownPenalty{perWrong: perWrongAttempt}
	case types.PenaltySumInSeconds:
		return &sumInSecondsPenalty{perWrong: perWrongAttempt}
	case types.PenaltyLast:
		return &lastPenalty{perWrong: perWrongAttempt}
	case types.PenaltyZero:
		return zeroPenalty{}
	default:
		return &eachSubmissionDownPenalty{perWrong: perWrongAttempt}
	}
}

type zeroPenalty struct{}

func (zeroPenalty) AddSolvedProblem(time.Duration, int) {}
func (zeroPenalty) Penalty() time.Duration              { return 0 }

type eachSubmissionDownPenalty struct {
	perWrong time.Duration
	total    time.Duration
}

func (p *eachSubmissionDownPenalty) AddSolvedProblem(t time.Duration, wrongAttempts int) {
	p.total += t.Truncate(time.Minute) + time.Duration(wrongAttempts)*p.perWrong
}

func (p *eachSubmissionDownPenalty) Penalty() time.Duration { return p.total }

type eachSubmissionUpPenalty struct {
	perWrong time.Duration
	total    time.Duration
}

func (p *eachSubmissionUpPenalty) AddSolvedProblem(t time.Duration, wrongAttempts int) {
	minutes := t.Truncate(time.Minute)
	if minutes != t {
		minutes += time.Minute
	}
	p.total += minutes + time.Duration(wrongAttempts)*p.perWrong
}

func (p *eachSubmissionUpPenalty) Penalty() time.Duration { return p.total }

type sumDownPenalty struct {
	perWrong time.Duration
	total    time.Duration
}

func (p *sumDownPenalty) AddSolvedProblem(t time.Duration, wrongAttempts int) {
	p.total += t + time.Duration(wrongAttempts)*p.perWrong
}

func (p *sumDownPenalty) Penalty() time.Duration { return p.total.Truncate(time.Minute) }

type sumInSecondsPenalty struct {
	perWrong time.Duration
	total    time.Duration
}

func (p *sumInSecondsPenalty) AddSolvedProblem(t time.Duration, wrongAttempts int) {
	p.total += t + time.Duration(wrongAttempts)*p.perWrong
}

func (p *sumInSecondsPenalty) Penalty() time.Duration { return p.total }

// lastPenalty charges the latest solve time once, plus every wrong attempt.
type lastPenalty struct {
	perWrong time.Duration
	wrong    int
	last     time.Duration
}

func (p *lastPenalty) AddSolvedProblem(t time.Duration, wrongAttempts int) {
	p.wrong += wrongAttempts
	p.last = max(p.last, t)
}

func (p *lastPenalty) Penalty() time.Duration {
	return p.last + time.Duration(p.wrong)*p.perWrong
}
