package types

import "time"

// ContestStatus is the closed set of contest lifecycle states.
// All times are absolute.
type ContestStatus interface {
	// Phase orders statuses: before < running < over < finalized.
	Phase() int
	isContestStatus()
}

// Status phases in lifecycle order.
const (
	PhaseBefore = iota
	PhaseRunning
	PhaseOver
	PhaseFinalized
)

// StatusBefore is a contest that has not started yet.
type StatusBefore struct {
	// HoldTime is set when the countdown is paused.
	HoldTime *time.Duration `json:"holdTime,omitempty"`

	// ScheduledStartAt is the planned start, if announced.
	ScheduledStartAt *time.Time `json:"scheduledStartAt,omitempty"`
}

// StatusRunning is a contest in progress.
type StatusRunning struct {
	StartedAt time.Time  `json:"startedAt"`
	FrozenAt  *time.Time `json:"frozenAt,omitempty"`

	// IsFake marks a running state produced by emulated replay.
	IsFake bool `json:"isFake"`
}

// StatusOver is a contest after its end, with results possibly not final.
type StatusOver struct {
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
	FrozenAt   *time.Time `json:"frozenAt,omitempty"`
}

// StatusFinalized is a contest whose results will not change anymore.
type StatusFinalized struct {
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  time.Time  `json:"finishedAt"`
	FinalizedAt time.Time  `json:"finalizedAt"`
	FrozenAt    *time.Time `json:"frozenAt,omitempty"`
}

func (StatusBefore) Phase() int    { return PhaseBefore }
func (StatusRunning) Phase() int   { return PhaseRunning }
func (StatusOver) Phase() int      { return PhaseOver }
func (StatusFinalized) Phase() int { return PhaseFinalized }

func (StatusBefore) isContestStatus()    {}
func (StatusRunning) isContestStatus()   {}
func (StatusOver) isContestStatus()      {}
func (StatusFinalized) isContestStatus() {}

func (s StatusBefore) MarshalJSON() ([]byte, error) {
	type plain StatusBefore
	return marshalTagged("BEFORE", plain(s))
}

func (s StatusRunning) MarshalJSON() ([]byte, error) {
	type plain StatusRunning
	return marshalTagged("RUNNING", plain(s))
}

func (s StatusOver) MarshalJSON() ([]byte, error) {
	type plain StatusOver
	return marshalTagged("OVER", plain(s))
}

func (s StatusFinalized) MarshalJSON() ([]byte, error) {
	type plain StatusFinalized
	return marshalTagged("FINALIZED", plain(s))
}

// StartedAt returns the actual or scheduled start of the contest.
func StartedAt(status ContestStatus) (time.Time, bool) {
	switch s := status.(type) {
	case StatusBefore:
		if s.ScheduledStartAt == nil {
			return time.Time{}, false
		}
		return *s.ScheduledStartAt, true
	case StatusRunning:
		return s.StartedAt, true
	case StatusOver:
		return s.StartedAt, true
	case StatusFinalized:
		return s.StartedAt, true
	default:
		return time.Time{}, false
	}
}

// IsFinalized reports whether the status is terminal.
func IsFinalized(status ContestStatus) bool {
	_, ok := status.(StatusFinalized)
	return ok
}
