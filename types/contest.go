package types

import (
	"reflect"
	"sort"
	"time"
)

// ContestResultType selects the scoring family of a contest.
type ContestResultType string

// Supported result types.
const (
	ResultICPC ContestResultType = "ICPC"
	ResultIOI  ContestResultType = "IOI"
)

// PenaltyRoundingMode selects how solve times and wrong attempts turn into penalty.
type PenaltyRoundingMode string

// Supported penalty rounding modes.
const (
	PenaltyEachSubmissionDownToMinute PenaltyRoundingMode = "each_submission_down_to_minute"
	PenaltyEachSubmissionUpToMinute   PenaltyRoundingMode = "each_submission_up_to_minute"
	PenaltySumDownToMinute            PenaltyRoundingMode = "sum_down_to_minute"
	PenaltySumInSeconds               PenaltyRoundingMode = "sum_in_seconds"
	PenaltyLast                       PenaltyRoundingMode = "last"
	PenaltyZero                       PenaltyRoundingMode = "zero"
)

// DefaultPenaltyPerWrongAttempt is used when the source does not define one.
const DefaultPenaltyPerWrongAttempt = 20 * time.Minute

// ContestInfo is an immutable snapshot of the contest definition and its
// participants. Snapshots are never mutated in place: every change builds a
// new value with fresh slices.
type ContestInfo struct {
	// Name is the contest title.
	Name string `json:"name"`

	// Status is the lifecycle state of the contest.
	Status ContestStatus `json:"status"`

	// ResultType selects ICPC or IOI scoring for the whole contest.
	ResultType ContestResultType `json:"resultType"`

	// ContestLength is the planned duration of the contest.
	ContestLength time.Duration `json:"contestLength"`

	// FreezeTime is the contest-relative time the scoreboard freezes at, if any.
	FreezeTime *time.Duration `json:"freezeTime,omitempty"`

	Problems      []ProblemInfo      `json:"problems"`
	Teams         []TeamInfo         `json:"teams"`
	Groups        []GroupInfo        `json:"groups"`
	Organizations []OrganizationInfo `json:"organizations"`
	Languages     []LanguageInfo     `json:"languages"`

	// PenaltyRoundingMode selects the penalty calculator.
	PenaltyRoundingMode PenaltyRoundingMode `json:"penaltyRoundingMode"`

	// PenaltyPerWrongAttempt is added for every wrong attempt before a solve.
	PenaltyPerWrongAttempt time.Duration `json:"penaltyPerWrongAttempt"`

	// EmulationSpeed is set when the contest is replayed faster than real time.
	EmulationSpeed float64 `json:"emulationSpeed,omitempty"`

	// AwardsSettings are the award chains computed with every ranking.
	AwardsSettings []AwardChain `json:"awardsSettings"`

	// ShowTeamsWithoutSubmissions keeps teams with no runs on the scoreboard.
	ShowTeamsWithoutSubmissions bool `json:"showTeamsWithoutSubmissions"`

	// CustomFields holds free-form contest-level values.
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// StartTime returns the actual or scheduled contest start.
func (c ContestInfo) StartTime() (time.Time, bool) {
	if c.Status == nil {
		return time.Time{}, false
	}
	return StartedAt(c.Status)
}

// StartTimeOrZero returns the contest start, or the zero time when unknown.
func (c ContestInfo) StartTimeOrZero() time.Time {
	start, _ := c.StartTime()
	return start
}

// Team finds a team by id.
func (c ContestInfo) Team(id TeamID) (TeamInfo, bool) {
	for _, t := range c.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return TeamInfo{}, false
}

// Problem finds a problem by id.
func (c ContestInfo) Problem(id ProblemID) (ProblemInfo, bool) {
	for _, p := range c.Problems {
		if p.ID == id {
			return p, true
		}
	}
	return ProblemInfo{}, false
}

// Organization finds an organization by id.
func (c ContestInfo) Organization(id OrganizationID) (OrganizationInfo, bool) {
	for _, o := range c.Organizations {
		if o.ID == id {
			return o, true
		}
	}
	return OrganizationInfo{}, false
}

// TeamsByID indexes the teams.
func (c ContestInfo) TeamsByID() map[TeamID]TeamInfo {
	m := make(map[TeamID]TeamInfo, len(c.Teams))
	for _, t := range c.Teams {
		m[t.ID] = t
	}
	return m
}

// ProblemsByID indexes the problems.
func (c ContestInfo) ProblemsByID() map[ProblemID]ProblemInfo {
	m := make(map[ProblemID]ProblemInfo, len(c.Problems))
	for _, p := range c.Problems {
		m[p.ID] = p
	}
	return m
}

// OrganizationsByID indexes the organizations.
func (c ContestInfo) OrganizationsByID() map[OrganizationID]OrganizationInfo {
	m := make(map[OrganizationID]OrganizationInfo, len(c.Organizations))
	for _, o := range c.Organizations {
		m[o.ID] = o
	}
	return m
}

// ScoreboardProblems returns the visible problems in column order.
func (c ContestInfo) ScoreboardProblems() []ProblemInfo {
	problems := make([]ProblemInfo, 0, len(c.Problems))
	for _, p := range c.Problems {
		if !p.IsHidden {
			problems = append(problems, p)
		}
	}
	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].Ordinal < problems[j].Ordinal
	})
	return problems
}

// WithStatus returns a copy of the snapshot with another status.
func (c ContestInfo) WithStatus(status ContestStatus) ContestInfo {
	c.Status = status
	return c
}

// Equal reports whether two snapshots carry identical data.
func (c ContestInfo) Equal(other ContestInfo) bool {
	return reflect.DeepEqual(c, other)
}

// FinalizedStatus synthesizes the terminal status of a contest that ended
// without an explicit finalization from its source.
func (c ContestInfo) FinalizedStatus() StatusFinalized {
	start := c.StartTimeOrZero()
	status := StatusFinalized{
		StartedAt:   start,
		FinishedAt:  start.Add(c.ContestLength),
		FinalizedAt: start.Add(c.ContestLength),
	}
	if c.FreezeTime != nil {
		frozen := start.Add(*c.FreezeTime)
		status.FrozenAt = &frozen
	}
	return status
}
