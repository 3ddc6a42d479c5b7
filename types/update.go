package types

import "time"

// ContestUpdate is the closed set of events of a contest state stream.
// Every update carries the contest snapshot that is current after it, so a
// subscriber sees consistent problem and team data alongside a run.
type ContestUpdate interface {
	Contest() ContestInfo
	isContestUpdate()
}

// InfoUpdate announces a new contest snapshot.
type InfoUpdate struct {
	Info ContestInfo `json:"info"`
}

// RunUpdate announces a new or changed run.
type RunUpdate struct {
	Info ContestInfo `json:"-"`
	Run  RunInfo     `json:"run"`
}

// AnalyticsUpdate carries a commentary message from the source.
type AnalyticsUpdate struct {
	Info    ContestInfo      `json:"-"`
	Message AnalyticsMessage `json:"message"`
}

// AnalyticsMessage is a commentary item about teams or runs.
type AnalyticsMessage struct {
	ID          string        `json:"id"`
	Message     string        `json:"message"`
	Time        time.Time     `json:"time"`
	ContestTime time.Duration `json:"relativeTime"`
	TeamIDs     []TeamID      `json:"teamIds,omitempty"`
	RunIDs      []RunID       `json:"runIds,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
}

func (u InfoUpdate) Contest() ContestInfo      { return u.Info }
func (u RunUpdate) Contest() ContestInfo       { return u.Info }
func (u AnalyticsUpdate) Contest() ContestInfo { return u.Info }

func (InfoUpdate) isContestUpdate()      {}
func (RunUpdate) isContestUpdate()       {}
func (AnalyticsUpdate) isContestUpdate() {}

func (u InfoUpdate) MarshalJSON() ([]byte, error) {
	type plain InfoUpdate
	return marshalTagged("InfoUpdate", plain(u))
}

func (u RunUpdate) MarshalJSON() ([]byte, error) {
	type plain RunUpdate
	return marshalTagged("RunUpdate", plain(u))
}

func (u AnalyticsUpdate) MarshalJSON() ([]byte, error) {
	type plain AnalyticsUpdate
	return marshalTagged("AnalyticsUpdate", plain(u))
}
