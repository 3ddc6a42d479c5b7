package clics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Time is an absolute timestamp in CLICS notation.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTime(t.Time))
}

// RelTime is a contest-relative time or a duration in CLICS notation.
type RelTime time.Duration

// Duration converts to time.Duration.
func (r RelTime) Duration() time.Duration { return time.Duration(r) }

func (r *RelTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*r = RelTime(d)
	return nil
}

func (r RelTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDuration(time.Duration(r)))
}

// Minutes is the contest penalty time. Older feeds send an integer number of
// minutes, newer ones may send a relative time.
type Minutes time.Duration

func (m *Minutes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var r RelTime
		if err := r.UnmarshalJSON(b); err != nil {
			return err
		}
		*m = Minutes(r)
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid penalty time %s: %w", b, err)
	}
	*m = Minutes(time.Duration(n * float64(time.Minute)))
	return nil
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	d := time.Duration(m)
	if d%time.Minute == 0 {
		return []byte(strconv.FormatInt(int64(d/time.Minute), 10)), nil
	}
	return json.Marshal(FormatDuration(d))
}

// Media is a file reference.
type Media struct {
	Href     string `json:"href"`
	Mime     string `json:"mime,omitempty"`
	Filename string `json:"filename,omitempty"`
	Hash     string `json:"hash,omitempty"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

type Contest struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	FormalName               *string  `json:"formal_name,omitempty"`
	StartTime                *Time    `json:"start_time,omitempty"`
	CountdownPauseTime       *RelTime `json:"countdown_pause_time,omitempty"`
	Duration                 RelTime  `json:"duration"`
	ScoreboardFreezeDuration *RelTime `json:"scoreboard_freeze_duration,omitempty"`
	ScoreboardType           string   `json:"scoreboard_type,omitempty"`
	PenaltyTime              *Minutes `json:"penalty_time,omitempty"`
	Banner                   []Media  `json:"banner,omitempty"`
	Logo                     []Media  `json:"logo,omitempty"`
}

type State struct {
	Started      *Time `json:"started"`
	Frozen       *Time `json:"frozen"`
	Ended        *Time `json:"ended"`
	Thawed       *Time `json:"thawed"`
	Finalized    *Time `json:"finalized"`
	EndOfUpdates *Time `json:"end_of_updates"`
}

type JudgementType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Penalty bool   `json:"penalty"`
	Solved  bool   `json:"solved"`
}

type Language struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	EntryPointRequired bool     `json:"entry_point_required"`
	Extensions         []string `json:"extensions,omitempty"`
}

type Problem struct {
	ID            string  `json:"id"`
	Ordinal       int     `json:"ordinal"`
	Label         string  `json:"label"`
	Name          string  `json:"name"`
	Color         *string `json:"color,omitempty"`
	RGB           *string `json:"rgb,omitempty"`
	TestDataCount *int    `json:"test_data_count,omitempty"`
}

type Organization struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FormalName     *string `json:"formal_name,omitempty"`
	Country        *string `json:"country,omitempty"`
	CountryFlag    []Media `json:"country_flag,omitempty"`
	Logo           []Media `json:"logo,omitempty"`
	TwitterHashtag *string `json:"twitter_hashtag,omitempty"`
}

type Group struct {
	ID     string  `json:"id"`
	ICPCID *string `json:"icpc_id,omitempty"`
	Name   string  `json:"name"`
	Type   *string `json:"type,omitempty"`
	Hidden *bool   `json:"hidden,omitempty"`
}

type Team struct {
	ID             string   `json:"id"`
	OrganizationID *string  `json:"organization_id,omitempty"`
	GroupIDs       []string `json:"group_ids,omitempty"`
	Name           string   `json:"name"`
	DisplayName    *string  `json:"display_name,omitempty"`
	Label          *string  `json:"label,omitempty"`
	Hidden         *bool    `json:"hidden,omitempty"`
	Photo          []Media  `json:"photo,omitempty"`
	Video          []Media  `json:"video,omitempty"`
	Desktop        []Media  `json:"desktop,omitempty"`
	Webcam         []Media  `json:"webcam,omitempty"`
}

type Submission struct {
	ID          string  `json:"id"`
	LanguageID  string  `json:"language_id"`
	ProblemID   string  `json:"problem_id"`
	TeamID      string  `json:"team_id"`
	Time        Time    `json:"time"`
	ContestTime RelTime `json:"contest_time"`
	Reaction    []Media `json:"reaction,omitempty"`
}

type Judgement struct {
	ID               string   `json:"id"`
	SubmissionID     string   `json:"submission_id"`
	JudgementTypeID  *string  `json:"judgement_type_id"`
	StartTime        Time     `json:"start_time"`
	StartContestTime RelTime  `json:"start_contest_time"`
	EndTime          *Time    `json:"end_time,omitempty"`
	EndContestTime   *RelTime `json:"end_contest_time,omitempty"`
}

type Run struct {
	ID              string  `json:"id"`
	JudgementID     string  `json:"judgement_id"`
	Ordinal         int     `json:"ordinal"`
	JudgementTypeID string  `json:"judgement_type_id"`
	Time            *Time   `json:"time,omitempty"`
	ContestTime     RelTime `json:"contest_time"`
}

type Commentary struct {
	ID            string   `json:"id"`
	Time          Time     `json:"time"`
	ContestTime   RelTime  `json:"contest_time"`
	Message       string   `json:"message"`
	Tags          []string `json:"tags,omitempty"`
	TeamIDs       []string `json:"team_ids,omitempty"`
	ProblemIDs    []string `json:"problem_ids,omitempty"`
	SubmissionIDs []string `json:"submission_ids,omitempty"`
}

type Award struct {
	ID       string   `json:"id"`
	Citation string   `json:"citation"`
	TeamIDs  []string `json:"team_ids"`
}
