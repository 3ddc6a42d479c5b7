package clics

import (
	"encoding/json"
	"errors"
)

// ErrUnknownEventType is returned when a feed line names a type this package
// does not know.
var ErrUnknownEventType = errors.New("unknown event type")

// EventType is the normalized CLICS endpoint name of an event.
type EventType string

const (
	TypeContest        EventType = "contests"
	TypeState          EventType = "state"
	TypeJudgementTypes EventType = "judgement-types"
	TypeLanguages      EventType = "languages"
	TypeOrganizations  EventType = "organizations"
	TypeGroups         EventType = "groups"
	TypeTeams          EventType = "teams"
	TypeProblems       EventType = "problems"
	TypeSubmissions    EventType = "submissions"
	TypeJudgements     EventType = "judgements"
	TypeRuns           EventType = "runs"
	TypeCommentary     EventType = "commentary"
	TypeAwards         EventType = "awards"
	TypeAccounts       EventType = "accounts"
	TypePersons        EventType = "persons"
	TypeClarifications EventType = "clarifications"
	TypeMapInfo        EventType = "map-info"
	TypeStartStatus    EventType = "start-status"

	// typePreloadFinished marks the end of the startup burst. It never comes
	// from the wire.
	typePreloadFinished EventType = "preload-finished"
)

// Event is one normalized feed event. Data points to the typed object of
// the event (*Contest, *Team, ...) or holds json.RawMessage for types that are
// only passed through. Data is nil when the entity was deleted.
type Event struct {
	Type  EventType
	ID    string
	Token string
	Data  any

	// feed is the index of the feed the event was read from.
	feed int
}

// IsDelete reports whether the event removes its entity.
func (e Event) IsDelete() bool {
	return e.Data == nil
}

var eventTypes = map[string]EventType{
	"contest":         TypeContest,
	"contests":        TypeContest,
	"state":           TypeState,
	"judgement-types": TypeJudgementTypes,
	"languages":       TypeLanguages,
	"organizations":   TypeOrganizations,
	"groups":          TypeGroups,
	"teams":           TypeTeams,
	"problems":        TypeProblems,
	"submissions":     TypeSubmissions,
	"judgements":      TypeJudgements,
	"runs":            TypeRuns,
	"commentary":      TypeCommentary,
	"awards":          TypeAwards,
	"accounts":        TypeAccounts,
	"persons":         TypePersons,
	"clarifications":  TypeClarifications,
	"map-info":        TypeMapInfo,
	"start-status":    TypeStartStatus,
}

func parseEventType(s string) (EventType, error) {
	t, ok := eventTypes[s]
	if !ok {
		return "", ErrUnknownEventType
	}
	return t, nil
}

// newObject returns a pointer to a fresh typed object for t.
func newObject(t EventType) any {
	switch t {
	case TypeContest:
		return &Contest{}
	case TypeState:
		return &State{}
	case TypeJudgementTypes:
		return &JudgementType{}
	case TypeLanguages:
		return &Language{}
	case TypeOrganizations:
		return &Organization{}
	case TypeGroups:
		return &Group{}
	case TypeTeams:
		return &Team{}
	case TypeProblems:
		return &Problem{}
	case TypeSubmissions:
		return &Submission{}
	case TypeJudgements:
		return &Judgement{}
	case TypeRuns:
		return &Run{}
	case TypeCommentary:
		return &Commentary{}
	case TypeAwards:
		return &Award{}
	default:
		return &json.RawMessage{}
	}
}

// priority orders the startup burst. Entities referenced by others sort first.
func priority(t EventType) int {
	switch t {
	case TypeContest:
		return 0
	case TypeState:
		return 1
	case TypeJudgementTypes:
		return 2
	case TypeLanguages:
		return 3
	case TypeOrganizations:
		return 4
	case TypeGroups:
		return 5
	case TypeTeams:
		return 6
	case TypeProblems:
		return 7
	case TypeSubmissions:
		return 100
	case TypeJudgements:
		return 101
	case TypeRuns:
		return 102
	case TypeCommentary:
		return 200
	default:
		return 8
	}
}

// isFinal reports whether the event closes the feed.
func isFinal(e Event) bool {
	if e.Type != TypeState {
		return false
	}
	state, ok := e.Data.(*State)
	return ok && state.EndOfUpdates != nil
}
