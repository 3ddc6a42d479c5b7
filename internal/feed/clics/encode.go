package clics

import (
	"encoding/json"
	"fmt"
)

type encoded2022 struct {
	Type  string  `json:"type"`
	ID    *string `json:"id"`
	Token string  `json:"token,omitempty"`
	Data  any     `json:"data"`
}

// Encode renders an event as a 2022-07 feed line without a trailing newline.
func Encode(ev Event) ([]byte, error) {
	if ev.Type == typePreloadFinished {
		return nil, fmt.Errorf("encode event: %s is not a feed event", ev.Type)
	}
	out := encoded2022{Type: wireName(ev.Type), Token: ev.Token, Data: ev.Data}
	if ev.ID != "" {
		id := ev.ID
		out.ID = &id
	}
	line, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s event %s: %w", ev.Type, ev.ID, err)
	}
	return line, nil
}

func wireName(t EventType) string {
	if t == TypeContest {
		return "contest"
	}
	return string(t)
}
