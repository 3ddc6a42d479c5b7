package clics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Version is a CLICS event feed revision.
type Version string

const (
	Version2020 Version = "2020_03"
	Version2022 Version = "2022_07"
)

// ParseVersion accepts "2020_03", "2020-03", "2022_07" and "2022-07".
func ParseVersion(s string) (Version, error) {
	switch strings.ReplaceAll(s, "-", "_") {
	case "2020_03":
		return Version2020, nil
	case "2022_07", "":
		return Version2022, nil
	default:
		return "", fmt.Errorf("unsupported clics feed version %q", s)
	}
}

// Decoder turns feed lines into events.
type Decoder struct {
	version Version

	// tokenPrefix keeps tokens distinct when several feeds are merged.
	tokenPrefix string

	baseURL  *url.URL
	prefixes []string
	mapping  map[string]string
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithTokenPrefix prepends prefix to every token.
func WithTokenPrefix(prefix string) DecoderOption {
	return func(d *Decoder) { d.tokenPrefix = prefix }
}

// WithBaseURL resolves relative media hrefs against base.
func WithBaseURL(base *url.URL) DecoderOption {
	return func(d *Decoder) { d.baseURL = base }
}

// WithURLPrefixMapping rewrites media hrefs starting with a key of mapping to
// start with its value instead. The longest matching prefix wins.
func WithURLPrefixMapping(mapping map[string]string) DecoderOption {
	return func(d *Decoder) {
		d.mapping = mapping
		d.prefixes = make([]string, 0, len(mapping))
		for prefix := range mapping {
			d.prefixes = append(d.prefixes, prefix)
		}
		sort.Slice(d.prefixes, func(i, j int) bool {
			if len(d.prefixes[i]) != len(d.prefixes[j]) {
				return len(d.prefixes[i]) > len(d.prefixes[j])
			}
			return d.prefixes[i] < d.prefixes[j]
		})
	}
}

// NewDecoder creates a decoder for the given feed revision.
func NewDecoder(version Version, opts ...DecoderOption) *Decoder {
	d := &Decoder{version: version}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type envelope2020 struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

type envelope2022 struct {
	Type  string          `json:"type"`
	ID    *string         `json:"id"`
	Token *string         `json:"token"`
	Data  json.RawMessage `json:"data"`
}

// Decode parses one non-empty feed line.
func (d *Decoder) Decode(line []byte) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch d.version {
	case Version2020:
		ev, err = d.decode2020(line)
	default:
		ev, err = d.decode2022(line)
	}
	if err != nil {
		return Event{}, err
	}
	if ev.Token != "" {
		ev.Token = d.tokenPrefix + ev.Token
	}
	d.rewriteMedia(ev.Data)
	return ev, nil
}

func (d *Decoder) decode2020(line []byte) (Event, error) {
	var env envelope2020
	if err := json.Unmarshal(line, &env); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	t, err := parseEventType(env.Type)
	if err != nil {
		return Event{}, fmt.Errorf("decode event %q: %w", env.Type, err)
	}
	ev := Event{Type: t, Token: env.ID}
	if isNull(env.Data) {
		return Event{}, fmt.Errorf("decode %s event %s: missing data", env.Type, env.ID)
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &ref); err == nil {
		ev.ID = ref.ID
	}
	switch env.Op {
	case "create", "update":
		ev.Data, err = decodeObject(t, env.Data)
		if err != nil {
			return Event{}, fmt.Errorf("decode %s event %s: %w", env.Type, env.ID, err)
		}
	case "delete":
	default:
		return Event{}, fmt.Errorf("decode %s event %s: unknown op %q", env.Type, env.ID, env.Op)
	}
	return ev, nil
}

func (d *Decoder) decode2022(line []byte) (Event, error) {
	var env envelope2022
	if err := json.Unmarshal(line, &env); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	t, err := parseEventType(env.Type)
	if err != nil {
		return Event{}, fmt.Errorf("decode event %q: %w", env.Type, err)
	}
	ev := Event{Type: t}
	if env.ID != nil {
		ev.ID = *env.ID
	}
	if env.Token != nil {
		ev.Token = *env.Token
	}
	if isNull(env.Data) {
		return ev, nil
	}
	if bytes.HasPrefix(bytes.TrimSpace(env.Data), []byte("[")) {
		return Event{}, fmt.Errorf("decode %s event: collection payloads are not supported", env.Type)
	}
	ev.Data, err = decodeObject(t, env.Data)
	if err != nil {
		return Event{}, fmt.Errorf("decode %s event %s: %w", env.Type, ev.ID, err)
	}
	return ev, nil
}

func decodeObject(t EventType, data json.RawMessage) (any, error) {
	obj := newObject(t)
	if err := json.Unmarshal(data, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (d *Decoder) rewriteMedia(data any) {
	switch obj := data.(type) {
	case *Contest:
		d.fixMedia(obj.Banner)
		d.fixMedia(obj.Logo)
	case *Organization:
		d.fixMedia(obj.CountryFlag)
		d.fixMedia(obj.Logo)
	case *Team:
		d.fixMedia(obj.Photo)
		d.fixMedia(obj.Video)
		d.fixMedia(obj.Desktop)
		d.fixMedia(obj.Webcam)
	case *Submission:
		d.fixMedia(obj.Reaction)
	}
}

func (d *Decoder) fixMedia(medias []Media) {
	for i := range medias {
		medias[i].Href = d.fixHref(medias[i].Href)
	}
}

func (d *Decoder) fixHref(href string) string {
	for _, prefix := range d.prefixes {
		if strings.HasPrefix(href, prefix) {
			href = d.mapping[prefix] + strings.TrimPrefix(href, prefix)
			break
		}
	}
	if d.baseURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	return d.baseURL.ResolveReference(ref).String()
}
