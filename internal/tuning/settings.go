// Package tuning overrides contest data coming from a feed with settings
// maintained by the contest staff in a YAML file.
package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jjudge-oj/livefeed/types"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for settings that parse but make no sense.
var ErrInvalid = errors.New("invalid contest settings")

// Settings are the contest overrides. Teams, problems, groups and
// organizations are keyed by their external id in the feed.
type Settings struct {
	Name                   string                    `yaml:"name,omitempty"`
	ResultType             types.ContestResultType   `yaml:"resultType,omitempty"`
	PenaltyRoundingMode    types.PenaltyRoundingMode `yaml:"penaltyRoundingMode,omitempty"`
	PenaltyPerWrongAttempt *time.Duration            `yaml:"penaltyPerWrongAttempt,omitempty"`
	FreezeTime             *time.Duration            `yaml:"freezeTime,omitempty"`
	ContestLength          *time.Duration            `yaml:"contestLength,omitempty"`

	// ShowTeamsWithoutSubmissions keeps inactive teams on the scoreboard.
	ShowTeamsWithoutSubmissions *bool `yaml:"showTeamsWithoutSubmissions,omitempty"`

	Teams    map[string]TeamOverride    `yaml:"teams,omitempty"`
	Problems map[string]ProblemOverride `yaml:"problems,omitempty"`
	Groups   map[string]GroupOverride   `yaml:"groups,omitempty"`

	Organizations map[string]OrganizationOverride `yaml:"organizations,omitempty"`

	// Awards are appended to the award chains of the feed.
	Awards []AwardChain `yaml:"awards,omitempty"`

	// Medals, ChampionTitle, GroupsChampionTitles and RankAwardsMaxRank are
	// shortcuts expanded into award chains.
	Medals               *Medals           `yaml:"medals,omitempty"`
	ChampionTitle        string            `yaml:"championTitle,omitempty"`
	GroupsChampionTitles map[string]string `yaml:"groupsChampionTitles,omitempty"`
	RankAwardsMaxRank    int               `yaml:"rankAwardsMaxRank,omitempty"`
}

// TeamOverride changes one team.
type TeamOverride struct {
	FullName     string            `yaml:"fullName,omitempty"`
	DisplayName  string            `yaml:"displayName,omitempty"`
	Hidden       *bool             `yaml:"hidden,omitempty"`
	OutOfContest *bool             `yaml:"outOfContest,omitempty"`
	CustomFields map[string]string `yaml:"customFields,omitempty"`
}

// ProblemOverride changes one problem.
type ProblemOverride struct {
	Weight         *int                 `yaml:"weight,omitempty"`
	ScoreMergeMode types.ScoreMergeMode `yaml:"scoreMergeMode,omitempty"`
	MinScore       *float64             `yaml:"minScore,omitempty"`
	MaxScore       *float64             `yaml:"maxScore,omitempty"`
	Hidden         *bool                `yaml:"hidden,omitempty"`
}

// GroupOverride changes one group.
type GroupOverride struct {
	Hidden       *bool `yaml:"hidden,omitempty"`
	OutOfContest *bool `yaml:"outOfContest,omitempty"`
}

// OrganizationOverride changes one organization. Custom fields are merged
// into the ones from the feed, e.g. to raise an award organization limit.
type OrganizationOverride struct {
	DisplayName  string            `yaml:"displayName,omitempty"`
	FullName     string            `yaml:"fullName,omitempty"`
	CustomFields map[string]string `yaml:"customFields,omitempty"`
}

// AwardChain mirrors types.AwardChain with external group and team ids.
type AwardChain struct {
	Awards                       []Award  `yaml:"awards"`
	Groups                       []string `yaml:"groups,omitempty"`
	ExcludedGroups               []string `yaml:"excludedGroups,omitempty"`
	Limit                        *int     `yaml:"limit,omitempty"`
	OrganizationLimit            *int     `yaml:"organizationLimit,omitempty"`
	OrganizationLimitCustomField string   `yaml:"organizationLimitCustomField,omitempty"`
}

// Award mirrors types.RankBasedAward with external team ids.
type Award struct {
	ID                           string             `yaml:"id"`
	Citation                     string             `yaml:"citation"`
	MaxRank                      *int               `yaml:"maxRank,omitempty"`
	MinScore                     float64            `yaml:"minScore,omitempty"`
	TiebreakMode                 types.TiebreakMode `yaml:"tiebreakMode,omitempty"`
	Limit                        *int               `yaml:"limit,omitempty"`
	ManualTeams                  []string           `yaml:"manualTeamIds,omitempty"`
	OrganizationLimit            *int               `yaml:"organizationLimit,omitempty"`
	OrganizationLimitCustomField string             `yaml:"organizationLimitCustomField,omitempty"`
}

// Medals describes the classic gold/silver/bronze chain by medal counts.
type Medals struct {
	Gold         int                `yaml:"gold"`
	Silver       int                `yaml:"silver"`
	Bronze       int                `yaml:"bronze"`
	MinScore     float64            `yaml:"minScore,omitempty"`
	TiebreakMode types.TiebreakMode `yaml:"tiebreakMode,omitempty"`
}

// Load reads settings from a YAML file. Unknown fields are rejected.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contest settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML settings.
func Parse(data []byte) (*Settings, error) {
	var settings Settings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse contest settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks enumerated values and award ids.
func (s *Settings) Validate() error {
	switch s.ResultType {
	case "", types.ResultICPC, types.ResultIOI:
	default:
		return fmt.Errorf("%w: unknown result type %q", ErrInvalid, s.ResultType)
	}
	switch s.PenaltyRoundingMode {
	case "", types.PenaltyEachSubmissionDownToMinute, types.PenaltyEachSubmissionUpToMinute,
		types.PenaltySumDownToMinute, types.PenaltySumInSeconds, types.PenaltyLast, types.PenaltyZero:
	default:
		return fmt.Errorf("%w: unknown penalty rounding mode %q", ErrInvalid, s.PenaltyRoundingMode)
	}
	for id, p := range s.Problems {
		switch p.ScoreMergeMode {
		case "", types.ScoreMergeMaxPerGroup, types.ScoreMergeMaxTotal, types.ScoreMergeLast,
			types.ScoreMergeLastOK, types.ScoreMergeSum:
		default:
			return fmt.Errorf("%w: problem %s: unknown score merge mode %q", ErrInvalid, id, p.ScoreMergeMode)
		}
	}
	if s.Medals != nil {
		if err := validateTiebreak(s.Medals.TiebreakMode); err != nil {
			return fmt.Errorf("medals: %w", err)
		}
	}
	if s.RankAwardsMaxRank < 0 {
		return fmt.Errorf("%w: rankAwardsMaxRank must not be negative", ErrInvalid)
	}
	seen := make(map[string]bool)
	for i, chain := range s.Awards {
		for j, award := range chain.Awards {
			if award.ID == "" {
				return fmt.Errorf("%w: awards[%d].awards[%d]: id is required", ErrInvalid, i, j)
			}
			if seen[award.ID] {
				return fmt.Errorf("%w: duplicate award id %q", ErrInvalid, award.ID)
			}
			seen[award.ID] = true
			if err := validateTiebreak(award.TiebreakMode); err != nil {
				return fmt.Errorf("award %s: %w", award.ID, err)
			}
		}
	}
	return nil
}

func validateTiebreak(mode types.TiebreakMode) error {
	switch mode {
	case "", types.TiebreakNone, types.TiebreakAll:
		return nil
	default:
		return fmt.Errorf("%w: unknown tiebreak mode %q", ErrInvalid, mode)
	}
}
