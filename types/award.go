package types

// TiebreakMode decides whether an award tier may exceed its capacity to keep a
// tied group of teams together.
type TiebreakMode string

// Supported tiebreak modes.
const (
	// TiebreakNone refuses a tied chunk that does not fit.
	TiebreakNone TiebreakMode = "NONE"

	// TiebreakAll awards the whole tied chunk even when it overflows.
	TiebreakAll TiebreakMode = "ALL"
)

// AwardChain is an ordered list of award tiers. A team receives at most one
// award from a chain; the classic gold/silver/bronze medals form one chain.
type AwardChain struct {
	// Awards are processed in order.
	Awards []RankBasedAward `json:"awards"`

	// Groups, when non-empty, restricts the chain to teams in any of the groups.
	Groups []GroupID `json:"groups,omitempty"`

	// ExcludedGroups removes teams in any of the groups from the chain.
	ExcludedGroups []GroupID `json:"excludedGroups,omitempty"`

	// Limit caps the number of teams awarded by the whole chain.
	Limit *int `json:"limit,omitempty"`

	// OrganizationLimit caps the number of teams of one organization awarded by
	// the whole chain.
	OrganizationLimit *int `json:"organizationLimit,omitempty"`

	// OrganizationLimitCustomField names an organization custom field that
	// overrides OrganizationLimit for that organization.
	OrganizationLimitCustomField string `json:"organizationLimitCustomField,omitempty"`
}

// RankBasedAward is one tier of an award chain.
type RankBasedAward struct {
	ID       string `json:"id"`
	Citation string `json:"citation"`

	// MaxRank is the worst rank still eligible.
	MaxRank *int `json:"maxRank,omitempty"`

	// MinScore is the lowest total score still eligible.
	MinScore float64 `json:"minScore"`

	// TiebreakMode defaults to TiebreakAll when empty.
	TiebreakMode TiebreakMode `json:"tiebreakMode,omitempty"`

	// Limit caps the number of teams awarded by this tier.
	Limit *int `json:"limit,omitempty"`

	// ManualTeamIDs are awarded before any rank-based selection.
	ManualTeamIDs []TeamID `json:"manualTeamIds,omitempty"`

	OrganizationLimit            *int   `json:"organizationLimit,omitempty"`
	OrganizationLimitCustomField string `json:"organizationLimitCustomField,omitempty"`
}

// EffectiveTiebreakMode returns the tiebreak mode with the default applied.
func (a RankBasedAward) EffectiveTiebreakMode() TiebreakMode {
	if a.TiebreakMode == "" {
		return TiebreakAll
	}
	return a.TiebreakMode
}

// Award is a computed award with its recipients.
type Award struct {
	ID       string   `json:"id"`
	Citation string   `json:"citation"`
	Teams    []TeamID `json:"teams"`
}
