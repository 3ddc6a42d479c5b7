package types

// TeamMediaType names a media slot of a team.
type TeamMediaType string

// Supported team media slots.
const (
	TeamMediaPhoto  TeamMediaType = "photo"
	TeamMediaRecord TeamMediaType = "record"
	TeamMediaCamera TeamMediaType = "camera"
	TeamMediaScreen TeamMediaType = "screen"
)

// TeamInfo represents a team participating in the contest.
type TeamInfo struct {
	// ID is the unique identifier of the team.
	ID TeamID `json:"id"`

	// FullName is the complete team name.
	FullName string `json:"name"`

	// DisplayName is the name shown on the scoreboard. It is also the final
	// tiebreak of the ranking.
	DisplayName string `json:"shortName"`

	// Groups lists the groups the team belongs to.
	Groups []GroupID `json:"groups"`

	// OrganizationID is the organization the team represents, if any.
	OrganizationID *OrganizationID `json:"organizationId,omitempty"`

	// HashTag is a social media tag of the team.
	HashTag string `json:"hashTag,omitempty"`

	// Medias maps media slots to stream or image links.
	Medias map[TeamMediaType]MediaType `json:"medias,omitempty"`

	// IsHidden removes the team from the scoreboard.
	IsHidden bool `json:"isHidden"`

	// IsOutOfContest keeps the team on the scoreboard without a rank.
	IsOutOfContest bool `json:"isOutOfContest"`

	// CustomFields holds free-form values, used for example by award
	// organization limits.
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// InGroup reports whether the team belongs to the group.
func (t TeamInfo) InGroup(group GroupID) bool {
	for _, g := range t.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// GroupInfo represents a group of teams, such as a region or a division.
type GroupInfo struct {
	ID             GroupID `json:"id"`
	DisplayName    string  `json:"displayName"`
	IsHidden       bool    `json:"isHidden"`
	IsOutOfContest bool    `json:"isOutOfContest"`
}

// OrganizationInfo represents a university or company the teams come from.
type OrganizationInfo struct {
	ID           OrganizationID    `json:"id"`
	DisplayName  string            `json:"displayName"`
	FullName     string            `json:"fullName"`
	Logo         MediaType         `json:"logo,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// LanguageInfo represents a programming language accepted by the contest.
type LanguageInfo struct {
	ID         LanguageID `json:"id"`
	Name       string     `json:"name"`
	Extensions []string   `json:"extensions,omitempty"`
}
