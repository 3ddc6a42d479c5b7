package scoreboard

import (
	"strconv"

	"github.com/jjudge-oj/livefeed/types"
)

func computeAwards(info types.ContestInfo, standings []standing) []types.Award {
	// out-of-contest teams are never awarded by rank
	ranked := make([]standing, 0, len(standings))
	for _, s := range standings {
		if s.rank > 0 {
			ranked = append(ranked, s)
		}
	}
	teams := info.TeamsByID()
	orgs := info.OrganizationsByID()

	awards := make([]types.Award, 0)
	for _, chain := range info.AwardsSettings {
		state := &chainState{
			chain:    chain,
			teams:    teams,
			orgs:     orgs,
			awarded:  make(map[types.TeamID]bool),
			orgCount: make(map[types.OrganizationID]int),
		}
		scope := state.scope(ranked)
		for _, award := range chain.Awards {
			awards = append(awards, state.tier(award, scope))
		}
	}
	return awards
}

// chainState tracks what one award chain already handed out. A team is
// awarded at most once per chain.
type chainState struct {
	chain    types.AwardChain
	teams    map[types.TeamID]types.TeamInfo
	orgs     map[types.OrganizationID]types.OrganizationInfo
	awarded  map[types.TeamID]bool
	count    int
	orgCount map[types.OrganizationID]int
}

// tierState is the progress of a single tier inside its chain.
type tierState struct {
	award    types.RankBasedAward
	teams    []types.TeamID
	orgCount map[types.OrganizationID]int
}

func (s *chainState) tier(award types.RankBasedAward, ranked []standing) types.Award {
	t := &tierState{
		award:    award,
		teams:    make([]types.TeamID, 0),
		orgCount: make(map[types.OrganizationID]int),
	}
	for _, id := range award.ManualTeamIDs {
		if s.awarded[id] {
			continue
		}
		team, ok := s.teams[id]
		if !ok {
			team = types.TeamInfo{ID: id}
		}
		s.commit(t, team)
	}

	mode := award.EffectiveTiebreakMode()
	for left := 0; left < len(ranked); {
		right := left
		for right < len(ranked) && ranked[right].rank == ranked[left].rank {
			right++
		}
		chunk := ranked[left:right]
		left = right

		rank := chunk[0].rank
		if award.MaxRank != nil {
			if rank > *award.MaxRank {
				break
			}
			if mode == types.TiebreakNone && rank+len(chunk)-1 > *award.MaxRank {
				break
			}
		}
		if chunk[0].row.TotalScore < award.MinScore {
			break
		}
		capacity, limited := s.capacity(t)
		if limited && capacity <= 0 {
			break
		}

		candidates := s.candidates(t, chunk)
		if limited && len(candidates) > capacity {
			if mode == types.TiebreakAll {
				for _, team := range candidates {
					s.commit(t, team)
				}
			}
			break
		}
		for _, team := range candidates {
			s.commit(t, team)
		}
	}
	return types.Award{ID: award.ID, Citation: award.Citation, Teams: t.teams}
}

// scope keeps the teams the chain may award. A chain restricted to groups
// ranks its teams among themselves, so that MaxRank 1 is the best team of
// the group.
func (s *chainState) scope(ranked []standing) []standing {
	if len(s.chain.Groups) == 0 && len(s.chain.ExcludedGroups) == 0 {
		return ranked
	}
	scoped := make([]standing, 0, len(ranked))
	for left := 0; left < len(ranked); {
		right := left
		for right < len(ranked) && ranked[right].rank == ranked[left].rank {
			right++
		}
		rank := len(scoped) + 1
		for _, st := range ranked[left:right] {
			if s.eligible(st.team) {
				st.rank = rank
				scoped = append(scoped, st)
			}
		}
		left = right
	}
	return scoped
}

// candidates returns the members of a chunk that may still receive the tier.
// Teams of an organization at its cap are skipped; the rest of the chunk stays.
func (s *chainState) candidates(t *tierState, chunk []standing) []types.TeamInfo {
	var (
		result  []types.TeamInfo
		pending = make(map[types.OrganizationID]int)
	)
	for _, st := range chunk {
		team := st.team
		if s.awarded[team.ID] || !s.eligible(team) {
			continue
		}
		if team.OrganizationID != nil {
			org := *team.OrganizationID
			if s.organizationFull(t, org, pending[org]) {
				continue
			}
			pending[org]++
		}
		result = append(result, team)
	}
	return result
}

func (s *chainState) commit(t *tierState, team types.TeamInfo) {
	t.teams = append(t.teams, team.ID)
	s.awarded[team.ID] = true
	s.count++
	if team.OrganizationID != nil {
		t.orgCount[*team.OrganizationID]++
		s.orgCount[*team.OrganizationID]++
	}
}

// capacity returns how many more teams the tier may take, and whether any
// limit applies at all.
func (s *chainState) capacity(t *tierState) (int, bool) {
	var (
		capacity int
		limited  bool
	)
	if t.award.Limit != nil {
		capacity, limited = *t.award.Limit-len(t.teams), true
	}
	if s.chain.Limit != nil {
		left := *s.chain.Limit - s.count
		if !limited || left < capacity {
			capacity = left
		}
		limited = true
	}
	return capacity, limited
}

func (s *chainState) eligible(team types.TeamInfo) bool {
	if len(s.chain.Groups) > 0 {
		found := false
		for _, g := range s.chain.Groups {
			if team.InGroup(g) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, g := range s.chain.ExcludedGroups {
		if team.InGroup(g) {
			return false
		}
	}
	return true
}

func (s *chainState) organizationFull(t *tierState, org types.OrganizationID, pending int) bool {
	info, known := s.orgs[org]
	if limit, ok := organizationLimit(t.award.OrganizationLimit, t.award.OrganizationLimitCustomField, info, known); ok {
		if t.orgCount[org]+pending >= limit {
			return true
		}
	}
	if limit, ok := organizationLimit(s.chain.OrganizationLimit, s.chain.OrganizationLimitCustomField, info, known); ok {
		if s.orgCount[org]+pending >= limit {
			return true
		}
	}
	return false
}

// organizationLimit resolves a cap, letting an integer custom field of the
// organization override the configured value.
func organizationLimit(limit *int, field string, org types.OrganizationInfo, known bool) (int, bool) {
	if field != "" && known {
		if v, err := strconv.Atoi(org.CustomFields[field]); err == nil {
			return v, true
		}
	}
	if limit != nil {
		return *limit, true
	}
	return 0, false
}
