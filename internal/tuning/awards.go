package tuning

import (
	"fmt"
	"sort"

	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/types"
)

func ordinalText(x int) string {
	if x >= 11 && x <= 13 {
		return fmt.Sprintf("%d-th", x)
	}
	suffix := "th"
	switch x % 10 {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d-%s", x, suffix)
}

func intPtr(v int) *int { return &v }

// awardChains resolves the configured chains and expands the shortcuts, in
// this order: explicit chains, medals, champion, group champions, rank awards.
func (s *Settings) awardChains(ids *enumerator.Set) []types.AwardChain {
	var chains []types.AwardChain
	for _, chain := range s.Awards {
		chains = append(chains, chain.resolve(ids))
	}
	if m := s.Medals; m != nil {
		medal := func(id, citation string, maxRank int) types.RankBasedAward {
			return types.RankBasedAward{
				ID:           id,
				Citation:     citation,
				MaxRank:      intPtr(maxRank),
				MinScore:     m.MinScore,
				TiebreakMode: m.TiebreakMode,
			}
		}
		var awards []types.RankBasedAward
		if m.Gold > 0 {
			awards = append(awards, medal("gold-medal", "Gold Medal", m.Gold))
		}
		if m.Silver > 0 {
			awards = append(awards, medal("silver-medal", "Silver Medal", m.Gold+m.Silver))
		}
		if m.Bronze > 0 {
			awards = append(awards, medal("bronze-medal", "Bronze Medal", m.Gold+m.Silver+m.Bronze))
		}
		chains = append(chains, types.AwardChain{Awards: awards})
	}
	if s.ChampionTitle != "" {
		chains = append(chains, types.AwardChain{Awards: []types.RankBasedAward{
			{ID: "winner", Citation: s.ChampionTitle, MaxRank: intPtr(1)},
		}})
	}
	groups := make([]string, 0, len(s.GroupsChampionTitles))
	for g := range s.GroupsChampionTitles {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		chains = append(chains, types.AwardChain{
			Groups: []types.GroupID{ids.Groups.IDFor(g)},
			Awards: []types.RankBasedAward{
				{ID: "group-winner-" + g, Citation: s.GroupsChampionTitles[g], MaxRank: intPtr(1)},
			},
		})
	}
	if s.RankAwardsMaxRank > 0 {
		awards := make([]types.RankBasedAward, 0, s.RankAwardsMaxRank)
		for rank := 1; rank <= s.RankAwardsMaxRank; rank++ {
			awards = append(awards, types.RankBasedAward{
				ID:       fmt.Sprintf("rank-%d", rank),
				Citation: ordinalText(rank) + " place",
				MaxRank:  intPtr(rank),
			})
		}
		chains = append(chains, types.AwardChain{Awards: awards})
	}
	return chains
}

func (c AwardChain) resolve(ids *enumerator.Set) types.AwardChain {
	chain := types.AwardChain{
		Awards:                       make([]types.RankBasedAward, 0, len(c.Awards)),
		Groups:                       groupIDs(ids, c.Groups),
		ExcludedGroups:               groupIDs(ids, c.ExcludedGroups),
		Limit:                        c.Limit,
		OrganizationLimit:            c.OrganizationLimit,
		OrganizationLimitCustomField: c.OrganizationLimitCustomField,
	}
	for _, a := range c.Awards {
		award := types.RankBasedAward{
			ID:                           a.ID,
			Citation:                     a.Citation,
			MaxRank:                      a.MaxRank,
			MinScore:                     a.MinScore,
			TiebreakMode:                 a.TiebreakMode,
			Limit:                        a.Limit,
			OrganizationLimit:            a.OrganizationLimit,
			OrganizationLimitCustomField: a.OrganizationLimitCustomField,
		}
		for _, team := range a.ManualTeams {
			award.ManualTeamIDs = append(award.ManualTeamIDs, ids.Teams.IDFor(team))
		}
		chain.Awards = append(chain.Awards, award)
	}
	return chain
}

func groupIDs(ids *enumerator.Set, external []string) []types.GroupID {
	if len(external) == 0 {
		return nil
	}
	result := make([]types.GroupID, 0, len(external))
	for _, g := range external {
		result = append(result, ids.Groups.IDFor(g))
	}
	return result
}
