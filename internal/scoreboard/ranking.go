package scoreboard

import (
	"cmp"
	"slices"

	"github.com/jjudge-oj/livefeed/types"
)

// Ranking is the ordered scoreboard. Ranks[i] is the rank of Order[i], or 0
// for a team that is out of contest.
type Ranking struct {
	Order  []types.TeamID `json:"order"`
	Ranks  []int          `json:"ranks"`
	Awards []types.Award  `json:"awards"`
}

// RankOf returns the position and rank of a team.
func (r Ranking) RankOf(team types.TeamID) (position, rank int, ok bool) {
	for i, id := range r.Order {
		if id == team {
			return i, r.Ranks[i], true
		}
	}
	return 0, 0, false
}

type standing struct {
	team types.TeamInfo
	row  types.ScoreboardRow
	rank int
}

// ComputeRanking orders the visible teams, assigns ranks to tied chunks and
// computes the award chains of the contest. Teams without a row are scored as
// if they had no runs.
func ComputeRanking(info types.ContestInfo, rows map[types.TeamID]types.ScoreboardRow, calc Calculator) Ranking {
	outOfContestGroups := make(map[types.GroupID]bool)
	for _, g := range info.Groups {
		if g.IsOutOfContest {
			outOfContestGroups[g.ID] = true
		}
	}

	standings := make([]standing, 0, len(info.Teams))
	for _, team := range info.Teams {
		if team.IsHidden {
			continue
		}
		row, ok := rows[team.ID]
		if !ok {
			row = calc.Row(info, nil)
		}
		if row.Attempts == 0 && !info.ShowTeamsWithoutSubmissions {
			continue
		}
		standings = append(standings, standing{team: team, row: row})
	}
	slices.SortStableFunc(standings, func(a, b standing) int {
		if c := calc.Compare(a.row, b.row); c != 0 {
			return c
		}
		if c := cmp.Compare(a.team.DisplayName, b.team.DisplayName); c != 0 {
			return c
		}
		return cmp.Compare(a.team.ID, b.team.ID)
	})

	next := 1
	for left := 0; left < len(standings); {
		right := left
		for right < len(standings) && calc.Compare(standings[left].row, standings[right].row) == 0 {
			right++
		}
		rank := next
		for i := left; i < right; i++ {
			if isOutOfContest(standings[i].team, outOfContestGroups) {
				continue
			}
			standings[i].rank = rank
			next++
		}
		left = right
	}

	ranking := Ranking{
		Order: make([]types.TeamID, len(standings)),
		Ranks: make([]int, len(standings)),
	}
	for i, s := range standings {
		ranking.Order[i] = s.team.ID
		ranking.Ranks[i] = s.rank
	}
	ranking.Awards = computeAwards(info, standings)
	return ranking
}

func isOutOfContest(team types.TeamInfo, groups map[types.GroupID]bool) bool {
	if team.IsOutOfContest {
		return true
	}
	for _, g := range team.Groups {
		if groups[g] {
			return true
		}
	}
	return false
}
